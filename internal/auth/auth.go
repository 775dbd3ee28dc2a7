// Package auth vérifie le jeton de session et résout l'utilisateur courant.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"admix-studio/internal/apperrors"
	"admix-studio/pkg/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Principal est l'utilisateur authentifié d'une requête
type Principal struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	AssignedRole string    `json:"assignedRole,omitempty"`
}

// HasAnyRole compare role et assignedRole aux rôles autorisés
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if p.Role == role || (p.AssignedRole != "" && p.AssignedRole == role) {
			return true
		}
	}
	return false
}

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticator valide un jeton HS256 et charge l'utilisateur associé.
// Les principaux résolus restent en cache pendant ttl.
type Authenticator struct {
	secret []byte
	users  UserStore
	cache  *cache.Cache
	now    func() time.Time
}

func NewAuthenticator(secret string, users UserStore, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Authenticator{
		secret: []byte(secret),
		users:  users,
		cache:  cache.New(ttl, 2*ttl),
		now:    time.Now,
	}
}

// Lookup résout le principal porté par credential
func (a *Authenticator) Lookup(ctx context.Context, credential string) (*Principal, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: no token", apperrors.ErrUnauthorized)
	}
	if cached, found := a.cache.Get(credential); found {
		return cached.(*Principal), nil
	}

	userID, err := a.parse(credential)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("Authenticator.Lookup: token rejected")
		return nil, fmt.Errorf("%w: session expired or invalid", apperrors.ErrForbidden)
	}

	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	principal := &Principal{
		ID:           user.ID,
		Email:        user.Email,
		Role:         user.Role,
		AssignedRole: user.AssignedRole,
	}
	a.cache.SetDefault(credential, principal)
	return principal, nil
}

func (a *Authenticator) parse(credential string) (uuid.UUID, error) {
	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("unexpected claims type")
	}
	raw, ok := claims["userId"].(string)
	if !ok || raw == "" {
		return uuid.Nil, errors.New("missing userId claim")
	}
	return uuid.Parse(raw)
}

// UserRepository lit la table users
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "role", "assigned_role").
		First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}
