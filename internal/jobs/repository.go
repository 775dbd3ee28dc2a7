package jobs

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"admix-studio/internal/apperrors"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// transientAttempts nombre d'essais d'un appel base de données
const transientAttempts = 3

// linearBackOff attend step, 2*step, 3*step...
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}

// retryStep pas de l'attente linéaire, réduit par les tests
var retryStep = 2 * time.Second

// isTransient vrai pour les erreurs de connexion à la base
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// retryTransient exécute op jusqu'à trois fois tant que l'erreur est une
// erreur de connexion. Les autres erreurs sont renvoyées immédiatement.
func retryTransient[T any](ctx context.Context, name string, op func() (T, error)) (T, error) {
	operation := func() (T, error) {
		out, err := op()
		if err == nil {
			return out, nil
		}
		if !isTransient(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}

	notify := func(err error, wait time.Duration) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("op", name).Dur("retry_in", wait).Msg("Repository: transient database error")
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&linearBackOff{step: retryStep}),
		backoff.WithMaxTries(transientAttempts),
		backoff.WithNotify(notify),
	)
	if err != nil {
		if isTransient(err) {
			return out, fmt.Errorf("%s: %w: %w", name, apperrors.ErrTransient, err)
		}
		return out, err
	}
	return out, nil
}

// exec variante de retryTransient sans résultat
func exec(ctx context.Context, name string, op func() error) error {
	_, err := retryTransient(ctx, name, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

// notFound traduit gorm.ErrRecordNotFound
func notFound(err error, resource, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource, id)
	}
	return err
}

// requireRow signale une mise à jour qui n'a touché aucune ligne
func requireRow(result *gorm.DB, resource, id string) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound(resource, id)
	}
	return nil
}
