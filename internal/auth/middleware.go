package auth

import (
	"net/http"
	"strings"

	"admix-studio/internal/apperrors"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Credential lit le jeton dans le cookie de session ou l'en-tête Authorization
func Credential(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth rejette la requête sans principal valide
func (a *Authenticator) RequireAuth(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := a.Lookup(c.Request.Context(), Credential(c, cookieName))
		if err != nil {
			c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// Identify pose le principal quand un jeton valide est présent, sans rien exiger
func (a *Authenticator) Identify(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if credential := Credential(c, cookieName); credential != "" {
			if principal, err := a.Lookup(c.Request.Context(), credential); err == nil {
				c.Set(principalKey, principal)
			}
		}
		c.Next()
	}
}

// RequireRoles doit suivre RequireAuth
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		if !principal.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: insufficient role"})
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*Principal)
	return principal, ok && principal != nil
}
