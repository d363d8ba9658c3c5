package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/streetkit/apperrors"
	"github.com/yashrajoria/streetkit/models"
	"github.com/yashrajoria/streetkit/services"
)

const (
	SessionContextKey = "session"
	GuardContextKey   = "session_guard"
	tokenCookie       = "token"
)

// SessionResolver turns a bearer token into the live session it belongs to.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.Session, error)
}

// AuthMiddleware rejects requests without a valid, still signed-in token and stores
// the session in the gin context.
func AuthMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: missing token"})
			return
		}
		session, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			apperrors.Respond(c, err)
			c.Abort()
			return
		}
		c.Set(SessionContextKey, session)
		c.Set(GuardContextKey, services.RestoreSessionGuard(session.Identity))
		c.Next()
	}
}

// OptionalAuth attaches the session when a valid token is present and lets
// anonymous callers through otherwise. Either way the request carries a guard.
func OptionalAuth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		guard := services.NewSessionGuard(nil)
		if token := bearerToken(c); token != "" {
			if session, err := resolver.ResolveSession(c.Request.Context(), token); err == nil {
				c.Set(SessionContextKey, session)
				guard = services.RestoreSessionGuard(session.Identity)
			}
		}
		c.Set(GuardContextKey, guard)
		c.Next()
	}
}

// RequireRoles allows the request only when the signed-in identity holds one of roles.
// It must run after AuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		guard := GetGuard(c)
		identity, ok := guard.Current()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !guard.Allows(roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied for role " + string(identity.Role)})
			return
		}
		c.Next()
	}
}

func GetSession(c *gin.Context) (*models.Session, error) {
	val, exists := c.Get(SessionContextKey)
	if !exists {
		return nil, errors.New("session not found in context")
	}
	session, ok := val.(*models.Session)
	if !ok || session == nil {
		return nil, errors.New("session has invalid type in context")
	}
	return session, nil
}

// GetGuard returns the request's session guard. Without one it restores a guard from
// the session in the context, or stores an Anonymous guard when there is none.
func GetGuard(c *gin.Context) *services.SessionGuard {
	if val, exists := c.Get(GuardContextKey); exists {
		if guard, ok := val.(*services.SessionGuard); ok && guard != nil {
			return guard
		}
	}
	guard := services.NewSessionGuard(nil)
	if session, err := GetSession(c); err == nil {
		guard = services.RestoreSessionGuard(session.Identity)
	}
	c.Set(GuardContextKey, guard)
	return guard
}

// GetIdentity returns the identity the request's guard holds, if any.
func GetIdentity(c *gin.Context) (*models.Identity, bool) {
	identity, ok := GetGuard(c).Current()
	if !ok {
		return nil, false
	}
	return &identity, true
}

// bearerToken reads the Authorization header, falling back to the token cookie.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if !strings.HasPrefix(h, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if v, err := c.Cookie(tokenCookie); err == nil {
		return v
	}
	return ""
}
