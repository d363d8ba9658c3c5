package services

import (
	"context"
	"errors"
	"sync"

	"github.com/yashrajoria/streetkit/models"
)

var ErrNoAuthenticator = errors.New("session guard has no authenticator")

// SessionState is either Anonymous or Authenticated.
type SessionState int

const (
	Anonymous SessionState = iota
	Authenticated
)

func (s SessionState) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Credentials is what a client presents to sign in.
type Credentials struct {
	PhoneNumber string
	Code        string
}

// Authenticator checks credentials and returns the matching identity.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (models.Identity, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, creds Credentials) (models.Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, creds Credentials) (models.Identity, error) {
	return f(ctx, creds)
}

// SessionGuard holds at most one identity for a client and answers role checks against it.
type SessionGuard struct {
	mu       sync.RWMutex
	auth     Authenticator
	identity *models.Identity
}

// NewSessionGuard returns an Anonymous guard that signs in through auth.
func NewSessionGuard(auth Authenticator) *SessionGuard {
	return &SessionGuard{auth: auth}
}

// RestoreSessionGuard returns an Authenticated guard for an identity recovered from the session echo.
func RestoreSessionGuard(identity models.Identity) *SessionGuard {
	return &SessionGuard{identity: &identity}
}

// SignIn authenticates creds. Any failure, including a missing authenticator,
// leaves the guard Anonymous even if it was Authenticated before.
func (g *SessionGuard) SignIn(ctx context.Context, creds Credentials) (models.Identity, error) {
	if g.auth == nil {
		g.SignOut()
		return models.Identity{}, ErrNoAuthenticator
	}
	identity, err := g.auth.Authenticate(ctx, creds)
	if err != nil {
		g.SignOut()
		return models.Identity{}, err
	}
	g.mu.Lock()
	g.identity = &identity
	g.mu.Unlock()
	return identity, nil
}

func (g *SessionGuard) SignOut() {
	g.mu.Lock()
	g.identity = nil
	g.mu.Unlock()
}

func (g *SessionGuard) State() SessionState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.identity == nil {
		return Anonymous
	}
	return Authenticated
}

// Current returns the signed-in identity, if any.
func (g *SessionGuard) Current() (models.Identity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.identity == nil {
		return models.Identity{}, false
	}
	return *g.identity, true
}

// Allows reports whether the current identity may see a resource gated by allowedRoles.
// Anonymous callers only pass public (empty) role sets.
func (g *SessionGuard) Allows(allowedRoles []models.Role) bool {
	if len(allowedRoles) == 0 {
		return true
	}
	identity, ok := g.Current()
	return ok && IsAuthorized(identity, allowedRoles)
}

// IsAuthorized is a pure membership check of the identity's role in allowedRoles.
// An empty set is public.
func IsAuthorized(identity models.Identity, allowedRoles []models.Role) bool {
	if len(allowedRoles) == 0 {
		return true
	}
	for _, r := range allowedRoles {
		if identity.Role == r {
			return true
		}
	}
	return false
}
