package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/yashrajoria/streetkit/models"
)

const tokenTypeAccess = "access"

// SessionClaims is what a validated access token carries.
type SessionClaims struct {
	IdentityID string
	SessionID  string
	Role       models.Role
	ExpiresAt  time.Time
}

// TokenService is responsible for creating and validating JWTs.
type TokenService struct {
	secretKey []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenService fails when secret is empty; the service cannot run without one.
func NewTokenService(secret string, accessTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("JWT secret not configured")
	}
	if accessTTL <= 0 {
		accessTTL = 12 * time.Hour
	}
	return &TokenService{secretKey: []byte(secret), accessTTL: accessTTL, now: time.Now}, nil
}

// AccessTTL is the lifetime of issued access tokens and of the session echo.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// GenerateAccessToken signs an access token bound to session.
func (s *TokenService) GenerateAccessToken(session models.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub":   session.Identity.ID,
		"sid":   session.SessionID,
		"role":  string(session.Identity.Role),
		"name":  session.Identity.Name,
		"phone": session.Identity.PhoneNumber,
		"typ":   tokenTypeAccess,
		"exp":   session.ExpiresAt.Unix(),
		"iat":   session.IssuedAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken parses an access token and returns its session claims.
func (s *TokenService) ValidateToken(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if typ, _ := claims["typ"].(string); typ != tokenTypeAccess {
		return nil, fmt.Errorf("invalid token type")
	}

	sub, _ := claims["sub"].(string)
	sid, _ := claims["sid"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || sid == "" {
		return nil, fmt.Errorf("token is missing subject or session")
	}
	out := &SessionClaims{IdentityID: sub, SessionID: sid, Role: models.Role(role)}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, nil
}

// NewSession builds a session for identity starting now.
func (s *TokenService) NewSession(sessionID string, identity models.Identity) models.Session {
	now := s.now().UTC().Truncate(time.Second)
	return models.Session{
		SessionID: sessionID,
		Identity:  identity,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.accessTTL),
	}
}
