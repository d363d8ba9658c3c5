package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/streetkit/apperrors"
	"github.com/yashrajoria/streetkit/logger"
	"github.com/yashrajoria/streetkit/models"
	aws_pkg "github.com/yashrajoria/streetkit/pkg/aws"
	"github.com/yashrajoria/streetkit/repository"
	"go.uber.org/zap"
)

// Limiter decides whether one more request for key is allowed now.
type Limiter interface {
	Allow(key string) bool
}

// AuthService signs clients in and out and resolves their sessions.
type AuthService interface {
	RequestCode(ctx context.Context, phone string) error
	SignIn(ctx context.Context, phone, code string) (*models.SignInResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.SignInResponse, error)
	SignOut(ctx context.Context, sessionID string) error
	ResolveSession(ctx context.Context, token string) (*models.Session, error)
	PrepareAvatarUpload(ctx context.Context, session models.Session, contentType string) (*models.AvatarUploadResponse, error)
}

// AuthDeps groups the collaborators of the auth service.
type AuthDeps struct {
	Identities  repository.IdentityRepository
	Sessions    repository.SessionStore
	Codes       CodeVerifier
	Tokens      *TokenService
	CodeLimiter Limiter
	Avatars     aws_pkg.UploadPresigner
	Metrics     aws_pkg.MetricsRecorder
	// Janitor releases per-session state when a session is signed out, found gone or expires.
	Janitor *SessionJanitor
	Logger  *zap.Logger
}

type authServiceImpl struct {
	AuthDeps
}

func NewAuthService(deps AuthDeps) AuthService {
	if deps.Janitor == nil {
		deps.Janitor = NewSessionJanitor(deps.Logger)
	}
	return &authServiceImpl{AuthDeps: deps}
}

func (s *authServiceImpl) RequestCode(ctx context.Context, phone string) error {
	phone = models.NormalizePhone(phone)
	if !models.ValidPhoneNumber(phone) {
		return apperrors.BadRequest("Enter a valid phone number")
	}
	if s.CodeLimiter != nil && !s.CodeLimiter.Allow(phone) {
		return apperrors.TooManyRequests("Too many code requests, please wait a minute")
	}
	if err := s.Codes.Issue(ctx, phone); err != nil {
		logger.For(ctx, s.Logger).Error("Failed to issue sign-in code", zap.Error(err))
		return apperrors.Upstream("Could not send the code, please try again", err)
	}
	return nil
}

// Authenticate verifies the one-time code and looks the phone up in the directory.
func (s *authServiceImpl) Authenticate(ctx context.Context, creds Credentials) (models.Identity, error) {
	phone := models.NormalizePhone(creds.PhoneNumber)
	if !models.ValidPhoneNumber(phone) {
		return models.Identity{}, apperrors.BadRequest("Enter a valid phone number")
	}

	if err := s.Codes.Verify(ctx, phone, strings.TrimSpace(creds.Code)); err != nil {
		switch {
		case errors.Is(err, ErrMalformedCode):
			return models.Identity{}, apperrors.New(http.StatusBadRequest, "Enter the 6-digit code", err)
		case errors.Is(err, ErrInvalidCode):
			return models.Identity{}, apperrors.New(http.StatusUnauthorized, "Invalid or expired code", err)
		case errors.Is(err, ErrTooManyAttempts):
			return models.Identity{}, apperrors.New(http.StatusTooManyRequests, "Too many attempts, request a new code", err)
		}
		return models.Identity{}, apperrors.Internal("Could not verify code", err)
	}

	identity, err := s.Identities.FindByPhone(ctx, phone)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return models.Identity{}, apperrors.New(http.StatusNotFound, "No account for this phone number, please register", err)
	}
	if err != nil {
		return models.Identity{}, apperrors.Internal("Could not load account", err)
	}
	return *identity, nil
}

func (s *authServiceImpl) SignIn(ctx context.Context, phone, code string) (*models.SignInResponse, error) {
	guard := NewSessionGuard(s)
	identity, err := guard.SignIn(ctx, Credentials{PhoneNumber: phone, Code: code})
	if err != nil {
		return nil, err
	}
	resp, err := s.startSession(ctx, identity)
	if err != nil {
		return nil, err
	}
	recordAsync(s.Metrics, aws_pkg.MetricSignIns)
	logger.For(ctx, s.Logger).Info("Signed in",
		zap.String("identity_id", identity.ID),
		zap.String("role", string(identity.Role)),
		zap.String("session_id", resp.Session.SessionID))
	return resp, nil
}

func (s *authServiceImpl) Register(ctx context.Context, req models.RegisterRequest) (*models.SignInResponse, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 {
		return nil, apperrors.BadRequest("Name must be at least 2 characters")
	}
	phone := models.NormalizePhone(req.PhoneNumber)
	if !models.ValidPhoneNumber(phone) {
		return nil, apperrors.BadRequest("Enter a valid phone number")
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, apperrors.BadRequest("Unknown role")
	}

	identity := &models.Identity{
		ID:          uuid.NewString(),
		Name:        name,
		PhoneNumber: phone,
		Role:        role,
		Location:    strings.TrimSpace(req.Location),
	}
	if err := s.Identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return nil, apperrors.New(http.StatusConflict, "Phone number is already registered", err)
		}
		logger.For(ctx, s.Logger).Error("Failed to create identity", zap.Error(err))
		return nil, apperrors.Internal("Could not create account", err)
	}

	resp, err := s.startSession(ctx, *identity)
	if err != nil {
		return nil, err
	}
	recordAsync(s.Metrics, aws_pkg.MetricRegistrations)
	logger.For(ctx, s.Logger).Info("Registered",
		zap.String("identity_id", identity.ID),
		zap.String("role", string(identity.Role)))
	return resp, nil
}

func (s *authServiceImpl) startSession(ctx context.Context, identity models.Identity) (*models.SignInResponse, error) {
	session := s.Tokens.NewSession(uuid.NewString(), identity)
	token, err := s.Tokens.GenerateAccessToken(session)
	if err != nil {
		return nil, apperrors.Internal("Could not issue token", err)
	}
	if err := s.Sessions.Save(ctx, session, s.Tokens.AccessTTL()); err != nil {
		logger.For(ctx, s.Logger).Error("Failed to save session", zap.Error(err))
		return nil, apperrors.Internal("Could not start session", err)
	}
	s.Janitor.Track(session.SessionID, session.ExpiresAt)
	return &models.SignInResponse{Token: token, Session: session}, nil
}

func (s *authServiceImpl) SignOut(ctx context.Context, sessionID string) error {
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		logger.For(ctx, s.Logger).Error("Failed to delete session", zap.String("session_id", sessionID), zap.Error(err))
		return apperrors.Internal("Could not sign out", err)
	}
	s.Janitor.Release(sessionID)
	return nil
}

func (s *authServiceImpl) ResolveSession(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.Tokens.ValidateToken(token)
	if err != nil {
		return nil, apperrors.New(http.StatusUnauthorized, "Invalid or expired token", err)
	}
	session, err := s.Sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		s.Janitor.Release(claims.SessionID)
		return nil, apperrors.New(http.StatusUnauthorized, "Session has ended, please sign in again", err)
	}
	if err != nil {
		return nil, apperrors.Internal("Could not load session", err)
	}
	if session.Identity.ID != claims.IdentityID {
		return nil, apperrors.Unauthorized("Token does not match session")
	}
	return session, nil
}

var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

func (s *authServiceImpl) PrepareAvatarUpload(ctx context.Context, session models.Session, contentType string) (*models.AvatarUploadResponse, error) {
	if s.Avatars == nil {
		return nil, apperrors.New(http.StatusServiceUnavailable, "Avatar uploads are not enabled", nil)
	}
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, apperrors.BadRequest("content_type must be image/jpeg, image/png or image/webp")
	}

	ref := "avatars/" + session.Identity.ID + "/" + uuid.NewString() + "." + ext
	url, headers, err := s.Avatars.PresignPut(ctx, ref, contentType, 15*time.Minute)
	if err != nil {
		logger.For(ctx, s.Logger).Error("Failed to presign avatar upload", zap.Error(err))
		return nil, apperrors.Upstream("Could not prepare upload", err)
	}
	if err := s.Identities.UpdateAvatar(ctx, session.Identity.ID, ref); err != nil {
		return nil, apperrors.Internal("Could not record avatar", err)
	}

	session.Identity.AvatarRef = ref
	if ttl := time.Until(session.ExpiresAt); ttl > 0 {
		if err := s.Sessions.Save(ctx, session, ttl); err != nil {
			logger.For(ctx, s.Logger).Warn("Failed to refresh session echo", zap.Error(err))
		}
	}
	return &models.AvatarUploadResponse{UploadURL: url, Headers: headers, AvatarRef: ref}, nil
}
