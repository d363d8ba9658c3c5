package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/streetkit/apperrors"
	"github.com/yashrajoria/streetkit/middleware"
	"github.com/yashrajoria/streetkit/models"
	"github.com/yashrajoria/streetkit/services"
	"go.uber.org/zap"
)

const tokenCookie = "token"

type AuthController struct {
	service services.AuthService
	logger  *zap.Logger
	secure  bool
}

// NewAuthController creates an AuthController. secure marks the token cookie Secure.
func NewAuthController(service services.AuthService, logger *zap.Logger, secure bool) *AuthController {
	return &AuthController{service: service, logger: logger, secure: secure}
}

// RequestCode sends a one-time sign-in code to the phone number.
func (ac *AuthController) RequestCode(c *gin.Context) {
	var req models.RequestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Enter a valid phone number"})
		return
	}
	if err := ac.service.RequestCode(c.Request.Context(), req.PhoneNumber); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Code sent"})
}

func (ac *AuthController) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone_number and code are required"})
		return
	}
	resp, err := ac.service.SignIn(c.Request.Context(), req.PhoneNumber, req.Code)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	ac.setTokenCookie(c, resp)
	c.JSON(http.StatusOK, resp)
}

func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ac.logger.Debug("[Register] Invalid payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration details"})
		return
	}
	resp, err := ac.service.Register(c.Request.Context(), req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	ac.setTokenCookie(c, resp)
	c.JSON(http.StatusCreated, resp)
}

// Current returns the caller's session.
func (ac *AuthController) Current(c *gin.Context) {
	session, err := middleware.GetSession(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (ac *AuthController) SignOut(c *gin.Context) {
	session, err := middleware.GetSession(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := ac.service.SignOut(c.Request.Context(), session.SessionID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	middleware.GetGuard(c).SignOut()
	c.SetCookie(tokenCookie, "", -1, "/", "", ac.secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// PrepareAvatarUpload returns a presigned URL the client PUTs its avatar image to.
func (ac *AuthController) PrepareAvatarUpload(c *gin.Context) {
	session, err := middleware.GetSession(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var req models.AvatarUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_type is required"})
		return
	}
	resp, err := ac.service.PrepareAvatarUpload(c.Request.Context(), *session, req.ContentType)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (ac *AuthController) setTokenCookie(c *gin.Context, resp *models.SignInResponse) {
	maxAge := int(resp.Session.ExpiresAt.Sub(resp.Session.IssuedAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, resp.Token, maxAge, "/", "", ac.secure, true)
}
