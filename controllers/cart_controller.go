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

// NotificationFeed serves the toasts produced by cart events.
type NotificationFeed interface {
	Recent(sessionID string) []models.Notification
}

type CartController struct {
	carts  services.CartService
	feed   NotificationFeed
	logger *zap.Logger
}

func NewCartController(carts services.CartService, feed NotificationFeed, logger *zap.Logger) *CartController {
	return &CartController{carts: carts, feed: feed, logger: logger}
}

// GetCart returns the caller's cart with derived totals.
func (cc *CartController) GetCart(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cc.carts.GetCart(c.Request.Context(), session.SessionID))
}

// AddItem adds one unit of a catalog item.
func (cc *CartController) AddItem(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		cc.logger.Debug("[AddItem] Invalid payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
		return
	}
	line, cart, err := cc.carts.AddItem(c.Request.Context(), session.SessionID, req.ItemID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line, "cart": cart})
}

// SetQuantity sets a line's quantity; zero or less removes it.
func (cc *CartController) SetQuantity(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req models.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		cc.logger.Debug("[SetQuantity] Invalid payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}
	cart, err := cc.carts.SetQuantity(c.Request.Context(), session.SessionID, c.Param("item_id"), *req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem deletes a line. Removing an absent line is not an error.
func (cc *CartController) RemoveItem(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	removed, cart := cc.carts.RemoveItem(c.Request.Context(), session.SessionID, c.Param("item_id"))
	c.JSON(http.StatusOK, gin.H{"removed": removed, "cart": cart})
}

func (cc *CartController) ClearCart(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cc.carts.ClearCart(c.Request.Context(), session.SessionID))
}

// Notifications returns the session's recent cart toasts, newest first.
func (cc *CartController) Notifications(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": cc.feed.Recent(session.SessionID)})
}

func sessionOrAbort(c *gin.Context) (*models.Session, bool) {
	session, err := middleware.GetSession(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	return session, true
}
