package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/streetkit/middleware"
	"github.com/yashrajoria/streetkit/models"
)

// ViewResolver decides dashboard navigation for a caller.
type ViewResolver interface {
	Resolve(path string, identity *models.Identity) models.RouteDecision
	Visible(identity *models.Identity) []models.ViewRoute
}

type ViewController struct {
	views ViewResolver
}

func NewViewController(views ViewResolver) *ViewController {
	return &ViewController{views: views}
}

// ListViews returns the views the caller may open. Anonymous callers get the public ones.
func (vc *ViewController) ListViews(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"routes": vc.views.Visible(currentIdentity(c))})
}

// Resolve handles GET /views/resolve?path=.
func (vc *ViewController) Resolve(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	c.JSON(http.StatusOK, vc.views.Resolve(path, currentIdentity(c)))
}

// currentIdentity is nil for Anonymous callers.
func currentIdentity(c *gin.Context) *models.Identity {
	identity, ok := middleware.GetGuard(c).Current()
	if !ok {
		return nil
	}
	return &identity
}
