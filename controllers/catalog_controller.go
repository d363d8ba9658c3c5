package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/streetkit/apperrors"
	"github.com/yashrajoria/streetkit/models"
	"github.com/yashrajoria/streetkit/services"
)

type CatalogController struct {
	catalog services.CatalogService
}

func NewCatalogController(catalog services.CatalogService) *CatalogController {
	return &CatalogController{catalog: catalog}
}

// ListItems handles GET /catalog?kind=&category=.
func (cc *CatalogController) ListItems(c *gin.Context) {
	filter := models.CatalogFilter{
		Kind:     models.ItemKind(c.Query("kind")),
		Category: c.Query("category"),
	}
	items, err := cc.catalog.List(c.Request.Context(), filter)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (cc *CatalogController) GetItem(c *gin.Context) {
	item, err := cc.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
