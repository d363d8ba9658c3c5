package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/streetkit/apperrors"
	"github.com/yashrajoria/streetkit/services"
)

type OrderController struct {
	orders services.OrderService
}

func NewOrderController(orders services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// PlaceOrder submits the caller's cart and returns the confirmation.
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	confirmation, err := oc.orders.PlaceOrder(c.Request.Context(), *session)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, confirmation)
}

func (oc *OrderController) ListOrders(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": oc.orders.ListOrders(c.Request.Context(), session.SessionID)})
}
