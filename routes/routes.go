package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/streetkit/apperrors"
	"github.com/yashrajoria/streetkit/controllers"
	"github.com/yashrajoria/streetkit/middleware"
	"github.com/yashrajoria/streetkit/models"
	aws_pkg "github.com/yashrajoria/streetkit/pkg/aws"
	"go.uber.org/zap"
)

// Handlers are the controllers mounted by RegisterRoutes.
type Handlers struct {
	Auth    *controllers.AuthController
	Cart    *controllers.CartController
	Catalog *controllers.CatalogController
	Orders  *controllers.OrderController
	Views   *controllers.ViewController
}

// RouterConfig carries the cross-cutting middleware settings.
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *zap.Logger
	Metrics        aws_pkg.MetricsRecorder
	Limiter        *middleware.RateLimiter
}

// NewRouter builds the gin engine with the middleware chain and every route.
func NewRouter(cfg RouterConfig, h Handlers, sessions middleware.SessionResolver) *gin.Engine {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.MetricsMiddleware(cfg.Metrics, cfg.ServiceName))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.SecurityHeaders())
	if cfg.Limiter != nil {
		r.Use(middleware.RateLimitMiddleware(cfg.Limiter))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	RegisterRoutes(r, h, sessions)
	return r
}

// RegisterRoutes mounts the session, catalog, cart, order and view endpoints.
func RegisterRoutes(r gin.IRouter, h Handlers, sessions middleware.SessionResolver) {
	auth := middleware.AuthMiddleware(sessions)
	vendorOnly := middleware.RequireRoles(models.RoleVendor)

	session := r.Group("/session")
	{
		session.POST("/code", h.Auth.RequestCode)
		session.POST("", h.Auth.SignIn)
		session.POST("/register", h.Auth.Register)
		session.GET("", auth, h.Auth.Current)
		session.DELETE("", auth, h.Auth.SignOut)
		session.POST("/avatar", auth, h.Auth.PrepareAvatarUpload)
	}

	catalog := r.Group("/catalog")
	catalog.Use(auth)
	{
		catalog.GET("", h.Catalog.ListItems)
		catalog.GET("/:id", h.Catalog.GetItem)
	}

	cart := r.Group("/cart")
	cart.Use(auth, vendorOnly)
	{
		cart.GET("", h.Cart.GetCart)
		cart.DELETE("", h.Cart.ClearCart)
		cart.POST("/items", h.Cart.AddItem)
		cart.PUT("/items/:item_id", h.Cart.SetQuantity)
		cart.DELETE("/items/:item_id", h.Cart.RemoveItem)
		cart.GET("/notifications", h.Cart.Notifications)
	}

	orders := r.Group("/orders")
	orders.Use(auth, vendorOnly)
	{
		orders.POST("", h.Orders.PlaceOrder)
		orders.GET("", h.Orders.ListOrders)
	}

	views := r.Group("/views")
	views.Use(middleware.OptionalAuth(sessions))
	{
		views.GET("", h.Views.ListViews)
		views.GET("/resolve", h.Views.Resolve)
	}
}
