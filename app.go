package main

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yashrajoria/streetkit/controllers"
	"github.com/yashrajoria/streetkit/database"
	"github.com/yashrajoria/streetkit/middleware"
	"github.com/yashrajoria/streetkit/models"
	aws_pkg "github.com/yashrajoria/streetkit/pkg/aws"
	ddb "github.com/yashrajoria/streetkit/pkg/dynamodb"
	"github.com/yashrajoria/streetkit/repository"
	"github.com/yashrajoria/streetkit/routes"
	"github.com/yashrajoria/streetkit/services"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// app is the wired service plus everything that must be released on shutdown.
type app struct {
	router *gin.Engine
	redis  *redis.Client
	db     *gorm.DB
	stop   chan struct{}
}

func (a *app) Close(log *zap.Logger) {
	close(a.stop)
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if err := database.Close(a.db); err != nil {
		log.Warn("Failed to close postgres", zap.Error(err))
	}
}

// needsAWS reports whether any configured component talks to AWS.
func needsAWS(cfg *Config) bool {
	return cfg.CatalogBackend == BackendDynamoDB ||
		cfg.OrderGateway == GatewayQueue ||
		cfg.OTPMode == OTPVerified ||
		cfg.CartEventsTopicArn != "" ||
		cfg.AvatarBucket != "" ||
		cfg.MetricsEnabled ||
		cfg.CloudWatchLogsEnabled
}

// buildApp wires repositories, services, controllers and routes according to cfg.
// awsCfg is only read when needsAWS(cfg) is true.
func buildApp(ctx context.Context, cfg *Config, awsCfg sdkaws.Config, log *zap.Logger) (*app, error) {
	a := &app{stop: make(chan struct{})}

	if err := middleware.RegisterValidators(); err != nil {
		return nil, err
	}

	// Session echo and one-time codes
	var sessions repository.SessionStore = repository.NewMemorySessionStore()
	var codeStore repository.CodeStore
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.redis = client
		sessions = repository.NewRedisSessionStore(client)
		codeStore = repository.NewRedisCodeStore(client)
		log.Info("Redis session store enabled")
	}

	// Identity directory
	var identities repository.IdentityRepository
	switch cfg.IdentityBackend {
	case BackendPostgres:
		db, err := database.Connect(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.db = db
		if cfg.Env != "production" {
			if err := db.AutoMigrate(&models.Identity{}); err != nil {
				return nil, fmt.Errorf("migration failed: %w", err)
			}
		}
		identities = repository.NewGormIdentityRepository(db)
	default:
		identities = repository.NewMemoryIdentityRepository(repository.DemoIdentities()...)
	}

	// Catalog
	var catalogRepo repository.CatalogRepository
	switch cfg.CatalogBackend {
	case BackendDynamoDB:
		client := ddb.NewClientFromConfig(awsCfg)
		if err := ddb.CheckTable(ctx, client, cfg.CatalogTable); err != nil {
			return nil, err
		}
		catalogRepo = repository.NewDynamoCatalogRepository(client, cfg.CatalogTable)
	default:
		catalogRepo = repository.NewMemoryCatalogRepository(repository.DemoCatalog()...)
	}
	catalog := services.NewCatalogService(catalogRepo, log)

	// Metrics and cart event fan-out
	var metrics aws_pkg.MetricsRecorder
	if cfg.MetricsEnabled {
		metrics = aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, true)
	}
	var sns *aws_pkg.SNSClient
	if cfg.CartEventsTopicArn != "" || cfg.OTPMode == OTPVerified {
		sns = aws_pkg.NewSNSClient(awsCfg)
	}

	feed := services.NewToastFeed(20)
	listeners := services.MultiListener{feed}
	if metrics != nil {
		listeners = append(listeners, services.NewMetricsCartListener(metrics, cfg.ServiceName))
	}
	if cfg.CartEventsTopicArn != "" {
		listeners = append(listeners, services.NewSNSCartPublisher(sns, cfg.CartEventsTopicArn, log))
	}
	carts := services.NewCartService(catalog, listeners, log)

	// Orders
	var gateway services.OrderGateway
	switch cfg.OrderGateway {
	case GatewayQueue:
		queueURL := cfg.OrderQueueURL
		if queueURL == "" {
			url, err := aws_pkg.GetQueueURL(ctx, awsCfg, cfg.OrderQueueName)
			if err != nil {
				return nil, err
			}
			queueURL = url
		}
		gateway = services.NewQueueGateway(aws_pkg.NewSQSProducer(awsCfg, queueURL), services.RealClock(), cfg.DeliveryLead)
	default:
		gateway = services.NewSimulatedGateway(services.RealClock(), cfg.OrderDelay, cfg.DeliveryLead)
	}
	orders := services.NewOrderService(carts, gateway, metrics, log)

	// Sign-in
	tokens, err := services.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	var codes services.CodeVerifier = services.NewSimulatedCodeVerifier(log)
	if cfg.OTPMode == OTPVerified {
		codes = services.NewStoredCodeVerifier(codeStore, sns, cfg.OTPTTL, log)
	}
	var avatars aws_pkg.UploadPresigner
	if cfg.AvatarBucket != "" {
		avatars = aws_pkg.NewS3Presigner(awsCfg, cfg.AvatarBucket)
	}

	codeLimiter := middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(cfg.CodeRequestsPerMinute)), cfg.CodeRequestsPerMinute, 10*time.Minute)
	httpLimiter := middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(cfg.RateLimitPerMinute)), cfg.RateLimitBurst, 5*time.Minute)
	go codeLimiter.RunSweeper(a.stop)
	go httpLimiter.RunSweeper(a.stop)
	janitor := services.NewSessionJanitor(log, carts.DiscardCart, feed.Discard, orders.DiscardOrders)
	go janitor.Run(a.stop, time.Minute)

	auth := services.NewAuthService(services.AuthDeps{
		Identities:  identities,
		Sessions:    sessions,
		Codes:       codes,
		Tokens:      tokens,
		CodeLimiter: codeLimiter,
		Avatars:     avatars,
		Metrics:     metrics,
		Janitor:     janitor,
		Logger:      log,
	})

	handlers := routes.Handlers{
		Auth:    controllers.NewAuthController(auth, log, cfg.Env == "production"),
		Cart:    controllers.NewCartController(carts, feed, log),
		Catalog: controllers.NewCatalogController(catalog),
		Orders:  controllers.NewOrderController(orders),
		Views:   controllers.NewViewController(services.NewViewRouter(services.DashboardRoutes)),
	}
	a.router = routes.NewRouter(routes.RouterConfig{
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
		Metrics:        metrics,
		Limiter:        httpLimiter,
	}, handlers, auth)

	log.Info("Service wired",
		zap.String("identity_backend", cfg.IdentityBackend),
		zap.String("catalog_backend", cfg.CatalogBackend),
		zap.String("order_gateway", cfg.OrderGateway),
		zap.String("otp_mode", cfg.OTPMode))
	return a, nil
}
