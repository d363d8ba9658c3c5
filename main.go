package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/streetkit/logger"
	aws_pkg "github.com/yashrajoria/streetkit/pkg/aws"
	"go.uber.org/zap"
)

func main() {
	log.Println("Starting StreetKit Service...")

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	var awsCfg sdkaws.Config
	if needsAWS(cfg) {
		if awsCfg, err = aws_pkg.LoadAWSConfig(ctx); err != nil {
			log.Fatalf("Failed to load AWS config: %v", err)
		}
	}

	// --- CloudWatch Logs ---
	var cwWriter io.Writer
	if cfg.CloudWatchLogsEnabled {
		cw, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, cfg.ServiceName, true)
		if err != nil {
			log.Printf("CloudWatch logs client init failed (non-fatal): %v", err)
		} else {
			cwWriter = cw
		}
	}

	zlog, err := logger.New(cfg.Env, cwWriter)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	application, err := buildApp(ctx, cfg, awsCfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to start service", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           application.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("StreetKit Service started", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}
	application.Close(zlog)
	zlog.Info("Server exited cleanly")
}
