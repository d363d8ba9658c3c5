package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/yashrajoria/streetkit/database"
	aws_pkg "github.com/yashrajoria/streetkit/pkg/aws"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"

	GatewaySimulated = "simulated"
	GatewayQueue     = "queue"

	OTPSimulated = "simulated"
	OTPVerified  = "verified"
)

// Config holds all environment variables for the streetkit service.
type Config struct {
	Env            string
	Port           string
	ServiceName    string
	JWTSecret      string
	AccessTokenTTL time.Duration
	AllowedOrigins []string
	RequestTimeout time.Duration

	// RedisURL enables the Redis session and code stores; empty keeps them in memory.
	RedisURL string

	IdentityBackend string
	Postgres        database.PostgresConfig

	CatalogBackend string
	CatalogTable   string

	OrderGateway   string
	OrderQueueURL  string
	OrderQueueName string
	OrderDelay     time.Duration
	DeliveryLead   time.Duration

	OTPMode string
	OTPTTL  time.Duration

	CartEventsTopicArn string
	AvatarBucket       string

	CloudWatchLogsEnabled bool
	CloudWatchLogGroup    string
	MetricsEnabled        bool
	MetricsNamespace      string

	RateLimitPerMinute    int
	RateLimitBurst        int
	CodeRequestsPerMinute int

	AWSUseSecrets bool
	SecretName    string
}

// fetchSecrets reads the service secret map. Replaced in tests.
var fetchSecrets = func(ctx context.Context, name string) (map[string]string, error) {
	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return aws_pkg.NewSecretsClient(awsCfg).GetSecretMap(ctx, name)
}

// LoadConfig loads .env (when present) and the environment into Config and validates it.
// If AWS_USE_SECRETS=true, JWT_SECRET and POSTGRES_PASSWORD are read from Secrets Manager,
// falling back to env vars on failure.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		ServiceName:    getEnv("SERVICE_NAME", "streetkit"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		RedisURL:       os.Getenv("REDIS_URL"),

		IdentityBackend: getEnv("IDENTITY_BACKEND", BackendMemory),
		Postgres: database.PostgresConfig{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),
		},

		CatalogBackend: getEnv("CATALOG_BACKEND", BackendMemory),
		CatalogTable:   getEnv("CATALOG_TABLE", "streetkit-catalog"),

		OrderGateway:   getEnv("ORDER_GATEWAY", GatewaySimulated),
		OrderQueueURL:  os.Getenv("ORDER_QUEUE_URL"),
		OrderQueueName: os.Getenv("ORDER_QUEUE_NAME"),

		OTPMode: getEnv("OTP_MODE", OTPSimulated),

		CartEventsTopicArn: os.Getenv("CART_EVENTS_TOPIC_ARN"),
		AvatarBucket:       os.Getenv("AVATAR_BUCKET"),

		CloudWatchLogGroup: getEnv("CLOUDWATCH_LOG_GROUP", "/streetkit/services"),
		MetricsNamespace:   getEnv("METRICS_NAMESPACE", "StreetKit"),

		SecretName: getEnv("AWS_SECRET_NAME", "streetkit/app"),
	}

	var err error
	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", "12h", &cfg.AccessTokenTTL},
		{"REQUEST_TIMEOUT", "30s", &cfg.RequestTimeout},
		{"ORDER_DELAY", "1500ms", &cfg.OrderDelay},
		{"DELIVERY_LEAD", "48h", &cfg.DeliveryLead},
		{"OTP_TTL", "5m", &cfg.OTPTTL},
	}
	for _, d := range durations {
		if *d.dest, err = time.ParseDuration(getEnv(d.key, d.def)); err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
	}

	bools := []struct {
		key  string
		dest *bool
	}{
		{"CLOUDWATCH_LOGS_ENABLED", &cfg.CloudWatchLogsEnabled},
		{"METRICS_ENABLED", &cfg.MetricsEnabled},
		{"AWS_USE_SECRETS", &cfg.AWSUseSecrets},
	}
	for _, b := range bools {
		if *b.dest, err = strconv.ParseBool(getEnv(b.key, "false")); err != nil {
			return nil, fmt.Errorf("%s: %w", b.key, err)
		}
	}

	ints := []struct {
		key  string
		def  string
		dest *int
	}{
		{"RATE_LIMIT_PER_MINUTE", "100", &cfg.RateLimitPerMinute},
		{"RATE_LIMIT_BURST", "50", &cfg.RateLimitBurst},
		{"CODE_REQUESTS_PER_MINUTE", "3", &cfg.CodeRequestsPerMinute},
	}
	for _, i := range ints {
		if *i.dest, err = strconv.Atoi(getEnv(i.key, i.def)); err != nil {
			return nil, fmt.Errorf("%s: %w", i.key, err)
		}
	}

	if cfg.AWSUseSecrets {
		if secrets, err := fetchSecrets(context.Background(), cfg.SecretName); err == nil {
			if v := secrets["JWT_SECRET"]; v != "" {
				cfg.JWTSecret = v
			}
			if v := secrets["POSTGRES_PASSWORD"]; v != "" {
				cfg.Postgres.Password = v
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.IdentityBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.DBName == "" {
			return fmt.Errorf("POSTGRES_HOST, POSTGRES_USER and POSTGRES_DB are required when IDENTITY_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("IDENTITY_BACKEND must be memory or postgres, got %q", c.IdentityBackend)
	}
	switch c.CatalogBackend {
	case BackendMemory, BackendDynamoDB:
	default:
		return fmt.Errorf("CATALOG_BACKEND must be memory or dynamodb, got %q", c.CatalogBackend)
	}
	switch c.OrderGateway {
	case GatewaySimulated:
	case GatewayQueue:
		if c.OrderQueueURL == "" && c.OrderQueueName == "" {
			return fmt.Errorf("ORDER_QUEUE_URL or ORDER_QUEUE_NAME is required when ORDER_GATEWAY=queue")
		}
	default:
		return fmt.Errorf("ORDER_GATEWAY must be simulated or queue, got %q", c.OrderGateway)
	}
	switch c.OTPMode {
	case OTPSimulated:
	case OTPVerified:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when OTP_MODE=verified")
		}
	default:
		return fmt.Errorf("OTP_MODE must be simulated or verified, got %q", c.OTPMode)
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 || c.CodeRequestsPerMinute <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSuffix(strings.TrimSpace(part), "/"); part != "" {
			out = append(out, part)
		}
	}
	return out
}
