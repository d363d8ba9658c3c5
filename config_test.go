package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.IdentityBackend)
	assert.Equal(t, BackendMemory, cfg.CatalogBackend)
	assert.Equal(t, GatewaySimulated, cfg.OrderGateway)
	assert.Equal(t, OTPSimulated, cfg.OTPMode)
	assert.Equal(t, 12*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.OrderDelay)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
	assert.False(t, cfg.MetricsEnabled)
	assert.False(t, needsAWS(cfg))
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"Missing Secret", map[string]string{}, "JWT_SECRET"},
		{"Unknown Identity Backend", map[string]string{"JWT_SECRET": "x", "IDENTITY_BACKEND": "mongo"}, "IDENTITY_BACKEND"},
		{"Postgres Without Host", map[string]string{"JWT_SECRET": "x", "IDENTITY_BACKEND": "postgres"}, "POSTGRES_HOST"},
		{"Queue Without URL", map[string]string{"JWT_SECRET": "x", "ORDER_GATEWAY": "queue"}, "ORDER_QUEUE_URL"},
		{"Verified OTP Without Redis", map[string]string{"JWT_SECRET": "x", "OTP_MODE": "verified"}, "REDIS_URL"},
		{"Bad Duration", map[string]string{"JWT_SECRET": "x", "ORDER_DELAY": "soon"}, "ORDER_DELAY"},
		{"Bad Bool", map[string]string{"JWT_SECRET": "x", "METRICS_ENABLED": "maybe"}, "METRICS_ENABLED"},
		{"Zero Burst", map[string]string{"JWT_SECRET": "x", "RATE_LIMIT_BURST": "0"}, "rate limits"},
		{"Negative Burst", map[string]string{"JWT_SECRET": "x", "RATE_LIMIT_BURST": "-5"}, "rate limits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig_SecretsOverride(t *testing.T) {
	orig := fetchSecrets
	t.Cleanup(func() { fetchSecrets = orig })

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("AWS_USE_SECRETS", "true")

	fetchSecrets = func(_ context.Context, name string) (map[string]string, error) {
		assert.Equal(t, "streetkit/app", name)
		return map[string]string{"JWT_SECRET": "from-secrets-manager"}, nil
	}
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-secrets-manager", cfg.JWTSecret)

	fetchSecrets = func(context.Context, string) (map[string]string, error) {
		return nil, errors.New("access denied")
	}
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret, "falls back to env")
}

func TestNeedsAWS(t *testing.T) {
	assert.True(t, needsAWS(&Config{CatalogBackend: BackendDynamoDB}))
	assert.True(t, needsAWS(&Config{AvatarBucket: "avatars"}))
	assert.False(t, needsAWS(&Config{CatalogBackend: BackendMemory, OrderGateway: GatewaySimulated, OTPMode: OTPSimulated}))
}

func TestBuildApp_InMemory(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ORDER_DELAY", "0s")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	a, err := buildApp(context.Background(), cfg, sdkaws.Config{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(zap.NewNop()) })

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"phone_number":"+919876543210","code":"654321"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestBuildApp_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_URL", "redis://"+mr.Addr())
	cfg, err := LoadConfig()
	require.NoError(t, err)

	a, err := buildApp(context.Background(), cfg, sdkaws.Config{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(zap.NewNop()) })

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(`{"phone_number":"+919876543211","code":"654321"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "session:"))
}
