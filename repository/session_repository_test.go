package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/streetkit/models"
	"github.com/yashrajoria/streetkit/repository"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func testSession() models.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return models.Session{
		SessionID: "sess-1",
		Identity:  models.Identity{ID: "id-1", Name: "Ravi Kumar", PhoneNumber: "+919876543210", Role: models.RoleVendor},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestRedisSessionStore_SaveGetDelete(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := repository.NewRedisSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession(), time.Hour))
	assert.True(t, mr.Exists("session:sess-1"))
	assert.Equal(t, time.Hour, mr.TTL("session:sess-1"))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", got.Identity.Name)
	assert.Equal(t, models.RoleVendor, got.Identity.Role)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestRedisSessionStore_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := repository.NewRedisSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession(), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestRedisSessionStore_CorruptValue(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := repository.NewRedisSessionStore(client)

	require.NoError(t, mr.Set("session:bad", "not-json"))
	_, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestRedisCodeStore(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := repository.NewRedisCodeStore(client)
	ctx := context.Background()
	phone := "+919876543210"

	_, err := store.GetCode(ctx, phone)
	assert.ErrorIs(t, err, repository.ErrCodeNotFound)

	n, err := store.IncrementAttempts(ctx, phone, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.SaveCode(ctx, phone, "hash", 5*time.Minute))
	assert.False(t, mr.Exists("otp_attempts:"+phone), "a new code resets attempts")
	hash, err := store.GetCode(ctx, phone)
	require.NoError(t, err)
	assert.Equal(t, "hash", hash)
	assert.Equal(t, 5*time.Minute, mr.TTL("otp:"+phone))

	n, _ = store.IncrementAttempts(ctx, phone, 5*time.Minute)
	assert.Equal(t, int64(1), n)
	n, _ = store.IncrementAttempts(ctx, phone, 5*time.Minute)
	assert.Equal(t, int64(2), n)

	require.NoError(t, store.DeleteCode(ctx, phone))
	assert.False(t, mr.Exists("otp:"+phone))
	assert.False(t, mr.Exists("otp_attempts:"+phone))
}

func TestMemorySessionStore(t *testing.T) {
	store := repository.NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession(), time.Hour))
	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.Identity.ID)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, testSession(), 0))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound, "zero ttl is already expired")
}
