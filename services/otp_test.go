package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/streetkit/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type mockSMSSender struct {
	sent []string
	err  error
}

func (m *mockSMSSender) SendSMS(_ context.Context, phone, message string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, phone+"|"+message)
	return nil
}

func newTestVerifier(t *testing.T, sender *mockSMSSender) (*StoredCodeVerifier, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	v := NewStoredCodeVerifier(repository.NewRedisCodeStore(client), sender, 5*time.Minute, zap.NewNop())
	v.cost = bcrypt.MinCost
	v.generate = func() (string, error) { return "482913", nil }
	return v, mr
}

func TestValidCodeFormat(t *testing.T) {
	assert.True(t, ValidCodeFormat("000000"))
	assert.True(t, ValidCodeFormat("123456"))
	assert.False(t, ValidCodeFormat("12345"))
	assert.False(t, ValidCodeFormat("1234567"))
	assert.False(t, ValidCodeFormat("12a456"))
	assert.False(t, ValidCodeFormat(""))
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.True(t, ValidCodeFormat(code), code)
	}
}

func TestSimulatedCodeVerifier(t *testing.T) {
	v := NewSimulatedCodeVerifier(zap.NewNop())
	ctx := context.Background()

	assert.NoError(t, v.Issue(ctx, "+919876543210"))
	assert.NoError(t, v.Verify(ctx, "+919876543210", "999999"))
	assert.ErrorIs(t, v.Verify(ctx, "+919876543210", "99999"), ErrMalformedCode)
}

func TestStoredCodeVerifier_IssueAndVerify(t *testing.T) {
	sender := &mockSMSSender{}
	v, mr := newTestVerifier(t, sender)
	ctx := context.Background()
	phone := "+919876543210"

	require.NoError(t, v.Issue(ctx, phone))
	require.Len(t, sender.sent, 1)
	assert.True(t, strings.Contains(sender.sent[0], "482913"))

	stored, err := mr.Get("otp:" + phone)
	require.NoError(t, err)
	assert.NotEqual(t, "482913", stored, "only the hash is stored")

	assert.ErrorIs(t, v.Verify(ctx, phone, "111111"), ErrInvalidCode)
	assert.NoError(t, v.Verify(ctx, phone, "482913"))
	assert.ErrorIs(t, v.Verify(ctx, phone, "482913"), ErrInvalidCode, "codes are single use")
}

func TestStoredCodeVerifier_Expiry(t *testing.T) {
	v, mr := newTestVerifier(t, &mockSMSSender{})
	ctx := context.Background()

	require.NoError(t, v.Issue(ctx, "+919876543210"))
	mr.FastForward(6 * time.Minute)

	assert.ErrorIs(t, v.Verify(ctx, "+919876543210", "482913"), ErrInvalidCode)
}

func TestStoredCodeVerifier_TooManyAttempts(t *testing.T) {
	v, _ := newTestVerifier(t, &mockSMSSender{})
	ctx := context.Background()
	phone := "+919876543210"
	require.NoError(t, v.Issue(ctx, phone))

	for i := 0; i < 4; i++ {
		assert.ErrorIs(t, v.Verify(ctx, phone, "000000"), ErrInvalidCode)
	}
	assert.ErrorIs(t, v.Verify(ctx, phone, "000000"), ErrTooManyAttempts)
	assert.ErrorIs(t, v.Verify(ctx, phone, "482913"), ErrInvalidCode, "code is burned after lockout")
}

func TestStoredCodeVerifier_DeliveryFailureDropsCode(t *testing.T) {
	v, mr := newTestVerifier(t, &mockSMSSender{err: errors.New("sns down")})

	assert.Error(t, v.Issue(context.Background(), "+919876543210"))
	assert.False(t, mr.Exists("otp:+919876543210"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "******3210", maskPhone("+919876543210"))
	assert.Equal(t, "****", maskPhone("12"))
}
