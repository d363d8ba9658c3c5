package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	aws_pkg "github.com/yashrajoria/streetkit/pkg/aws"
	"github.com/yashrajoria/streetkit/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits in a one-time code.
const CodeLength = 6

var (
	ErrMalformedCode   = errors.New("code must be exactly 6 digits")
	ErrInvalidCode     = errors.New("invalid or expired code")
	ErrTooManyAttempts = errors.New("too many failed attempts")
)

// CodeVerifier issues and checks one-time sign-in codes.
type CodeVerifier interface {
	Issue(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, code string) error
}

// ValidCodeFormat reports whether code is exactly CodeLength ASCII digits.
func ValidCodeFormat(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// GenerateCode returns a uniformly random CodeLength-digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// SimulatedCodeVerifier accepts any well-formed code and delivers nothing.
type SimulatedCodeVerifier struct {
	logger *zap.Logger
}

func NewSimulatedCodeVerifier(logger *zap.Logger) *SimulatedCodeVerifier {
	return &SimulatedCodeVerifier{logger: logger}
}

func (v *SimulatedCodeVerifier) Issue(_ context.Context, phone string) error {
	v.logger.Debug("Simulated code requested", zap.String("phone", maskPhone(phone)))
	return nil
}

func (v *SimulatedCodeVerifier) Verify(_ context.Context, _ string, code string) error {
	if !ValidCodeFormat(code) {
		return ErrMalformedCode
	}
	return nil
}

// StoredCodeVerifier keeps a bcrypt hash of the issued code and sends the code by SMS.
type StoredCodeVerifier struct {
	store       repository.CodeStore
	sender      aws_pkg.SMSSender
	ttl         time.Duration
	maxAttempts int64
	cost        int
	generate    func() (string, error)
	logger      *zap.Logger
}

func NewStoredCodeVerifier(store repository.CodeStore, sender aws_pkg.SMSSender, ttl time.Duration, logger *zap.Logger) *StoredCodeVerifier {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StoredCodeVerifier{
		store:       store,
		sender:      sender,
		ttl:         ttl,
		maxAttempts: 5,
		cost:        bcrypt.DefaultCost,
		generate:    GenerateCode,
		logger:      logger,
	}
}

func (v *StoredCodeVerifier) Issue(ctx context.Context, phone string) error {
	code, err := v.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), v.cost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err := v.store.SaveCode(ctx, phone, string(hash), v.ttl); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	msg := fmt.Sprintf("Your StreetKit sign-in code is %s. It expires in %d minutes.", code, int(v.ttl.Minutes()))
	if err := v.sender.SendSMS(ctx, phone, msg); err != nil {
		_ = v.store.DeleteCode(ctx, phone)
		return fmt.Errorf("deliver code: %w", err)
	}
	v.logger.Info("Sign-in code sent", zap.String("phone", maskPhone(phone)))
	return nil
}

func (v *StoredCodeVerifier) Verify(ctx context.Context, phone, code string) error {
	if !ValidCodeFormat(code) {
		return ErrMalformedCode
	}
	hash, err := v.store.GetCode(ctx, phone)
	if errors.Is(err, repository.ErrCodeNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) != nil {
		attempts, err := v.store.IncrementAttempts(ctx, phone, v.ttl)
		if err != nil {
			return err
		}
		if attempts >= v.maxAttempts {
			_ = v.store.DeleteCode(ctx, phone)
			return ErrTooManyAttempts
		}
		return ErrInvalidCode
	}

	// Codes are single use.
	if err := v.store.DeleteCode(ctx, phone); err != nil {
		v.logger.Warn("Failed to delete used code", zap.Error(err))
	}
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "******" + phone[len(phone)-4:]
}
