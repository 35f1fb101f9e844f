package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

const otpMaxAttempts = 5

// OTPManager issues and verifies one-time login codes stored in Redis.
type OTPManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOTPManager constructs an OTPManager.
func NewOTPManager(client *redis.Client, ttl time.Duration) *OTPManager {
	return &OTPManager{client: client, ttl: ttl}
}

// Issue generates a six-digit code for the email and stores it with a TTL.
// Re-issuing replaces the previous code and resets the attempt counter.
func (m *OTPManager) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("auth: generate otp: %w", err)
	}
	pipe := m.client.TxPipeline()
	pipe.Set(ctx, otpKey(email), code, m.ttl)
	pipe.Del(ctx, otpAttemptsKey(email))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("auth: store otp: %w", err)
	}
	return code, nil
}

// Verify checks the code for the email. The code is consumed on success.
// Each failed attempt is counted; past the cap the code is discarded.
func (m *OTPManager) Verify(ctx context.Context, email, code string) error {
	stored, err := m.client.Get(ctx, otpKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return shared.ErrOTPExpired
		}
		return fmt.Errorf("auth: load otp: %w", err)
	}
	if stored != code {
		attempts, err := m.client.Incr(ctx, otpAttemptsKey(email)).Result()
		if err == nil {
			m.client.Expire(ctx, otpAttemptsKey(email), m.ttl)
			if attempts >= otpMaxAttempts {
				m.client.Del(ctx, otpKey(email), otpAttemptsKey(email))
				return shared.ErrTooManyAttempts
			}
		}
		return shared.ErrOTPMismatch
	}
	m.client.Del(ctx, otpKey(email), otpAttemptsKey(email))
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func otpKey(email string) string {
	return "otp:" + email
}

func otpAttemptsKey(email string) string {
	return "otp:attempts:" + email
}
