package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"inkpress/internal/model"
)

const (
	// VerifyCodePrefix is the key prefix for email verification codes
	VerifyCodePrefix = "verify:email:"

	// VerifyAttemptPrefix is the key prefix for wrong-guess counters
	VerifyAttemptPrefix = "verify:attempts:"

	// ResetTokenPrefix is the key prefix for password reset tokens
	ResetTokenPrefix = "reset:token:"
)

// MaxVerifyAttempts bounds wrong guesses per issued verification code. A
// mismatch keeps the code so a typo doesn't force a resend, but once the
// budget is spent the code is discarded to stop brute-forcing the 6 digits.
const MaxVerifyAttempts = 5

// CodeStore holds short-lived credentials: email verification codes and
// password reset tokens. Expiry is enforced by Redis TTL. A verification code
// survives mismatched guesses (up to MaxVerifyAttempts) and is deleted on
// success; reset tokens are single-use via a consuming read (GETDEL).
type CodeStore interface {
	// SetVerificationCode stores a fresh code and resets the attempt counter.
	SetVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error
	// GetVerificationCode returns the outstanding code without consuming it.
	// Returns model.ErrCodeNotFound if absent (never issued, consumed, or expired).
	GetVerificationCode(ctx context.Context, email string) (string, error)
	// ConsumeVerificationCode deletes the code and its attempt counter.
	ConsumeVerificationCode(ctx context.Context, email string) error
	// RecordFailedAttempt bumps the wrong-guess counter and returns the total.
	// The counter expires with the code's ttl.
	RecordFailedAttempt(ctx context.Context, email string, ttl time.Duration) (int64, error)

	SetResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error
	// TakeResetToken atomically reads and deletes the token, returning the user
	// it was issued for. Returns model.ErrTokenNotFound if absent.
	TakeResetToken(ctx context.Context, token string) (int64, error)
}

// RedisCodeStore implements CodeStore on Redis.
type RedisCodeStore struct {
	client *redis.Client
}

// NewCodeStore creates a CodeStore backed by Redis.
func NewCodeStore(client *redis.Client) CodeStore {
	return &RedisCodeStore{client: client}
}

func verifyKey(email string) string {
	return VerifyCodePrefix + email
}

func attemptKey(email string) string {
	return VerifyAttemptPrefix + email
}

func resetKey(token string) string {
	return ResetTokenPrefix + token
}

func (s *RedisCodeStore) SetVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, verifyKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("set verification code: %w", err)
	}
	if err := s.client.Del(ctx, attemptKey(email)).Err(); err != nil {
		return fmt.Errorf("reset attempt counter: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) GetVerificationCode(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, verifyKey(email)).Result()
	if err == redis.Nil {
		return "", model.ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get verification code: %w", err)
	}
	return code, nil
}

func (s *RedisCodeStore) ConsumeVerificationCode(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, verifyKey(email), attemptKey(email)).Err(); err != nil {
		return fmt.Errorf("consume verification code: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) RecordFailedAttempt(ctx context.Context, email string, ttl time.Duration) (int64, error) {
	attempts, err := s.client.Incr(ctx, attemptKey(email)).Result()
	if err != nil {
		return 0, fmt.Errorf("record failed attempt: %w", err)
	}
	if attempts == 1 {
		if err := s.client.Expire(ctx, attemptKey(email), ttl).Err(); err != nil {
			return attempts, fmt.Errorf("expire attempt counter: %w", err)
		}
	}
	return attempts, nil
}

func (s *RedisCodeStore) SetResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetKey(token), strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) TakeResetToken(ctx context.Context, token string) (int64, error) {
	val, err := s.client.GetDel(ctx, resetKey(token)).Result()
	if err == redis.Nil {
		return 0, model.ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("take reset token: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse reset token value: %w", err)
	}
	return userID, nil
}
