package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkpress/internal/model"
)

func TestAuthService_GenerateTokenPair(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewAuthService(mockRepo, testConfig())

	pair, err := svc.GenerateTokenPair(context.Background(), 42)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if pair.ExpiresIn != 900 {
		t.Errorf("expires_in = %d, want 900", pair.ExpiresIn)
	}

	// The raw refresh token is never persisted, only its hash
	if len(mockRepo.setRefreshTokenCalls) != 1 {
		t.Fatalf("expected 1 SetRefreshToken call, got %d", len(mockRepo.setRefreshTokenCalls))
	}
	call := mockRepo.setRefreshTokenCalls[0]
	if call.TokenHash == nil || *call.TokenHash == pair.RefreshToken {
		t.Error("stored value must be a hash, not the raw token")
	}
	if call.ExpiresAt == nil || time.Until(*call.ExpiresAt) <= 0 {
		t.Error("expected a future expiry")
	}

	// The access token round-trips through validation
	userID, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if userID != 42 {
		t.Errorf("user id from token = %d, want 42", userID)
	}
}

func TestAuthService_RefreshTokens_RotatesPair(t *testing.T) {
	future := time.Now().Add(time.Hour)
	mockRepo := &mockUserRepository{
		getByRefreshTokenHashFn: func(ctx context.Context, tokenHash string) (*model.User, error) {
			return &model.User{ID: 42, RefreshExpiresAt: &future}, nil
		},
	}
	svc := NewAuthService(mockRepo, testConfig())

	pair, userID, err := svc.RefreshTokens(context.Background(), "some-raw-token")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if userID != 42 {
		t.Errorf("user id = %d, want 42", userID)
	}
	if pair.RefreshToken == "some-raw-token" {
		t.Error("refresh must rotate to a new token")
	}

	// Rotation overwrote the stored hash, invalidating the old token
	if len(mockRepo.setRefreshTokenCalls) != 1 {
		t.Fatalf("expected 1 SetRefreshToken call, got %d", len(mockRepo.setRefreshTokenCalls))
	}
}

func TestAuthService_RefreshTokens_Unknown(t *testing.T) {
	svc := NewAuthService(&mockUserRepository{}, testConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "unknown-token")
	if !errors.Is(err, model.ErrRefreshTokenNotFound) {
		t.Fatalf("expected ErrRefreshTokenNotFound, got: %v", err)
	}
}

func TestAuthService_RefreshTokens_Expired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	mockRepo := &mockUserRepository{
		getByRefreshTokenHashFn: func(ctx context.Context, tokenHash string) (*model.User, error) {
			return &model.User{ID: 42, RefreshExpiresAt: &past}, nil
		},
	}
	svc := NewAuthService(mockRepo, testConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "stale-token")
	if !errors.Is(err, model.ErrRefreshTokenExpired) {
		t.Fatalf("expected ErrRefreshTokenExpired, got: %v", err)
	}
}

func TestAuthService_RevokeRefreshToken(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByRefreshTokenHashFn: func(ctx context.Context, tokenHash string) (*model.User, error) {
			return &model.User{ID: 42}, nil
		},
	}
	svc := NewAuthService(mockRepo, testConfig())

	if err := svc.RevokeRefreshToken(context.Background(), "raw-token"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(mockRepo.setRefreshTokenCalls) != 1 {
		t.Fatalf("expected 1 SetRefreshToken call, got %d", len(mockRepo.setRefreshTokenCalls))
	}
	call := mockRepo.setRefreshTokenCalls[0]
	if call.UserID != 42 || call.TokenHash != nil || call.ExpiresAt != nil {
		t.Errorf("expected cleared token for user 42, got %+v", call)
	}
}

func TestAuthService_ValidateAccessToken_WrongSecret(t *testing.T) {
	svc := NewAuthService(&mockUserRepository{}, testConfig())
	pair, err := svc.GenerateTokenPair(context.Background(), 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	otherCfg := testConfig()
	otherCfg.JWTSecret = "different-secret"
	other := NewAuthService(&mockUserRepository{}, otherCfg)

	if _, err := other.ValidateAccessToken(pair.AccessToken); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}
