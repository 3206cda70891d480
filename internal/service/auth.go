package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"inkpress/internal/config"
	"inkpress/internal/model"
	"inkpress/internal/repository"
)

// AuthService issues and validates tokens. Each user holds at most one live
// refresh token; issuing a new pair overwrites the stored hash, so older
// refresh tokens stop working the moment a newer one exists.
type AuthService struct {
	userRepo repository.UserRepository
	config   *config.Config
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		config:   cfg,
	}
}

// GenerateTokenPair issues a new access token and persists the refresh token
// hash on the user row, replacing whatever was there.
func (s *AuthService) GenerateTokenPair(ctx context.Context, userID int64) (*model.TokenPair, error) {
	accessToken, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshTokenRaw := uuid.New().String()
	refreshTokenHash := s.hashToken(refreshTokenRaw)
	expiresAt := time.Now().Add(time.Duration(s.config.RefreshTokenMaxAge) * time.Second)

	if err := s.userRepo.SetRefreshToken(ctx, userID, &refreshTokenHash, &expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresIn:    s.config.AccessTokenMaxAge,
	}, nil
}

// RefreshTokens validates the refresh token and rotates a new pair.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshTokenRaw string) (*model.TokenPair, int64, error) {
	tokenHash := s.hashToken(refreshTokenRaw)

	user, err := s.userRepo.GetByRefreshTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, 0, model.ErrRefreshTokenNotFound
	}

	if user.RefreshExpiresAt == nil || time.Now().After(*user.RefreshExpiresAt) {
		return nil, 0, model.ErrRefreshTokenExpired
	}

	newTokenPair, err := s.GenerateTokenPair(ctx, user.ID)
	if err != nil {
		return nil, 0, err
	}

	return newTokenPair, user.ID, nil
}

// RevokeRefreshToken clears the stored refresh token for the user, if the
// presented token matches.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, refreshTokenRaw string) error {
	tokenHash := s.hashToken(refreshTokenRaw)
	user, err := s.userRepo.GetByRefreshTokenHash(ctx, tokenHash)
	if err != nil {
		return model.ErrRefreshTokenNotFound
	}
	return s.userRepo.SetRefreshToken(ctx, user.ID, nil, nil)
}

// RevokeUserTokens clears the stored refresh token for the user regardless of
// what is presented. Used on password reset.
func (s *AuthService) RevokeUserTokens(ctx context.Context, userID int64) error {
	return s.userRepo.SetRefreshToken(ctx, userID, nil, nil)
}

// ValidateAccessToken parses and verifies an access token, returning the
// user ID it was issued for.
func (s *AuthService) ValidateAccessToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token claims")
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("missing user_id claim")
	}

	return int64(userIDFloat), nil
}

func (s *AuthService) generateAccessToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *AuthService) hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
