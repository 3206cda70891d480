package model

import "errors"

// TokenPair represents both tokens returned after login/verify/refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // Seconds until access token expires
}

// AuthResponse is returned after successful login or verification.
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshRequest is the request body for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Verification code and reset token errors
var (
	ErrCodeNotFound  = errors.New("verification code not found")
	ErrCodeMismatch  = errors.New("verification code mismatch")
	ErrTokenNotFound = errors.New("reset token not found")
)

// Refresh token errors
var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
)

// ErrUpstreamFailure marks errors caused by an external identity provider.
var ErrUpstreamFailure = errors.New("upstream provider failure")

// Token API error codes (used in HTTP responses)
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeCodeInvalid  = "CODE_INVALID"
)
