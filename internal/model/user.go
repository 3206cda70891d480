package model

import (
	"errors"
	"time"
)

// User represents a user account in the system.
type User struct {
	ID               int64      `db:"id" json:"id"`
	FullName         string     `db:"full_name" json:"full_name"`
	Email            string     `db:"email" json:"email"`
	PasswordHashed   string     `db:"password_hashed" json:"-"` // "-" hides from JSON output
	IsVerified       bool       `db:"is_verified" json:"is_verified"`
	RefreshTokenHash *string    `db:"refresh_token_hash" json:"-"`
	RefreshExpiresAt *time.Time `db:"refresh_expires_at" json:"-"`
	GoogleID         *string    `db:"google_id" json:"-"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// UserSummary is the lightweight author representation embedded in posts and comments.
type UserSummary struct {
	ID       int64  `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// RegisterRequest represents the data needed to register a new account.
type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the data needed to log in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyRequest is the request body for POST /auth/verify.
type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendCodeRequest is the request body for POST /auth/resend-code.
type ResendCodeRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordRequest is the request body for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the request body for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to register a taken email
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotVerified is returned when an unverified account attempts to log in
	ErrNotVerified = errors.New("account not verified")

	// ErrAlreadyVerified is returned when verifying an already-verified account
	ErrAlreadyVerified = errors.New("account already verified")
)
