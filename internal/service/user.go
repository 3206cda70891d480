package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"inkpress/internal/cache"
	"inkpress/internal/config"
	"inkpress/internal/model"
	"inkpress/internal/repository"
)

// MailPublisher abstracts the mail queue so the service can be tested
// without Redis.
type MailPublisher interface {
	PublishVerificationMail(ctx context.Context, recipient, fullName, code string) (string, error)
	PublishResetMail(ctx context.Context, recipient, fullName, resetToken string) (string, error)
}

// UserService handles account lifecycle: registration, email verification,
// login, and password recovery.
type UserService struct {
	repo      repository.UserRepository
	codeStore cache.CodeStore
	publisher MailPublisher
	config    *config.Config
}

func NewUserService(repo repository.UserRepository, codeStore cache.CodeStore, publisher MailPublisher, cfg *config.Config) *UserService {
	return &UserService{
		repo:      repo,
		codeStore: codeStore,
		publisher: publisher,
		config:    cfg,
	}
}

// Register creates an unverified account and enqueues a verification email.
// Mail delivery is asynchronous; a publish failure is logged, not returned,
// since the user can always request a resend.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		FullName:       strings.TrimSpace(req.FullName),
		Email:          email,
		PasswordHashed: string(hashedPassword),
		IsVerified:     false,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.issueVerificationCode(ctx, user); err != nil {
		log.Printf("[UserService] Register: failed to send verification code to %s: %v", user.Email, err)
	}

	return user, nil
}

// Verify checks the verification code and marks the account verified. A
// mismatch keeps the code so a typo doesn't force a resend; after
// cache.MaxVerifyAttempts wrong guesses the code is discarded. A successful
// verify consumes the code, so a second attempt fails with ErrCodeNotFound.
func (s *UserService) Verify(ctx context.Context, req *model.VerifyRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, model.ErrAlreadyVerified
	}

	stored, err := s.codeStore.GetVerificationCode(ctx, email)
	if err != nil {
		return nil, err
	}
	if stored != req.Code {
		ttl := time.Duration(s.config.VerificationCodeTTL) * time.Second
		attempts, attemptErr := s.codeStore.RecordFailedAttempt(ctx, email, ttl)
		if attemptErr != nil {
			log.Printf("[UserService] Verify: failed to record attempt for %s: %v", email, attemptErr)
		}
		if attempts >= cache.MaxVerifyAttempts {
			if consumeErr := s.codeStore.ConsumeVerificationCode(ctx, email); consumeErr != nil {
				log.Printf("[UserService] Verify: failed to discard exhausted code for %s: %v", email, consumeErr)
			}
		}
		return nil, model.ErrCodeMismatch
	}

	if err := s.codeStore.ConsumeVerificationCode(ctx, email); err != nil {
		return nil, fmt.Errorf("failed to consume code: %w", err)
	}

	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark verified: %w", err)
	}
	user.IsVerified = true

	return user, nil
}

// ResendCode issues a fresh verification code, replacing any outstanding one.
func (s *UserService) ResendCode(ctx context.Context, req *model.ResendCodeRequest) error {
	email := normalizeEmail(req.Email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return model.ErrAlreadyVerified
	}

	return s.issueVerificationCode(ctx, user)
}

// Login authenticates with email and password. Unverified accounts cannot
// log in; they get a distinct error so clients can prompt for verification.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		// Don't reveal whether the email exists
		return nil, model.ErrInvalidCredentials
	}

	if user.PasswordHashed == "" {
		// Google-only account, no local password
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, model.ErrNotVerified
	}

	return user, nil
}

// ForgotPassword issues a reset token and enqueues a reset email. It reports
// success even for unknown emails so callers cannot probe for accounts.
func (s *UserService) ForgotPassword(ctx context.Context, req *model.ForgotPasswordRequest) error {
	email := normalizeEmail(req.Email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		log.Printf("[UserService] ForgotPassword: unknown email requested")
		return nil
	}

	token := uuid.New().String()
	ttl := time.Duration(s.config.ResetTokenTTL) * time.Second
	if err := s.codeStore.SetResetToken(ctx, token, user.ID, ttl); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if _, err := s.publisher.PublishResetMail(ctx, user.Email, user.FullName, token); err != nil {
		log.Printf("[UserService] ForgotPassword: failed to enqueue reset mail for %s: %v", user.Email, err)
	}

	return nil
}

// ResetPassword consumes the reset token and sets a new password. All
// outstanding refresh tokens for the user are revoked.
func (s *UserService) ResetPassword(ctx context.Context, req *model.ResetPasswordRequest) error {
	userID, err := s.codeStore.TakeResetToken(ctx, req.Token)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(hashedPassword)); err != nil {
		return err
	}

	if err := s.repo.SetRefreshToken(ctx, userID, nil, nil); err != nil {
		log.Printf("[UserService] ResetPassword: failed to revoke refresh token for user=%d: %v", userID, err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) issueVerificationCode(ctx context.Context, user *model.User) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	ttl := time.Duration(s.config.VerificationCodeTTL) * time.Second
	if err := s.codeStore.SetVerificationCode(ctx, user.Email, code, ttl); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	if _, err := s.publisher.PublishVerificationMail(ctx, user.Email, user.FullName, code); err != nil {
		return fmt.Errorf("failed to enqueue verification mail: %w", err)
	}
	return nil
}

// generateCode produces a 6-digit numeric code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
