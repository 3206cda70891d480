package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"inkpress/internal/cache"
	"inkpress/internal/config"
	"inkpress/internal/model"
)

// =============================================================================
// MOCKS
// =============================================================================
//
// Services depend on interfaces, so each test swaps in a mock with
// fn-field behavior and call recording.

type mockUserRepository struct {
	createFn                func(ctx context.Context, user *model.User) error
	getByIDFn               func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn            func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn         func(ctx context.Context, email string) (bool, error)
	getByGoogleIDFn         func(ctx context.Context, googleID string) (*model.User, error)
	linkGoogleIDFn          func(ctx context.Context, userID int64, googleID string) error
	markVerifiedFn          func(ctx context.Context, userID int64) error
	updatePasswordFn        func(ctx context.Context, userID int64, passwordHashed string) error
	setRefreshTokenFn       func(ctx context.Context, userID int64, tokenHash *string, expiresAt *time.Time) error
	getByRefreshTokenHashFn func(ctx context.Context, tokenHash string) (*model.User, error)

	createCalls          []*model.User
	markVerifiedCalls    []int64
	setRefreshTokenCalls []setRefreshTokenCall
}

type setRefreshTokenCall struct {
	UserID    int64
	TokenHash *string
	ExpiresAt *time.Time
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = int64(len(m.createCalls))
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	if m.getByGoogleIDFn != nil {
		return m.getByGoogleIDFn(ctx, googleID)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) LinkGoogleID(ctx context.Context, userID int64, googleID string) error {
	if m.linkGoogleIDFn != nil {
		return m.linkGoogleIDFn(ctx, userID, googleID)
	}
	return nil
}

func (m *mockUserRepository) MarkVerified(ctx context.Context, userID int64) error {
	m.markVerifiedCalls = append(m.markVerifiedCalls, userID)
	if m.markVerifiedFn != nil {
		return m.markVerifiedFn(ctx, userID)
	}
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHashed string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, passwordHashed)
	}
	return nil
}

func (m *mockUserRepository) SetRefreshToken(ctx context.Context, userID int64, tokenHash *string, expiresAt *time.Time) error {
	m.setRefreshTokenCalls = append(m.setRefreshTokenCalls, setRefreshTokenCall{userID, tokenHash, expiresAt})
	if m.setRefreshTokenFn != nil {
		return m.setRefreshTokenFn(ctx, userID, tokenHash, expiresAt)
	}
	return nil
}

func (m *mockUserRepository) GetByRefreshTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	if m.getByRefreshTokenHashFn != nil {
		return m.getByRefreshTokenHashFn(ctx, tokenHash)
	}
	return nil, model.ErrRefreshTokenNotFound
}

// mockCodeStore is an in-memory CodeStore mirroring the Redis semantics:
// codes survive wrong guesses, attempts are counted, reset tokens are
// single-use.
type mockCodeStore struct {
	codes    map[string]string
	attempts map[string]int64
	resets   map[string]int64
}

func newMockCodeStore() *mockCodeStore {
	return &mockCodeStore{
		codes:    make(map[string]string),
		attempts: make(map[string]int64),
		resets:   make(map[string]int64),
	}
}

func (m *mockCodeStore) SetVerificationCode(_ context.Context, email, code string, _ time.Duration) error {
	m.codes[email] = code
	delete(m.attempts, email)
	return nil
}

func (m *mockCodeStore) GetVerificationCode(_ context.Context, email string) (string, error) {
	code, ok := m.codes[email]
	if !ok {
		return "", model.ErrCodeNotFound
	}
	return code, nil
}

func (m *mockCodeStore) ConsumeVerificationCode(_ context.Context, email string) error {
	delete(m.codes, email)
	delete(m.attempts, email)
	return nil
}

func (m *mockCodeStore) RecordFailedAttempt(_ context.Context, email string, _ time.Duration) (int64, error) {
	m.attempts[email]++
	return m.attempts[email], nil
}

func (m *mockCodeStore) SetResetToken(_ context.Context, token string, userID int64, _ time.Duration) error {
	m.resets[token] = userID
	return nil
}

func (m *mockCodeStore) TakeResetToken(_ context.Context, token string) (int64, error) {
	userID, ok := m.resets[token]
	if !ok {
		return 0, model.ErrTokenNotFound
	}
	delete(m.resets, token)
	return userID, nil
}

// mockPublisher records enqueued mail instead of touching Redis.
type mockPublisher struct {
	verificationMails []string
	resetMails        []string
	publishErr        error
}

func (m *mockPublisher) PublishVerificationMail(_ context.Context, recipient, _, _ string) (string, error) {
	if m.publishErr != nil {
		return "", m.publishErr
	}
	m.verificationMails = append(m.verificationMails, recipient)
	return "1-0", nil
}

func (m *mockPublisher) PublishResetMail(_ context.Context, recipient, _, _ string) (string, error) {
	if m.publishErr != nil {
		return "", m.publishErr
	}
	m.resetMails = append(m.resetMails, recipient)
	return "1-0", nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           "test-secret",
		AccessTokenMaxAge:   900,
		RefreshTokenMaxAge:  86400,
		VerificationCodeTTL: 600,
		ResetTokenTTL:       900,
	}
}

func newTestUserService(repo *mockUserRepository, store *mockCodeStore, pub *mockPublisher) *UserService {
	return NewUserService(repo, store, pub, testConfig())
}

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{}
	store := newMockCodeStore()
	pub := &mockPublisher{}
	svc := newTestUserService(mockRepo, store, pub)

	req := &model.RegisterRequest{
		FullName: "Test User",
		Email:    "Test@Example.com",
		Password: "securepassword123",
	}

	user, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if user.Email != "test@example.com" {
		t.Errorf("email = %q, want normalized %q", user.Email, "test@example.com")
	}
	if user.IsVerified {
		t.Error("new account must start unverified")
	}
	if user.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	// A verification code was stored and a mail enqueued
	if _, ok := store.codes["test@example.com"]; !ok {
		t.Error("expected verification code in store")
	}
	if len(pub.verificationMails) != 1 || pub.verificationMails[0] != "test@example.com" {
		t.Errorf("verification mails = %v, want one to test@example.com", pub.verificationMails)
	}
}

func TestUserService_Register_EmailExists(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestUserService(mockRepo, newMockCodeStore(), &mockPublisher{})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		FullName: "Dup",
		Email:    "dup@example.com",
		Password: "password123",
	})

	if !errors.Is(err, model.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got: %v", err)
	}
	if len(mockRepo.createCalls) != 0 {
		t.Error("Create must not be called for an existing email")
	}
}

func TestUserService_Register_MailFailureStillSucceeds(t *testing.T) {
	mockRepo := &mockUserRepository{}
	pub := &mockPublisher{publishErr: errors.New("redis down")}
	svc := newTestUserService(mockRepo, newMockCodeStore(), pub)

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		FullName: "Test",
		Email:    "t@example.com",
		Password: "password123",
	})

	// The account is created even when mail delivery can't be enqueued;
	// resend-code recovers from this.
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user == nil || user.ID == 0 {
		t.Fatal("expected created user")
	}
}

// =============================================================================
// VERIFY TESTS
// =============================================================================

func TestUserService_Verify_Success(t *testing.T) {
	user := &model.User{ID: 7, Email: "v@example.com", IsVerified: false}
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return user, nil
		},
	}
	store := newMockCodeStore()
	store.codes["v@example.com"] = "123456"
	svc := newTestUserService(mockRepo, store, &mockPublisher{})

	got, err := svc.Verify(context.Background(), &model.VerifyRequest{Email: "v@example.com", Code: "123456"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !got.IsVerified {
		t.Error("expected user to be verified")
	}
	if len(mockRepo.markVerifiedCalls) != 1 || mockRepo.markVerifiedCalls[0] != 7 {
		t.Errorf("markVerified calls = %v, want [7]", mockRepo.markVerifiedCalls)
	}
}

func TestUserService_Verify_CodeSingleUse(t *testing.T) {
	user := &model.User{ID: 7, Email: "v@example.com"}
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return user, nil
		},
	}
	store := newMockCodeStore()
	store.codes["v@example.com"] = "123456"
	svc := newTestUserService(mockRepo, store, &mockPublisher{})

	req := &model.VerifyRequest{Email: "v@example.com", Code: "123456"}
	if _, err := svc.Verify(context.Background(), req); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}

	user.IsVerified = false // pretend the flag didn't persist; the code is still gone
	_, err := svc.Verify(context.Background(), req)
	if !errors.Is(err, model.ErrCodeNotFound) {
		t.Fatalf("second verify: expected ErrCodeNotFound, got: %v", err)
	}
}

func TestUserService_Verify_WrongCodeKeepsCode(t *testing.T) {
	user := &model.User{ID: 7, Email: "v@example.com"}
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return user, nil
		},
	}
	store := newMockCodeStore()
	store.codes["v@example.com"] = "123456"
	svc := newTestUserService(mockRepo, store, &mockPublisher{})

	_, err := svc.Verify(context.Background(), &model.VerifyRequest{Email: "v@example.com", Code: "000000"})
	if !errors.Is(err, model.ErrCodeMismatch) {
		t.Fatalf("expected ErrCodeMismatch, got: %v", err)
	}
	if len(mockRepo.markVerifiedCalls) != 0 {
		t.Error("wrong code must not verify the account")
	}

	// A typo doesn't burn the code; the correct one still works
	got, err := svc.Verify(context.Background(), &model.VerifyRequest{Email: "v@example.com", Code: "123456"})
	if err != nil {
		t.Fatalf("correct code after a typo must verify, got: %v", err)
	}
	if !got.IsVerified {
		t.Error("expected user to be verified")
	}
}

func TestUserService_Verify_AttemptsExhausted(t *testing.T) {
	user := &model.User{ID: 7, Email: "v@example.com"}
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return user, nil
		},
	}
	store := newMockCodeStore()
	store.codes["v@example.com"] = "123456"
	svc := newTestUserService(mockRepo, store, &mockPublisher{})

	for i := 0; i < cache.MaxVerifyAttempts; i++ {
		_, err := svc.Verify(context.Background(), &model.VerifyRequest{Email: "v@example.com", Code: "000000"})
		if !errors.Is(err, model.ErrCodeMismatch) {
			t.Fatalf("attempt %d: expected ErrCodeMismatch, got: %v", i+1, err)
		}
	}

	// The budget is spent; even the correct code is gone
	_, err := svc.Verify(context.Background(), &model.VerifyRequest{Email: "v@example.com", Code: "123456"})
	if !errors.Is(err, model.ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound after exhausted attempts, got: %v", err)
	}
}

func TestUserService_Verify_AlreadyVerified(t *testing.T) {
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Email: email, IsVerified: true}, nil
		},
	}
	svc := newTestUserService(mockRepo, newMockCodeStore(), &mockPublisher{})

	_, err := svc.Verify(context.Background(), &model.VerifyRequest{Email: "v@example.com", Code: "123456"})
	if !errors.Is(err, model.ErrAlreadyVerified) {
		t.Fatalf("expected ErrAlreadyVerified, got: %v", err)
	}
}

// =============================================================================
// RESEND CODE TESTS
// =============================================================================

func TestUserService_ResendCode_ReplacesCode(t *testing.T) {
	user := &model.User{ID: 7, Email: "v@example.com"}
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return user, nil
		},
	}
	store := newMockCodeStore()
	store.codes["v@example.com"] = "111111"
	pub := &mockPublisher{}
	svc := newTestUserService(mockRepo, store, pub)

	if err := svc.ResendCode(context.Background(), &model.ResendCodeRequest{Email: "v@example.com"}); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if store.codes["v@example.com"] == "111111" {
		t.Error("expected the outstanding code to be replaced")
	}
	if len(pub.verificationMails) != 1 {
		t.Errorf("expected 1 verification mail, got %d", len(pub.verificationMails))
	}
}

// =============================================================================
// LOGIN TESTS
// =============================================================================

func TestUserService_Login_Success(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 1, Email: email, PasswordHashed: string(hash), IsVerified: true}, nil
		},
	}
	svc := newTestUserService(mockRepo, newMockCodeStore(), &mockPublisher{})

	user, err := svc.Login(context.Background(), &model.LoginRequest{Email: "a@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user.ID != 1 {
		t.Errorf("user id = %d, want 1", user.ID)
	}
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 1, Email: email, PasswordHashed: string(hash), IsVerified: true}, nil
		},
	}
	svc := newTestUserService(mockRepo, newMockCodeStore(), &mockPublisher{})

	_, err := svc.Login(context.Background(), &model.LoginRequest{Email: "a@example.com", Password: "wrong"})
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	svc := newTestUserService(&mockUserRepository{}, newMockCodeStore(), &mockPublisher{})

	_, err := svc.Login(context.Background(), &model.LoginRequest{Email: "nobody@example.com", Password: "x"})
	// Unknown email and wrong password are indistinguishable to the caller
	if !errors.Is(err, model.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestUserService_Login_Unverified(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	mockRepo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 1, Email: email, PasswordHashed: string(hash), IsVerified: false}, nil
		},
	}
	svc := newTestUserService(mockRepo, newMockCodeStore(), &mockPublisher{})

	_, err := svc.Login(context.Background(), &model.LoginRequest{Email: "a@example.com", Password: "correct-horse"})
	if !errors.Is(err, model.ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got: %v", err)
	}
}

// =============================================================================
// PASSWORD RECOVERY TESTS
// =============================================================================

func TestUserService_ForgotPassword_UnknownEmailSilent(t *testing.T) {
	pub := &mockPublisher{}
	svc := newTestUserService(&mockUserRepository{}, newMockCodeStore(), pub)

	err := svc.ForgotPassword(context.Background(), &model.ForgotPasswordRequest{Email: "nobody@example.com"})
	if err != nil {
		t.Fatalf("unknown email must not surface an error, got: %v", err)
	}
	if len(pub.resetMails) != 0 {
		t.Error("no mail should be sent for unknown emails")
	}
}

func TestUserService_ResetPassword_Success(t *testing.T) {
	var updatedHash string
	mockRepo := &mockUserRepository{
		updatePasswordFn: func(ctx context.Context, userID int64, passwordHashed string) error {
			updatedHash = passwordHashed
			return nil
		},
	}
	store := newMockCodeStore()
	store.resets["tok-1"] = 42
	svc := newTestUserService(mockRepo, store, &mockPublisher{})

	err := svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{Token: "tok-1", NewPassword: "new-password-1"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(updatedHash), []byte("new-password-1")); err != nil {
		t.Errorf("stored hash does not match new password: %v", err)
	}

	// Refresh token revoked for the user
	if len(mockRepo.setRefreshTokenCalls) != 1 {
		t.Fatalf("expected 1 SetRefreshToken call, got %d", len(mockRepo.setRefreshTokenCalls))
	}
	call := mockRepo.setRefreshTokenCalls[0]
	if call.UserID != 42 || call.TokenHash != nil {
		t.Errorf("expected refresh token cleared for user 42, got %+v", call)
	}

	// Token is single-use
	err = svc.ResetPassword(context.Background(), &model.ResetPasswordRequest{Token: "tok-1", NewPassword: "another"})
	if !errors.Is(err, model.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound on reuse, got: %v", err)
	}
}
