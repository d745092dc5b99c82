// Copyright (c) 2026 Communication LTD. All rights reserved.

package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commltd/commltd-api/internal/auth"
	"github.com/commltd/commltd-api/internal/platform/apperr"
	"github.com/commltd/commltd-api/internal/platform/password"
)

// # Test Doubles

// memoryAccountStore is an in-memory [auth.AccountRepository] for service tests.
type memoryAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*auth.Account
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{accounts: make(map[string]*auth.Account)}
}

func (store *memoryAccountStore) Create(_ context.Context, account *auth.Account) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return apperr.Duplicate("Account already exists")
		}
	}

	clone := *account
	store.accounts[account.ID] = &clone
	return nil
}

func (store *memoryAccountStore) FindByUsername(_ context.Context, username string) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, account := range store.accounts {
		if account.Username == username {
			clone := *account
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (store *memoryAccountStore) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, account := range store.accounts {
		if account.Email == email {
			clone := *account
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (store *memoryAccountStore) FindByResetToken(_ context.Context, token string) (*auth.Account, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, account := range store.accounts {
		if account.ResetToken != nil && *account.ResetToken == token &&
			account.ResetTokenExpiry != nil && time.Now().UTC().Before(*account.ResetTokenExpiry) {
			clone := *account
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (store *memoryAccountStore) IncrementFailedAttempts(_ context.Context, accountID string) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	account, ok := store.accounts[accountID]
	if !ok {
		return 0, apperr.NotFound("Account")
	}
	account.FailedLoginAttempts++
	return account.FailedLoginAttempts, nil
}

func (store *memoryAccountStore) ResetFailedAttempts(_ context.Context, accountID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	account, ok := store.accounts[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.FailedLoginAttempts = 0
	return nil
}

func (store *memoryAccountStore) UpdateCredentials(_ context.Context, accountID, hash, salt string, history []auth.PasswordRecord) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	account, ok := store.accounts[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.PasswordHash = hash
	account.Salt = salt
	account.PasswordHistory = append([]auth.PasswordRecord(nil), history...)
	return nil
}

func (store *memoryAccountStore) UpdateResetToken(_ context.Context, accountID string, token *string, expiry *time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	account, ok := store.accounts[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.ResetToken = token
	account.ResetTokenExpiry = expiry
	return nil
}

// get returns a snapshot of the stored account by username.
func (store *memoryAccountStore) get(t *testing.T, username string) *auth.Account {
	t.Helper()
	account, err := store.FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return account
}

// staticTokenProvider issues a fixed token string.
type staticTokenProvider struct{}

func (staticTokenProvider) GenerateAccessToken(string, string, time.Duration) (string, error) {
	return "test-access-token", nil
}

// captureMailer records the token of every dispatched reset mail.
type captureMailer struct {
	sent chan string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{sent: make(chan string, 4)}
}

func (mailer *captureMailer) SendPasswordReset(_ context.Context, _, token string) error {
	mailer.sent <- token
	return nil
}

// waitForToken blocks until a reset mail is dispatched or the test times out.
func (mailer *captureMailer) waitForToken(t *testing.T) string {
	t.Helper()
	select {
	case token := <-mailer.sent:
		return token
	case <-time.After(2 * time.Second):
		t.Fatal("no reset mail dispatched")
		return ""
	}
}

// # Fixture

const (
	testPassword = "Initial&Pass1"
	maxAttempts  = 3
)

func testPolicy() password.Policy {
	return password.Policy{
		MinLength:        10,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
		RequireSpecial:   true,
		CommonWords:      []string{"password", "admin"},
	}
}

func newTestService(t *testing.T) (*auth.Service, *memoryAccountStore, *captureMailer) {
	t.Helper()

	store := newMemoryAccountStore()
	mailer := newCaptureMailer()
	service := auth.NewService(auth.ServiceOptions{
		Accounts:         store,
		Tokens:           staticTokenProvider{},
		Mail:             mailer,
		Policy:           testPolicy(),
		HistoryDepth:     3,
		MaxLoginAttempts: maxAttempts,
	})

	return service, store, mailer
}

func registerAlice(t *testing.T, service *auth.Service) *auth.Account {
	t.Helper()
	account, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Email:    "alice@commltd.app",
		Password: testPassword,
	})
	require.NoError(t, err)
	return account
}

// # Registration

/*
TestService_Register_Success verifies the happy path: account persisted with a
hashed credential, never the plain text.
*/
func TestService_Register_Success(t *testing.T) {
	service, store, _ := newTestService(t)

	account := registerAlice(t, service)

	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "alice", account.Username)

	stored := store.get(t, "alice")
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEmpty(t, stored.Salt)
	assert.NotEqual(t, testPassword, stored.PasswordHash)
	assert.Empty(t, stored.PasswordHistory)
	assert.Zero(t, stored.FailedLoginAttempts)
}

/*
TestService_Register_DuplicateIdentity verifies that username and email
collisions are rejected with the DUPLICATE code.
*/
func TestService_Register_DuplicateIdentity(t *testing.T) {
	service, _, _ := newTestService(t)
	registerAlice(t, service)

	_, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Email:    "other@commltd.app",
		Password: testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, "DUPLICATE", apperr.As(err).Code)

	_, err = service.Register(context.Background(), auth.RegisterInput{
		Username: "alice2",
		Email:    "alice@commltd.app",
		Password: testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, "DUPLICATE", apperr.As(err).Code)
}

/*
TestService_Register_PolicyViolations verifies that every violated rule is
reported verbatim in the error details.
*/
func TestService_Register_PolicyViolations(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.Register(context.Background(), auth.RegisterInput{
		Username: "bob",
		Email:    "bob@commltd.app",
		Password: "weak",
	})
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	// too short, no uppercase, no number, no special character
	require.Len(t, appErr.Details, 4)
	for _, detail := range appErr.Details {
		assert.Equal(t, "password", detail.Field)
	}
	assert.Equal(t, "Password must be at least 10 characters long", appErr.Details[0].Message)
}

// # Login & Lockout

/*
TestService_Login_Success verifies token issuance on correct credentials.
*/
func TestService_Login_Success(t *testing.T) {
	service, _, _ := newTestService(t)
	registerAlice(t, service)

	result, err := service.Login(context.Background(), auth.LoginInput{
		Username: "alice",
		Password: testPassword,
	})
	require.NoError(t, err)

	assert.Equal(t, "test-access-token", result.Token)
	assert.Equal(t, "alice", result.Account.Username)
}

/*
TestService_Login_UnknownUserAndBadPassword verifies that both failure modes
return the same low-information INVALID_CREDENTIALS error.
*/
func TestService_Login_UnknownUserAndBadPassword(t *testing.T) {
	service, _, _ := newTestService(t)
	registerAlice(t, service)

	_, err := service.Login(context.Background(), auth.LoginInput{
		Username: "nobody",
		Password: testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", apperr.As(err).Code)

	_, err = service.Login(context.Background(), auth.LoginInput{
		Username: "alice",
		Password: "Wrong&Pass1!",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", apperr.As(err).Code)
}

/*
TestService_Login_LockoutAfterMaxFailures drives the account to the attempt
limit and verifies that even the correct password is then rejected.
*/
func TestService_Login_LockoutAfterMaxFailures(t *testing.T) {
	service, store, _ := newTestService(t)
	registerAlice(t, service)

	for i := 0; i < maxAttempts; i++ {
		_, err := service.Login(context.Background(), auth.LoginInput{
			Username: "alice",
			Password: "Wrong&Pass1!",
		})
		require.Error(t, err)
	}

	assert.Equal(t, maxAttempts, store.get(t, "alice").FailedLoginAttempts)

	// Correct password, locked account: still rejected.
	_, err := service.Login(context.Background(), auth.LoginInput{
		Username: "alice",
		Password: testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, "ACCOUNT_LOCKED", apperr.As(err).Code)
}

/*
TestService_Login_CounterResetsOnSuccess verifies that a successful login
clears accumulated failures below the limit.
*/
func TestService_Login_CounterResetsOnSuccess(t *testing.T) {
	service, store, _ := newTestService(t)
	registerAlice(t, service)

	for i := 0; i < maxAttempts-1; i++ {
		_, err := service.Login(context.Background(), auth.LoginInput{
			Username: "alice",
			Password: "Wrong&Pass1!",
		})
		require.Error(t, err)
	}

	_, err := service.Login(context.Background(), auth.LoginInput{
		Username: "alice",
		Password: testPassword,
	})
	require.NoError(t, err)

	assert.Zero(t, store.get(t, "alice").FailedLoginAttempts)
}

// # Password Change & History

/*
TestService_ChangePassword_Success verifies rotation: new credential live, old
one pushed into history with its own salt.
*/
func TestService_ChangePassword_Success(t *testing.T) {
	service, store, _ := newTestService(t)
	registerAlice(t, service)
	before := store.get(t, "alice")

	err := service.ChangePassword(context.Background(), auth.ChangePasswordInput{
		Username:        "alice",
		CurrentPassword: testPassword,
		NewPassword:     "Rotated&Pass2",
	})
	require.NoError(t, err)

	after := store.get(t, "alice")
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)
	assert.NotEqual(t, before.Salt, after.Salt)

	require.Len(t, after.PasswordHistory, 1)
	assert.Equal(t, before.PasswordHash, after.PasswordHistory[0].Hash)
	assert.Equal(t, before.Salt, after.PasswordHistory[0].Salt)

	// New credential works for login.
	_, err = service.Login(context.Background(), auth.LoginInput{
		Username: "alice",
		Password: "Rotated&Pass2",
	})
	assert.NoError(t, err)
}

/*
TestService_ChangePassword_WrongCurrent verifies the current-password gate.
*/
func TestService_ChangePassword_WrongCurrent(t *testing.T) {
	service, _, _ := newTestService(t)
	registerAlice(t, service)

	err := service.ChangePassword(context.Background(), auth.ChangePasswordInput{
		Username:        "alice",
		CurrentPassword: "Wrong&Pass1!",
		NewPassword:     "Rotated&Pass2",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", apperr.As(err).Code)
}

/*
TestService_ChangePassword_RejectsRecentReuse verifies that the current and
all remembered passwords are rejected, across salt rotations.
*/
func TestService_ChangePassword_RejectsRecentReuse(t *testing.T) {
	service, _, _ := newTestService(t)
	registerAlice(t, service)

	// Same as current.
	err := service.ChangePassword(context.Background(), auth.ChangePasswordInput{
		Username:        "alice",
		CurrentPassword: testPassword,
		NewPassword:     testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, "PASSWORD_REUSED", apperr.As(err).Code)

	// Rotate once, then try to go back to the original.
	err = service.ChangePassword(context.Background(), auth.ChangePasswordInput{
		Username:        "alice",
		CurrentPassword: testPassword,
		NewPassword:     "Rotated&Pass2",
	})
	require.NoError(t, err)

	err = service.ChangePassword(context.Background(), auth.ChangePasswordInput{
		Username:        "alice",
		CurrentPassword: "Rotated&Pass2",
		NewPassword:     testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, "PASSWORD_REUSED", apperr.As(err).Code)
}

/*
TestService_ChangePassword_HistoryWindowSlides verifies that a password older
than the history depth becomes usable again.
*/
func TestService_ChangePassword_HistoryWindowSlides(t *testing.T) {
	service, store, _ := newTestService(t)
	registerAlice(t, service)

	passwords := []string{"Rotated&Pass2", "Rotated&Pass3", "Rotated&Pass4", "Rotated&Pass5"}
	current := testPassword
	for _, next := range passwords {
		err := service.ChangePassword(context.Background(), auth.ChangePasswordInput{
			Username:        "alice",
			CurrentPassword: current,
			NewPassword:     next,
		})
		require.NoError(t, err)
		current = next
	}

	// Depth 3: history now holds Pass2..Pass4, the original has been evicted.
	require.Len(t, store.get(t, "alice").PasswordHistory, 3)

	err := service.ChangePassword(context.Background(), auth.ChangePasswordInput{
		Username:        "alice",
		CurrentPassword: current,
		NewPassword:     testPassword,
	})
	assert.NoError(t, err)

	// A password still inside the window remains blocked.
	err = service.ChangePassword(context.Background(), auth.ChangePasswordInput{
		Username:        "alice",
		CurrentPassword: testPassword,
		NewPassword:     "Rotated&Pass4",
	})
	require.Error(t, err)
	assert.Equal(t, "PASSWORD_REUSED", apperr.As(err).Code)
}

// # Reset Flow

/*
TestService_ForgotPassword_UnknownEmail verifies the anti-enumeration
contract: no error, no state change, no mail.
*/
func TestService_ForgotPassword_UnknownEmail(t *testing.T) {
	service, _, mailer := newTestService(t)
	registerAlice(t, service)

	err := service.ForgotPassword(context.Background(), "stranger@commltd.app")
	require.NoError(t, err)

	select {
	case <-mailer.sent:
		t.Fatal("mail dispatched for unknown email")
	case <-time.After(100 * time.Millisecond):
	}
}

/*
TestService_ForgotPassword_IssuesToken verifies token persistence, the expiry
window, and asynchronous mail dispatch.
*/
func TestService_ForgotPassword_IssuesToken(t *testing.T) {
	service, store, mailer := newTestService(t)
	registerAlice(t, service)

	err := service.ForgotPassword(context.Background(), "alice@commltd.app")
	require.NoError(t, err)

	mailedToken := mailer.waitForToken(t)

	stored := store.get(t, "alice")
	require.NotNil(t, stored.ResetToken)
	assert.Equal(t, *stored.ResetToken, mailedToken)

	require.NotNil(t, stored.ResetTokenExpiry)
	assert.WithinDuration(t, time.Now().UTC().Add(auth.ResetTokenTTL), *stored.ResetTokenExpiry, time.Minute)
}

/*
TestService_ForgotPassword_NewRequestOverwritesToken verifies that only the
latest issued token is honored.
*/
func TestService_ForgotPassword_NewRequestOverwritesToken(t *testing.T) {
	service, _, mailer := newTestService(t)
	registerAlice(t, service)

	require.NoError(t, service.ForgotPassword(context.Background(), "alice@commltd.app"))
	firstToken := mailer.waitForToken(t)

	require.NoError(t, service.ForgotPassword(context.Background(), "alice@commltd.app"))
	secondToken := mailer.waitForToken(t)
	require.NotEqual(t, firstToken, secondToken)

	err := service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       "alice@commltd.app",
		Token:       firstToken,
		NewPassword: "Rotated&Pass2",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_RESET_TOKEN", apperr.As(err).Code)
}

/*
TestService_ResetPassword_FullFlow verifies the complete recovery path:
lockout, token issuance, reset, and login with the new credential.
*/
func TestService_ResetPassword_FullFlow(t *testing.T) {
	service, store, mailer := newTestService(t)
	registerAlice(t, service)

	// Lock the account.
	for i := 0; i < maxAttempts; i++ {
		_, err := service.Login(context.Background(), auth.LoginInput{
			Username: "alice",
			Password: "Wrong&Pass1!",
		})
		require.Error(t, err)
	}

	require.NoError(t, service.ForgotPassword(context.Background(), "alice@commltd.app"))
	token := mailer.waitForToken(t)

	err := service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       "alice@commltd.app",
		Token:       token,
		NewPassword: "Recovered&Pass2",
	})
	require.NoError(t, err)

	// Token consumed, lockout cleared, old password retired into history.
	stored := store.get(t, "alice")
	assert.Nil(t, stored.ResetToken)
	assert.Nil(t, stored.ResetTokenExpiry)
	assert.Zero(t, stored.FailedLoginAttempts)
	require.Len(t, stored.PasswordHistory, 1)

	_, err = service.Login(context.Background(), auth.LoginInput{
		Username: "alice",
		Password: "Recovered&Pass2",
	})
	assert.NoError(t, err)

	// Second use of the same token must fail.
	err = service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       "alice@commltd.app",
		Token:       token,
		NewPassword: "Another&Pass3",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_RESET_TOKEN", apperr.As(err).Code)
}

/*
TestService_ResetPassword_WrongEmailBinding verifies that a valid token is
useless with a different account email.
*/
func TestService_ResetPassword_WrongEmailBinding(t *testing.T) {
	service, _, mailer := newTestService(t)
	registerAlice(t, service)

	require.NoError(t, service.ForgotPassword(context.Background(), "alice@commltd.app"))
	token := mailer.waitForToken(t)

	err := service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       "mallory@commltd.app",
		Token:       token,
		NewPassword: "Recovered&Pass2",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_RESET_TOKEN", apperr.As(err).Code)
}

/*
TestService_ResetPassword_ExpiredToken verifies that expiry is evaluated at
use time.
*/
func TestService_ResetPassword_ExpiredToken(t *testing.T) {
	service, store, mailer := newTestService(t)
	account := registerAlice(t, service)

	require.NoError(t, service.ForgotPassword(context.Background(), "alice@commltd.app"))
	token := mailer.waitForToken(t)

	// Backdate the expiry.
	expired := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, store.UpdateResetToken(context.Background(), account.ID, &token, &expired))

	err := service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       "alice@commltd.app",
		Token:       token,
		NewPassword: "Recovered&Pass2",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_RESET_TOKEN", apperr.As(err).Code)
}

/*
TestService_ResetPassword_EnforcesPolicyAndHistory verifies that the reset
path applies the same password rules as a change.
*/
func TestService_ResetPassword_EnforcesPolicyAndHistory(t *testing.T) {
	service, _, mailer := newTestService(t)
	registerAlice(t, service)

	require.NoError(t, service.ForgotPassword(context.Background(), "alice@commltd.app"))
	token := mailer.waitForToken(t)

	err := service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       "alice@commltd.app",
		Token:       token,
		NewPassword: "weak",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	// Reusing the live password via reset is also blocked.
	err = service.ResetPassword(context.Background(), auth.ResetPasswordInput{
		Email:       "alice@commltd.app",
		Token:       token,
		NewPassword: testPassword,
	})
	require.Error(t, err)
	assert.Equal(t, "PASSWORD_REUSED", apperr.As(err).Code)
}
