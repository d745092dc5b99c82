// Copyright (c) 2026 Communication LTD. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/commltd/commltd-api/internal/platform/apperr"
	"github.com/commltd/commltd-api/internal/platform/password"
	"github.com/commltd/commltd-api/internal/platform/sec"
	"github.com/commltd/commltd-api/pkg/uuid"
)

// # Collaborator Contracts

// TokenProvider issues signed access tokens for authenticated sessions.
type TokenProvider interface {
	GenerateAccessToken(userID, username string, ttl time.Duration) (string, error)
}

// EmailSender delivers reset tokens out of band.
type EmailSender interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// # Service

// Service implements the account-security operations: registration, login,
// password change, and the two-step reset flow.
type Service struct {
	accounts AccountRepository
	tokens   TokenProvider
	mail     EmailSender
	policy   password.Policy

	historyDepth     int
	maxLoginAttempts int

	logger *slog.Logger
}

// ServiceOptions carries the collaborators and tuning knobs for [NewService].
type ServiceOptions struct {
	Accounts AccountRepository
	Tokens   TokenProvider
	Mail     EmailSender
	Policy   password.Policy

	// HistoryDepth is how many retired credentials are kept and checked
	// for reuse.
	HistoryDepth int

	// MaxLoginAttempts is the consecutive-failure count at which an
	// account locks.
	MaxLoginAttempts int

	Logger *slog.Logger
}

// NewService constructs the authentication service.
func NewService(opts ServiceOptions) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		accounts:         opts.Accounts,
		tokens:           opts.Tokens,
		mail:             opts.Mail,
		policy:           opts.Policy,
		historyDepth:     opts.HistoryDepth,
		maxLoginAttempts: opts.MaxLoginAttempts,
		logger:           logger,
	}
}

// # Inputs

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput carries the fields of a login request.
type LoginInput struct {
	Username string
	Password string
}

// ChangePasswordInput carries the fields of an authenticated password change.
type ChangePasswordInput struct {
	Username        string
	CurrentPassword string
	NewPassword     string
}

// ResetPasswordInput carries the fields of the second reset step.
type ResetPasswordInput struct {
	Email       string
	Token       string
	NewPassword string
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token   string   `json:"token"`
	Account *Account `json:"user"`
}

// # Operations

// Register creates a new account after checking username and email
// uniqueness and evaluating the candidate password against the active policy.
func (service *Service) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	if _, err := service.accounts.FindByUsername(ctx, input.Username); err == nil {
		return nil, apperr.Duplicate("Username already exists")
	} else if !isNotFound(err) {
		return nil, err
	}

	if _, err := service.accounts.FindByEmail(ctx, input.Email); err == nil {
		return nil, apperr.Duplicate("Email already in use")
	} else if !isNotFound(err) {
		return nil, err
	}

	if err := service.evaluatePolicy(input.Password); err != nil {
		return nil, err
	}

	hash, salt, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := time.Now().UTC()
	account := &Account{
		ID:              uuid.New(),
		Username:        input.Username,
		Email:           input.Email,
		PasswordHash:    hash,
		Salt:            salt,
		PasswordHistory: []PasswordRecord{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := service.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", account.ID),
		slog.String(FieldUsername, account.Username),
	)

	return account, nil
}

// Login verifies credentials and issues an access token.
//
// Order of checks matters: the lockout check runs before password
// verification, so a locked account rejects even the correct password. A
// mismatch increments the failure counter atomically; a match resets it.
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	account, err := service.accounts.FindByUsername(ctx, input.Username)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, err
	}

	if account.Locked(service.maxLoginAttempts) {
		return nil, apperr.Locked()
	}

	if !sec.VerifyPassword(input.Password, account.PasswordHash, account.Salt) {
		attempts, incErr := service.accounts.IncrementFailedAttempts(ctx, account.ID)
		if incErr != nil {
			return nil, incErr
		}

		service.logger.WarnContext(ctx, "login failed",
			slog.String("account_id", account.ID),
			slog.Int("failed_attempts", attempts),
		)

		// The failure that crosses the limit still reads as a plain
		// credential error; lockout surfaces on the next attempt.
		return nil, apperr.InvalidCredentials()
	}

	if account.FailedLoginAttempts > 0 {
		if err := service.accounts.ResetFailedAttempts(ctx, account.ID); err != nil {
			return nil, err
		}
	}

	token, err := service.tokens.GenerateAccessToken(account.ID, account.Username, AccessTokenTTL)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("issue access token: %w", err))
	}

	service.logger.InfoContext(ctx, "login succeeded",
		slog.String("account_id", account.ID),
	)

	return &LoginResult{Token: token, Account: account}, nil
}

// ChangePassword rotates the credentials of an authenticated account.
//
// The new password must satisfy the policy and must not match the current
// password or any retired password still in the history window.
func (service *Service) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	account, err := service.accounts.FindByUsername(ctx, input.Username)
	if err != nil {
		return err
	}

	if !sec.VerifyPassword(input.CurrentPassword, account.PasswordHash, account.Salt) {
		return apperr.InvalidCredentials()
	}

	if err := service.rotateCredentials(ctx, account, input.NewPassword); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "password changed",
		slog.String("account_id", account.ID),
	)

	return nil
}

// ForgotPassword starts the reset flow for the given email.
//
// It never discloses whether the email is registered: unknown addresses
// return success without side effects. For known addresses a fresh token is
// generated, persisted with its expiry, and mailed asynchronously; a new
// request overwrites any previous token.
func (service *Service) ForgotPassword(ctx context.Context, email string) error {
	account, err := service.accounts.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			service.logger.InfoContext(ctx, "reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := sec.NewResetToken()
	if err != nil {
		return apperr.Internal(fmt.Errorf("generate reset token: %w", err))
	}

	expiry := time.Now().UTC().Add(ResetTokenTTL)
	if err := service.accounts.UpdateResetToken(ctx, account.ID, &token, &expiry); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "reset token issued",
		slog.String("account_id", account.ID),
	)

	service.dispatchResetMail(ctx, account, token)

	return nil
}

// ResetPassword completes the reset flow: it matches the token, verifies the
// email binding and the expiry, rotates the credentials, then consumes the
// token and clears any lockout.
func (service *Service) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	account, err := service.accounts.FindByResetToken(ctx, input.Token)
	if err != nil {
		if isNotFound(err) {
			return apperr.InvalidResetToken()
		}
		return err
	}

	// the token alone is not enough, it must belong to the claimed email
	if account.Email != input.Email {
		return apperr.InvalidResetToken()
	}

	if account.ResetTokenExpiry == nil || !time.Now().UTC().Before(*account.ResetTokenExpiry) {
		return apperr.InvalidResetToken()
	}

	if err := service.rotateCredentials(ctx, account, input.NewPassword); err != nil {
		return err
	}

	if err := service.accounts.UpdateResetToken(ctx, account.ID, nil, nil); err != nil {
		return err
	}

	if err := service.accounts.ResetFailedAttempts(ctx, account.ID); err != nil {
		return err
	}

	service.logger.InfoContext(ctx, "password reset completed",
		slog.String("account_id", account.ID),
	)

	return nil
}

// # Internals

// rotateCredentials validates the candidate against policy and history, then
// replaces the live hash and salt, pushing the retired pair into the bounded
// history.
func (service *Service) rotateCredentials(ctx context.Context, account *Account, newPassword string) error {
	if err := service.evaluatePolicy(newPassword); err != nil {
		return err
	}

	if service.isRecentlyUsed(account, newPassword) {
		return apperr.PasswordReused()
	}

	newHash, newSalt, err := sec.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	history := append(account.PasswordHistory, PasswordRecord{
		Hash: account.PasswordHash,
		Salt: account.Salt,
	})
	if overflow := len(history) - service.historyDepth; overflow > 0 {
		history = history[overflow:]
	}

	if err := service.accounts.UpdateCredentials(ctx, account.ID, newHash, newSalt, history); err != nil {
		return err
	}

	account.PasswordHash = newHash
	account.Salt = newSalt
	account.PasswordHistory = history

	return nil
}

// isRecentlyUsed reports whether the candidate matches the live credential or
// any history record. Each comparison re-hashes the candidate under that
// record's own salt.
func (service *Service) isRecentlyUsed(account *Account, candidate string) bool {
	if sec.VerifyPassword(candidate, account.PasswordHash, account.Salt) {
		return true
	}

	for _, record := range account.PasswordHistory {
		if sec.VerifyPassword(candidate, record.Hash, record.Salt) {
			return true
		}
	}

	return false
}

// evaluatePolicy maps policy violations onto a validation error carrying one
// field error per violated rule.
func (service *Service) evaluatePolicy(candidate string) error {
	result := service.policy.Evaluate(candidate)
	if result.Valid {
		return nil
	}

	details := make([]apperr.FieldError, 0, len(result.Violations))
	for _, violation := range result.Violations {
		details = append(details, apperr.FieldError{
			Field:   FieldPassword,
			Message: violation,
		})
	}

	return apperr.ValidationError("Password does not meet the policy requirements", details...)
}

// dispatchResetMail delivers the reset token in the background. Delivery is
// best-effort: failures are logged, never surfaced to the caller, and never
// roll back the persisted token.
func (service *Service) dispatchResetMail(ctx context.Context, account *Account, token string) {
	if service.mail == nil {
		return
	}

	mailCtx := context.WithoutCancel(ctx)

	go func() {
		sendCtx, cancel := context.WithTimeout(mailCtx, emailSendTimeout)
		defer cancel()

		if err := service.mail.SendPasswordReset(sendCtx, account.Email, token); err != nil {
			service.logger.ErrorContext(sendCtx, "reset mail delivery failed",
				slog.String("account_id", account.ID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// isNotFound reports whether err is the repository's not-found error.
func isNotFound(err error) bool {
	appErr := apperr.As(err)
	return appErr != nil && appErr.HTTPStatus == http.StatusNotFound
}
