// Copyright (c) 2026 Communication LTD. All rights reserved.

package auth

import (
	"context"
	"time"
)

// # Repository Contract

// AccountRepository defines persistence operations for accounts.
//
// Implementations map storage-level failures to the application error
// taxonomy (apperr.NotFound, apperr.Duplicate, apperr.Internal).
type AccountRepository interface {
	// Create persists a new account.
	Create(ctx context.Context, account *Account) error

	// FindByUsername returns the account with the given username.
	FindByUsername(ctx context.Context, username string) (*Account, error)

	// FindByEmail returns the account with the given email.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByResetToken returns the account holding the given reset token,
	// considering only tokens whose expiry is still in the future.
	FindByResetToken(ctx context.Context, token string) (*Account, error)

	// IncrementFailedAttempts atomically bumps the failed-login counter and
	// returns the new value. The increment happens in storage, not
	// read-modify-write in the service, so concurrent failures cannot lose
	// updates.
	IncrementFailedAttempts(ctx context.Context, accountID string) (int, error)

	// ResetFailedAttempts zeroes the failed-login counter.
	ResetFailedAttempts(ctx context.Context, accountID string) error

	// UpdateCredentials replaces the live hash and salt and rewrites the
	// password history in one statement.
	UpdateCredentials(ctx context.Context, accountID, hash, salt string, history []PasswordRecord) error

	// UpdateResetToken sets or clears the reset token and its expiry. Both
	// values are nil to clear, both non-nil to set.
	UpdateResetToken(ctx context.Context, accountID string, token *string, expiry *time.Time) error
}
