// Copyright (c) 2026 Communication LTD. All rights reserved.

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/commltd/commltd-api/internal/platform/apperr"
	"github.com/commltd/commltd-api/internal/platform/dberr"
)

// resourceAccount names the entity in storage-error messages.
const resourceAccount = "Account"

// PostgresAccountRepository implements [AccountRepository] on PostgreSQL.
//
// Password history is a JSONB column rather than a side table: it is a small
// bounded list that is always read and written together with the account row.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository creates a PostgreSQL-backed account repository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

const accountColumns = `
	id, username, email, password_hash, salt, password_history,
	failed_login_attempts, reset_token, reset_token_expiry,
	created_at, updated_at`

// Create persists a new account row.
func (repo *PostgresAccountRepository) Create(ctx context.Context, account *Account) error {
	historyJSON, err := json.Marshal(account.PasswordHistory)
	if err != nil {
		return apperr.Internal(fmt.Errorf("marshal password history: %w", err))
	}

	query := `
		INSERT INTO users (
			id, username, email, password_hash, salt, password_history,
			failed_login_attempts, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = repo.db.Exec(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Salt,
		historyJSON,
		account.FailedLoginAttempts,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, resourceAccount)
	}

	return nil
}

// FindByUsername returns the account with the given username.
func (repo *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE username = $1`
	return repo.scanAccount(repo.db.QueryRow(ctx, query, username))
}

// FindByEmail returns the account with the given email.
func (repo *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE email = $1`
	return repo.scanAccount(repo.db.QueryRow(ctx, query, email))
}

// FindByResetToken returns the account holding an unexpired reset token.
// Expiry is evaluated here, in one place, so callers never see stale tokens.
func (repo *PostgresAccountRepository) FindByResetToken(ctx context.Context, token string) (*Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM users
		WHERE reset_token = $1 AND reset_token_expiry > now()`

	return repo.scanAccount(repo.db.QueryRow(ctx, query, token))
}

// IncrementFailedAttempts bumps the failure counter in a single statement so
// concurrent failed logins each count.
func (repo *PostgresAccountRepository) IncrementFailedAttempts(ctx context.Context, accountID string) (int, error) {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1, updated_at = now()
		WHERE id = $1
		RETURNING failed_login_attempts`

	var attempts int
	if err := repo.db.QueryRow(ctx, query, accountID).Scan(&attempts); err != nil {
		return 0, dberr.Wrap(err, resourceAccount)
	}

	return attempts, nil
}

// ResetFailedAttempts zeroes the failure counter.
func (repo *PostgresAccountRepository) ResetFailedAttempts(ctx context.Context, accountID string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, updated_at = now()
		WHERE id = $1`

	tag, err := repo.db.Exec(ctx, query, accountID)
	if err != nil {
		return dberr.Wrap(err, resourceAccount)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceAccount)
	}

	return nil
}

// UpdateCredentials replaces the live hash/salt pair and rewrites the history
// in one statement.
func (repo *PostgresAccountRepository) UpdateCredentials(ctx context.Context, accountID, hash, salt string, history []PasswordRecord) error {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return apperr.Internal(fmt.Errorf("marshal password history: %w", err))
	}

	query := `
		UPDATE users
		SET password_hash = $2, salt = $3, password_history = $4, updated_at = now()
		WHERE id = $1`

	tag, err := repo.db.Exec(ctx, query, accountID, hash, salt, historyJSON)
	if err != nil {
		return dberr.Wrap(err, resourceAccount)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceAccount)
	}

	return nil
}

// UpdateResetToken sets or clears the reset token and its expiry.
func (repo *PostgresAccountRepository) UpdateResetToken(ctx context.Context, accountID string, token *string, expiry *time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expiry = $3, updated_at = now()
		WHERE id = $1`

	tag, err := repo.db.Exec(ctx, query, accountID, token, expiry)
	if err != nil {
		return dberr.Wrap(err, resourceAccount)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resourceAccount)
	}

	return nil
}

// rowScanner abstracts pgx.Row for single-row scans.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanAccount maps one row onto an [Account], decoding the history column.
func (repo *PostgresAccountRepository) scanAccount(row rowScanner) (*Account, error) {
	var (
		account     Account
		historyJSON []byte
	)

	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Salt,
		&historyJSON,
		&account.FailedLoginAttempts,
		&account.ResetToken,
		&account.ResetTokenExpiry,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, resourceAccount)
	}

	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &account.PasswordHistory); err != nil {
			return nil, apperr.Internal(fmt.Errorf("decode password history: %w", err))
		}
	}
	if account.PasswordHistory == nil {
		account.PasswordHistory = []PasswordRecord{}
	}

	return &account, nil
}
