// Copyright (c) 2026 Communication LTD. All rights reserved.

/*
Package auth implements the credential and account-security subsystem.

It covers the full account lifecycle entry points — registration, login with
attempt throttling and lockout, password change with history-reuse
prevention, and token-based password reset.

# Architecture

  - Entities: Account and its security state (hash, salt, history, counters).
  - Service: Orchestrates the policy evaluator, credential hasher, reset
    token generator, and the account store.
  - Repository: Abstracted interface over PostgreSQL persistence.

This layer is the "Truth" of the system: all mutations of an account's
security fields go through [Service] operations, never directly through the
store.
*/
package auth

import (
	"time"
)

// # Domain Entities

// Account represents a registered user together with its security state.
//
// Sensitive fields are explicitly omitted from JSON so an Account can be
// returned from handlers without a separate DTO.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`

	PasswordHash string `json:"-"`
	Salt         string `json:"-"`

	// PasswordHistory holds the most recent previous credentials, oldest
	// first, bounded by the configured history depth.
	PasswordHistory []PasswordRecord `json:"-"`

	// FailedLoginAttempts counts consecutive login failures. Lockout is
	// derived from it (attempts >= max), never stored as a flag.
	FailedLoginAttempts int `json:"-"`

	// ResetToken and ResetTokenExpiry are set together and cleared together.
	// A token is valid only while now is before the expiry; expiry is
	// evaluated at use, not auto-nulled.
	ResetToken       *string    `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PasswordRecord is one retired credential in the account's history.
//
// The salt is stored alongside the hash so reuse detection keeps working
// after the live salt has rotated: a candidate is re-hashed under each
// record's own salt when comparing.
type PasswordRecord struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

// Locked reports whether the account is in the derived lockout state.
func (account *Account) Locked(maxAttempts int) bool {
	return account.FailedLoginAttempts >= maxAttempts
}

// # Field Identifiers

// Field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldToken           = "token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldMessage         = "message"
)
