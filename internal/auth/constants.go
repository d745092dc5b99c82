// Copyright (c) 2026 Communication LTD. All rights reserved.

package auth

import "time"

// # Lifetimes

const (
	// AccessTokenTTL is the validity window of an issued access token.
	AccessTokenTTL = 1 * time.Hour

	// ResetTokenTTL is the validity window of a password reset token,
	// measured from the moment the forgot-password request is accepted.
	ResetTokenTTL = 1 * time.Hour

	// emailSendTimeout bounds the asynchronous reset-mail delivery attempt.
	emailSendTimeout = 30 * time.Second
)
