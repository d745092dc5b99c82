// Copyright (c) 2026 Communication LTD. All rights reserved.

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// resetTokenEntropyBytes is the amount of CSPRNG material behind each reset token.
const resetTokenEntropyBytes = 20

// NewResetToken produces an unguessable single-use password-reset token.
//
// 20 bytes are drawn from the CSPRNG, hex-encoded, then pushed through a
// one-way digest so the returned token is a fixed-length 64-character hex
// string bearing no relation to any account. Binding the token to an account
// and an expiry is the caller's responsibility.
func NewResetToken() (string, error) {
	raw := make([]byte, resetTokenEntropyBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("sec: failed to generate reset token: %w", err)
	}

	digest := sha256.Sum256([]byte(hex.EncodeToString(raw)))
	return hex.EncodeToString(digest[:]), nil
}
