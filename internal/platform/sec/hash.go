// Copyright (c) 2026 Communication LTD. All rights reserved.

package sec

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// saltBytes is the number of random bytes in a freshly generated salt.
// Stored hex-encoded, so the salt column holds 32 characters.
const saltBytes = 16

// HashPassword hashes a plain-text password under a freshly generated salt.
//
// The construction is an HMAC-SHA256 keyed by the salt over the password
// bytes. The same (password, salt) pair always produces the same hash, which
// is what allows password-history comparison; a fresh salt per account (and
// per rotation) defeats precomputed rainbow tables.
//
// # Limitation
//
// This is a keyed hash, not a memory-hard KDF. It resists naive lookup and
// length-extension attacks relative to a plain digest, but it is not a
// substitute for bcrypt/argon2 against offline brute force.
func HashPassword(plainTextPassword string) (hash string, salt string, err error) {
	rawSalt := make([]byte, saltBytes)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}

	salt = hex.EncodeToString(rawSalt)
	return HashPasswordWithSalt(plainTextPassword, salt), salt, nil
}

// HashPasswordWithSalt recomputes the keyed hash for a known salt.
//
// Deterministic by design: callers use it to compare a candidate password
// against stored hash/salt pairs.
func HashPasswordWithSalt(plainTextPassword, salt string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(plainTextPassword))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPassword reports whether the plain-text password matches the stored
// hash under the given salt. The comparison is constant-time.
func VerifyPassword(plainTextPassword, storedHash, salt string) bool {
	computed := HashPasswordWithSalt(plainTextPassword, salt)
	return hmac.Equal([]byte(computed), []byte(storedHash))
}
