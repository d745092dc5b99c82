// Copyright (c) 2026 Communication LTD. All rights reserved.

/*
Package password implements the password policy evaluator.

It validates candidate passwords against the configured complexity rules:
minimum length, required character classes, and a denylist of common weak
words. Evaluation is a pure function — deterministic for a given
(candidate, policy) pair, with no side effects.

# Architecture

The policy is built once from application config and injected into the
authentication service at construction. Every rule is checked independently
and all violations are collected; the evaluator never short-circuits (except
the denylist, which reports only the first matching word).
*/
package password

import (
	"fmt"
	"strings"
)

// specialChars is the set of symbols accepted as "special characters".
const specialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// Policy holds the configurable complexity rules for candidate passwords.
//
// # Concurrency
//
// Policy is immutable after construction and safe for concurrent use.
type Policy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumbers   bool
	RequireSpecial   bool

	// CommonWords is the denylist; a candidate containing any entry as a
	// case-insensitive substring is rejected.
	CommonWords []string
}

// Result carries the outcome of a policy evaluation.
type Result struct {
	Valid bool
	// Violations lists every failed rule in evaluation order, worded for
	// direct display to the end user.
	Violations []string
}

// Evaluate checks a candidate password against the policy.
//
// All rules are evaluated; a password failing three rules reports three
// violations. The denylist is the only rule that stops early — it names the
// first matched word and skips the rest of the list.
func (policy Policy) Evaluate(candidate string) Result {
	var violations []string

	if len(candidate) < policy.MinLength {
		violations = append(violations,
			fmt.Sprintf("Password must be at least %d characters long", policy.MinLength))
	}

	if policy.RequireUppercase && !strings.ContainsFunc(candidate, isUppercase) {
		violations = append(violations, "Password must include at least one uppercase letter")
	}

	if policy.RequireLowercase && !strings.ContainsFunc(candidate, isLowercase) {
		violations = append(violations, "Password must include at least one lowercase letter")
	}

	if policy.RequireNumbers && !strings.ContainsFunc(candidate, isDigit) {
		violations = append(violations, "Password must include at least one number")
	}

	if policy.RequireSpecial && !strings.ContainsAny(candidate, specialChars) {
		violations = append(violations, "Password must include at least one special character")
	}

	// Denylist scan: first match wins, remaining words are not reported.
	lowered := strings.ToLower(candidate)
	for _, word := range policy.CommonWords {
		if word == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(word)) {
			violations = append(violations,
				fmt.Sprintf("Password cannot contain common words like %q", word))
			break
		}
	}

	return Result{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
}

// Character classes are deliberately ASCII-only, matching how the complexity
// rules are documented to end users.

func isUppercase(r rune) bool { return r >= 'A' && r <= 'Z' }

func isLowercase(r rune) bool { return r >= 'a' && r <= 'z' }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
