// Copyright (c) 2026 Communication LTD. All rights reserved.

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, policy) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// defaultCommonWords is the denylist of weak words applied when
// PASSWORD_COMMON_WORDS is not set.
const defaultCommonWords = "password,welcome,123456,admin,qwerty,letmein,monkey,abc123,football,iloveyou,sunshine,princess,dragon,administrator,shadow"

// # Configuration Schema

// Config holds all runtime configuration for the Communication LTD API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis) for throttle counters
	RedisURL string `env:"REDIS_URL,required"`

	// JWTSecret signs identity tokens (HS256). Must be long and random.
	JWTSecret string `env:"JWT_SECRET,required"`

	// Outbound email (password reset delivery)
	SMTPHost string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	MailFrom string `env:"MAIL_FROM" envDefault:"no-reply@commltd.app"`

	// Password policy. Defaults mirror the published security baseline.
	PasswordMinLength       int      `env:"PASSWORD_MIN_LENGTH"        envDefault:"10"`
	PasswordRequireUpper    bool     `env:"PASSWORD_REQUIRE_UPPERCASE" envDefault:"true"`
	PasswordRequireLower    bool     `env:"PASSWORD_REQUIRE_LOWERCASE" envDefault:"true"`
	PasswordRequireNumbers  bool     `env:"PASSWORD_REQUIRE_NUMBERS"   envDefault:"true"`
	PasswordRequireSpecial  bool     `env:"PASSWORD_REQUIRE_SPECIAL"   envDefault:"true"`
	PasswordHistoryDepth    int      `env:"PASSWORD_HISTORY"           envDefault:"3"`
	PasswordCommonWords     []string `env:"PASSWORD_COMMON_WORDS"      envSeparator:","`
	MaxLoginAttempts        int      `env:"MAX_LOGIN_ATTEMPTS"         envDefault:"3"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// The denylist default is applied after parsing; an explicit empty
	// PASSWORD_COMMON_WORDS disables the check entirely.
	if _, set := os.LookupEnv("PASSWORD_COMMON_WORDS"); !set {
		cfg.PasswordCommonWords = strings.Split(defaultCommonWords, ",")
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
