// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

// Package config loads service configuration from environment variables
// using Koanf v2 with struct-based defaults. All four Podium services share
// one Config shape; service-specific fields are simply unused elsewhere.
package config

import (
	"fmt"
	"time"
)

// Config holds the full configuration for a Podium service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	JWT      JWTConfig      `koanf:"jwt"`
	Auth     AuthConfig     `koanf:"auth"`
	Email    EmailConfig    `koanf:"email"`
	Services ServicesConfig `koanf:"services"`
	CORS     CORSConfig     `koanf:"cors"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the pgx connection pool.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
}

// JWTConfig configures token signing. The secret is shared across all
// services so any of them can verify access tokens minted by the auth
// service.
type JWTConfig struct {
	Secret             string        `koanf:"secret"`
	AccessTokenExpiry  time.Duration `koanf:"access_token_expiry"`
	RefreshTokenExpiry time.Duration `koanf:"refresh_token_expiry"`
}

// AuthConfig configures auth-service-specific behavior: password hashing
// pepper and the lifetimes of the various short-lived tokens.
type AuthConfig struct {
	PasswordPepper          string        `koanf:"password_pepper"`
	CSRFTokenExpiry         time.Duration `koanf:"csrf_token_expiry"`
	EmailVerificationExpiry time.Duration `koanf:"email_verification_expiry"`
	PasswordResetExpiry     time.Duration `koanf:"password_reset_expiry"`
	OTPMaxAttempts          int           `koanf:"otp_max_attempts"`
	OTPResendCooldown       time.Duration `koanf:"otp_resend_cooldown"`
}

// EmailConfig configures the outbound email delivery service.
// Delivery is best-effort; an empty URL disables sending.
type EmailConfig struct {
	ServiceURL string        `koanf:"service_url"`
	APIKey     string        `koanf:"api_key"`
	Timeout    time.Duration `koanf:"timeout"`
}

// ServicesConfig holds base URLs of sibling Podium services.
type ServicesConfig struct {
	AuthURL       string `koanf:"auth_url"`
	AttendanceURL string `koanf:"attendance_url"`
}

// CORSConfig configures cross-origin behavior. In strict mode only the
// enumerated origins are allowed, with credentials and a fixed header
// allowlist. Outside strict mode a "*" entry permits any origin without
// credentials.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
	StrictMode     bool     `koanf:"strict_mode"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultPorts maps service names to their conventional listen ports.
var defaultPorts = map[string]int{
	"auth":       3001,
	"attendance": 3002,
	"merit":      3003,
	"tabulation": 3004,
}

// defaultConfig returns a Config with sensible defaults for the named
// service. Defaults are applied first, then overridden by env vars.
func defaultConfig(service string) *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            defaultPorts[service],
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			URL:             "",
			MaxConns:        10,
			MinConns:        2,
			ConnectTimeout:  5 * time.Second,
			ConnectAttempts: 5,
		},
		JWT: JWTConfig{
			Secret:             "",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
		Auth: AuthConfig{
			PasswordPepper:          "",
			CSRFTokenExpiry:         1 * time.Hour,
			EmailVerificationExpiry: 24 * time.Hour,
			PasswordResetExpiry:     1 * time.Hour,
			OTPMaxAttempts:          5,
			OTPResendCooldown:       60 * time.Second,
		},
		Email: EmailConfig{
			ServiceURL: "",
			APIKey:     "",
			Timeout:    10 * time.Second,
		},
		Services: ServicesConfig{
			AuthURL:       "http://localhost:3001",
			AttendanceURL: "http://localhost:3002",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			StrictMode:     false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWT.Secret))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.CORS.StrictMode {
		if len(c.CORS.AllowedOrigins) == 0 {
			return fmt.Errorf("CORS strict mode requires ALLOWED_ORIGINS")
		}
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS strict mode forbids wildcard origins")
			}
		}
	}
	return nil
}
