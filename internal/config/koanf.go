// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Load builds the configuration for the named service ("auth",
// "attendance", "merit", "tabulation") with layered sources:
//  1. Defaults: built-in per-service defaults
//  2. Environment variables: override any setting
//
// Environment variables use flat legacy names (DATABASE_URL, JWT_SECRET)
// mapped onto the nested koanf paths by envTransformFunc.
func Load(service string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(service), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Post-process legacy seconds-valued duration fields
	if err := processDurationFields(k); err != nil {
		return nil, fmt.Errorf("failed to process duration fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"cors.allowed_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings, but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice from the struct defaults
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// durationConfigPaths lists duration fields whose legacy env vars are bare
// integer seconds (JWT_ACCESS_TOKEN_EXPIRY=900). Go duration strings like
// "15m" are also accepted.
var durationConfigPaths = []string{
	"server.read_timeout",
	"server.write_timeout",
	"server.idle_timeout",
	"server.shutdown_timeout",
	"database.connect_timeout",
	"jwt.access_token_expiry",
	"jwt.refresh_token_expiry",
	"auth.csrf_token_expiry",
	"auth.email_verification_expiry",
	"auth.password_reset_expiry",
	"auth.otp_resend_cooldown",
	"email.timeout",
}

// processDurationFields rewrites bare-integer duration values as seconds so
// that time.ParseDuration accepts them during unmarshal.
func processDurationFields(k *koanf.Koanf) error {
	for _, path := range durationConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		if _, err := strconv.Atoi(strVal); err == nil {
			if err := k.Set(path, strVal+"s"); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps flat environment variable names onto koanf config
// paths. Seconds-valued legacy duration vars (JWT_ACCESS_TOKEN_EXPIRY and
// friends) are normalized by processDurationFields after this mapping.
//
// Examples:
//   - DATABASE_URL -> database.url
//   - PORT -> server.port
//   - ALLOWED_ORIGINS -> cors.allowed_origins
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server mappings
		"host":             "server.host",
		"port":             "server.port",
		"read_timeout":     "server.read_timeout",
		"write_timeout":    "server.write_timeout",
		"idle_timeout":     "server.idle_timeout",
		"shutdown_timeout": "server.shutdown_timeout",

		// Database mappings
		"database_url":        "database.url",
		"database_max_conns":  "database.max_conns",
		"database_min_conns":  "database.min_conns",
		"db_connect_timeout":  "database.connect_timeout",
		"db_connect_attempts": "database.connect_attempts",

		// JWT mappings
		"jwt_secret":               "jwt.secret",
		"jwt_access_token_expiry":  "jwt.access_token_expiry",
		"jwt_refresh_token_expiry": "jwt.refresh_token_expiry",

		// Auth mappings
		"password_pepper":           "auth.password_pepper",
		"csrf_token_expiry":         "auth.csrf_token_expiry",
		"email_verification_expiry": "auth.email_verification_expiry",
		"password_reset_expiry":     "auth.password_reset_expiry",
		"otp_max_attempts":          "auth.otp_max_attempts",
		"otp_resend_cooldown":       "auth.otp_resend_cooldown",

		// Email mappings
		"email_service_url":     "email.service_url",
		"email_service_api_key": "email.api_key",
		"email_timeout":         "email.timeout",

		// Sibling service mappings
		"auth_service_url":       "services.auth_url",
		"attendance_service_url": "services.attendance_url",

		// CORS mappings
		"allowed_origins":  "cors.allowed_origins",
		"cors_strict_mode": "cors.strict_mode",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped so random environment variables do not
	// pollute the config.
	return ""
}
