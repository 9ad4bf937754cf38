// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package clients

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/podium/internal/auth"
)

// AdminCheckClient implements auth.AdminChecker against the auth service's
// GET /admin/check endpoint, forwarding the caller's bearer token. Used by
// services that should not read the admin_users table directly.
type AdminCheckClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[bool]
}

// NewAdminCheckClient builds an admin-check client for the auth service
// base URL.
func NewAdminCheckClient(authURL string) *AdminCheckClient {
	return &AdminCheckClient{
		baseURL: authURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[bool](breakerSettings("admin_check")),
	}
}

type adminCheckResponse struct {
	IsAdmin bool `json:"is_admin"`
}

// IsAdmin asks the auth service whether the context caller is an admin.
// The userID parameter satisfies the interface; the auth service derives
// the user from the forwarded token.
func (c *AdminCheckClient) IsAdmin(ctx context.Context, _ uuid.UUID) (bool, error) {
	token := auth.TokenFromContext(ctx)
	if token == "" {
		return false, nil
	}

	return c.breaker.Execute(func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/admin/check", nil)
		if err != nil {
			return false, fmt.Errorf("building admin check request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.client.Do(req)
		if err != nil {
			return false, fmt.Errorf("calling admin check: %w", err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
		case http.StatusUnauthorized, http.StatusForbidden:
			return false, nil
		default:
			return false, fmt.Errorf("admin check returned status %d", resp.StatusCode)
		}

		var out adminCheckResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return false, fmt.Errorf("decoding admin check response: %w", err)
		}
		return out.IsAdmin, nil
	})
}
