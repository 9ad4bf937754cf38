// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

// Package clients holds the HTTP clients for Podium's outbound
// dependencies: the email delivery service and the auth service's admin
// check endpoint. Both sit behind circuit breakers so a dead dependency
// fails fast instead of tying up request handlers.
package clients

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/podium/internal/config"
	"github.com/tomtom215/podium/internal/logging"
	"github.com/tomtom215/podium/internal/metrics"
)

// breakerStateValue maps gobreaker states onto the metrics gauge.
func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

func breakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, breakerStateValue(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}
}

// EmailClient delivers transactional email through the external email
// service. Delivery is best-effort: an unset service URL disables sending,
// and callers treat failures as non-fatal.
type EmailClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewEmailClient builds an email client from config. With an empty
// ServiceURL the client is a no-op that records skipped sends.
func NewEmailClient(cfg config.EmailConfig) *EmailClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmailClient{
		baseURL: cfg.ServiceURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[struct{}](breakerSettings("email")),
	}
}

type emailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SendVerificationEmail sends the 6-digit verification code.
func (c *EmailClient) SendVerificationEmail(ctx context.Context, to, username, otp string) error {
	return c.send(ctx, "verification", emailMessage{
		To:      to,
		Subject: "Verify your Podium account",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour Podium verification code is %s. It expires in 24 hours.\n",
			username, otp),
	})
}

// SendPasswordResetEmail sends the 6-digit password reset code.
func (c *EmailClient) SendPasswordResetEmail(ctx context.Context, to, username, otp string) error {
	return c.send(ctx, "password_reset", emailMessage{
		To:      to,
		Subject: "Reset your Podium password",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour Podium password reset code is %s. It expires in 1 hour.\n\nIf you did not request this, you can ignore this email.\n",
			username, otp),
	})
}

// SendWelcomeEmail greets a newly verified member.
func (c *EmailClient) SendWelcomeEmail(ctx context.Context, to, username string) error {
	return c.send(ctx, "welcome", emailMessage{
		To:      to,
		Subject: "Welcome to Podium",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour email is verified and your Podium account is ready. See you at the next debate!\n",
			username),
	})
}

func (c *EmailClient) send(ctx context.Context, kind string, msg emailMessage) error {
	if c.baseURL == "" {
		metrics.RecordEmailSend(kind, "skipped")
		return nil
	}

	_, err := c.breaker.Execute(func() (struct{}, error) {
		body, err := json.Marshal(msg)
		if err != nil {
			return struct{}{}, fmt.Errorf("encoding email: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
		if err != nil {
			return struct{}{}, fmt.Errorf("building email request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("sending email: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusMultipleChoices {
			return struct{}{}, fmt.Errorf("email service returned status %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	if err != nil {
		metrics.RecordEmailSend(kind, "failed")
		return err
	}

	metrics.RecordEmailSend(kind, "sent")
	return nil
}
