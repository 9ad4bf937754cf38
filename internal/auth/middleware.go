// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/logging"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	usernameKey
	isAdminKey
	rawTokenKey
)

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	UserID   uuid.UUID
	Username string
}

// ContextWithIdentity returns ctx carrying the authenticated identity.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, userIDKey, id.UserID)
	return context.WithValue(ctx, usernameKey, id.Username)
}

// IdentityFromContext returns the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return Identity{}, false
	}
	username, _ := ctx.Value(usernameKey).(string)
	return Identity{UserID: userID, Username: username}, true
}

// ContextWithToken returns ctx carrying the raw bearer token, so clients
// that call sibling services can forward the caller's credentials.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, rawTokenKey, token)
}

// TokenFromContext returns the raw bearer token attached by RequireAuth.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(rawTokenKey).(string)
	return token
}

// ContextWithAdmin marks the context caller as a verified admin.
func ContextWithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, isAdminKey, true)
}

// IsAdminFromContext reports whether the caller passed an admin check.
func IsAdminFromContext(ctx context.Context) bool {
	isAdmin, _ := ctx.Value(isAdminKey).(bool)
	return isAdmin
}

// AdminChecker reports whether a user holds the admin capability.
// Backed either by the admin_users table or by the auth service's
// /admin/check endpoint, depending on the service.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// bearerToken extracts the token from an Authorization: Bearer header.
// The second return distinguishes a missing header from a malformed one.
func bearerToken(r *http.Request) (token string, present bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", true
	}
	return strings.TrimPrefix(header, prefix), true
}

// RequireAuth validates the bearer access token and attaches the caller's
// identity to the request context.
func RequireAuth(jwtManager *JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r)
			if !present {
				httpx.Error(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}
			if token == "" {
				httpx.Error(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := jwtManager.ValidateToken(token, TokenTypeAccess)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := ContextWithIdentity(r.Context(), Identity{UserID: userID, Username: claims.Username})
			ctx = ContextWithToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid bearer token is
// present but lets anonymous requests through untouched. Used on public
// read endpoints whose response shape widens for admins.
func OptionalAuth(jwtManager *JWTManager, admins AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r)
			if !present || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := jwtManager.ValidateToken(token, TokenTypeAccess)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithIdentity(r.Context(), Identity{UserID: userID, Username: claims.Username})
			ctx = ContextWithToken(ctx, token)
			if admins != nil {
				isAdmin, err := admins.IsAdmin(ctx, userID)
				if err != nil {
					logging.Ctx(ctx).Warn().Err(err).Msg("optional admin check failed")
				} else if isAdmin {
					ctx = ContextWithAdmin(ctx)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin verifies the already-authenticated caller holds the admin
// capability. Must be mounted inside RequireAuth.
func RequireAdmin(admins AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			isAdmin, err := admins.IsAdmin(r.Context(), id.UserID)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("admin check failed")
				httpx.Error(w, http.StatusInternalServerError, "Database error")
				return
			}
			if !isAdmin {
				httpx.Error(w, http.StatusForbidden, "Admin access required")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithAdmin(r.Context())))
		})
	}
}
