// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package authsvc

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tomtom215/podium/internal/auth"
	"github.com/tomtom215/podium/internal/clients"
	"github.com/tomtom215/podium/internal/config"
	"github.com/tomtom215/podium/internal/httpx"
	"github.com/tomtom215/podium/internal/logging"
	"github.com/tomtom215/podium/internal/metrics"
	"github.com/tomtom215/podium/internal/models"
	"github.com/tomtom215/podium/internal/validation"
)

// Handler holds the auth service's dependencies.
type Handler struct {
	store *Store
	jwt   *auth.JWTManager
	email *clients.EmailClient
	cfg   *config.Config
}

// NewHandler wires the auth handlers.
func NewHandler(store *Store, jwt *auth.JWTManager, email *clients.EmailClient, cfg *config.Config) *Handler {
	return &Handler{store: store, jwt: jwt, email: email, cfg: cfg}
}

type registerRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	RegNumber   string `json:"reg_number" validate:"required,len=7,numeric,startswith=20"`
	YearJoined  int    `json:"year_joined" validate:"required,gte=2000,lte=2099"`
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type verifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

type promoteRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// authResponse is the token bundle returned by login, verify, and refresh.
type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// fieldMessages overrides the generic validator output with the exact
// guidance the frontend expects, keyed by JSON field name.
var fieldMessages = map[string]string{
	"username":     "Username must be between 3 and 50 characters",
	"email":        "Invalid email format. Expected: user@example.com",
	"password":     "Password must be at least 8 characters long",
	"new_password": "New password must be at least 8 characters long",
	"reg_number":   "Invalid registration number. Expected format: 20XXXXX (e.g., 2012345)",
	"year_joined":  "Year joined must be between 2000 and 2099. Expected format: 20XX (e.g., 2023)",
	"phone_number": "Invalid phone number format. Expected: +[country code][number] (e.g., +923001234567)",
	"otp":          "OTP must be exactly 6 digits",
}

// validationMessage returns the frontend-facing message for the first
// failed field.
func validationMessage(ve *validation.RequestValidationError) string {
	errs := ve.Errors()
	if len(errs) == 0 {
		return "Invalid request"
	}
	fe := errs[0]
	if fe.Tag() == "required" {
		return fe.Error()
	}
	if msg, ok := fieldMessages[fe.Field()]; ok {
		return msg
	}
	return fe.Error()
}

// decodeValid decodes and validates the request body, writing the error
// response itself. Returns false when the request was rejected.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.Decode(w, r, dst); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if ve := validation.ValidateStruct(dst); ve != nil {
		httpx.Error(w, http.StatusBadRequest, validationMessage(ve))
		return false
	}
	return true
}

// uniqueViolationMessage maps a unique-constraint violation onto the
// user-facing conflict message, or "" for other errors.
func uniqueViolationMessage(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return ""
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return "Username already exists. Please choose a different username."
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "Email already exists. Please use a different email or try logging in."
	case strings.Contains(pgErr.ConstraintName, "phone_number"):
		return "Phone number already exists. Please use a different phone number."
	case strings.Contains(pgErr.ConstraintName, "reg_number"):
		return "Registration number already exists. Please check your registration number."
	default:
		return "A user with these details already exists."
	}
}

// issueTokens creates the access/refresh pair and persists the refresh
// token digest.
func (h *Handler) issueTokens(ctx context.Context, user *models.User) (*authResponse, error) {
	accessToken, err := h.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	refreshToken, err := h.jwt.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	hash := auth.HashToken(refreshToken, h.cfg.Auth.PasswordPepper)
	expiresAt := time.Now().Add(h.cfg.JWT.RefreshTokenExpiry)
	if err := h.store.StoreRefreshToken(ctx, user.ID, hash, expiresAt); err != nil {
		return nil, err
	}

	return &authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.cfg.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}

// newCSRFToken mints and stores a CSRF token, optionally bound to a user.
func (h *Handler) newCSRFToken(ctx context.Context, userID *uuid.UUID) (string, error) {
	token, err := auth.GenerateCSRFToken()
	if err != nil {
		return "", err
	}
	if err := h.store.CreateCSRFToken(ctx, token, userID, h.cfg.Auth.CSRFTokenExpiry); err != nil {
		return "", err
	}
	return token, nil
}

// Register creates an unverified account and emails the verification OTP.
// Unverified accounts holding a requested unique field are replaced.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ctx := r.Context()

	conflicts := []struct {
		find    func() (*models.User, error)
		message string
	}{
		{func() (*models.User, error) { return h.store.FindUserByUsername(ctx, req.Username) }, "Username already exists"},
		{func() (*models.User, error) { return h.store.FindUserByEmail(ctx, req.Email) }, "Email already exists"},
		{func() (*models.User, error) { return h.store.FindUserByPhone(ctx, req.PhoneNumber) }, "Phone number already exists"},
		{func() (*models.User, error) { return h.store.FindUserByRegNumber(ctx, req.RegNumber) }, "Registration number already exists"},
	}
	for _, c := range conflicts {
		existing, err := c.find()
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "Database error")
			return
		}
		if existing == nil {
			continue
		}
		if existing.EmailVerified {
			httpx.Error(w, http.StatusConflict, c.message)
			return
		}
		// Stale unverified signup holding the field; replace it.
		if err := h.store.DeleteUser(ctx, existing.ID); err != nil {
			httpx.Error(w, http.StatusInternalServerError, "Database error")
			return
		}
	}

	salt, err := auth.GenerateSalt()
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	passwordHash, err := auth.HashPassword(req.Password, salt, h.cfg.Auth.PasswordPepper)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user, err := h.store.CreateUser(ctx, CreateUserParams{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Salt:         salt,
		RegNumber:    req.RegNumber,
		YearJoined:   req.YearJoined,
		PhoneNumber:  req.PhoneNumber,
	})
	if err != nil {
		if msg := uniqueViolationMessage(err); msg != "" {
			httpx.Error(w, http.StatusConflict, msg)
			return
		}
		logging.Ctx(ctx).Error().Err(err).Msg("user creation failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create verification OTP")
		return
	}
	if err := h.store.CreateEmailVerificationOTP(ctx, user.ID, otp, h.cfg.Auth.EmailVerificationExpiry); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create verification OTP")
		return
	}

	// Delivery is best effort; the user can request a resend.
	if err := h.email.SendVerificationEmail(ctx, user.Email, user.Username, otp); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to send verification email")
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message": "Registration successful. Please check your email for the verification code.",
		"user":    user,
	})
}

// Login authenticates by username or email and returns the token bundle.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ctx := r.Context()

	var user *models.User
	var err error
	if strings.Contains(req.UsernameOrEmail, "@") {
		user, err = h.store.FindUserByEmail(ctx, req.UsernameOrEmail)
	} else {
		user, err = h.store.FindUserByUsername(ctx, req.UsernameOrEmail)
	}
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password, h.cfg.Auth.PasswordPepper)
	if err != nil || !ok {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !user.EmailVerified {
		metrics.LoginsTotal.WithLabelValues("unverified").Inc()
		httpx.Error(w, http.StatusForbidden, "Please verify your email before logging in")
		return
	}

	tokens, err := h.issueTokens(ctx, user)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("token issuance failed")
		httpx.Error(w, http.StatusInternalServerError, "Failed to create tokens")
		return
	}
	csrfToken, err := h.newCSRFToken(ctx, &user.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create CSRF token")
		return
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"auth":       tokens,
		"csrf_token": csrfToken,
	})
}

// Refresh rotates the refresh token and returns a fresh pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ctx := r.Context()

	claims, err := h.jwt.ValidateToken(req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	hash := auth.HashToken(req.RefreshToken, h.cfg.Auth.PasswordPepper)
	stored, err := h.store.FindRefreshToken(ctx, hash)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if stored == nil {
		httpx.Error(w, http.StatusUnauthorized, "Refresh token not found or expired")
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		httpx.Error(w, http.StatusUnauthorized, "Invalid user ID in token")
		return
	}
	user, err := h.store.FindUserByID(ctx, userID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		httpx.Error(w, http.StatusUnauthorized, "User not found")
		return
	}

	// Rotation: the old token is burned before the new pair is issued.
	if err := h.store.DeleteRefreshToken(ctx, hash); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	tokens, err := h.issueTokens(ctx, user)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create tokens")
		return
	}

	httpx.JSON(w, http.StatusOK, tokens)
}

// Logout invalidates every refresh token the caller holds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if err := h.store.DeleteUserRefreshTokens(r.Context(), id.UserID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete refresh tokens")
		return
	}
	httpx.Message(w, http.StatusOK, "Logged out successfully")
}

// Me returns the caller's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	user, err := h.store.FindUserByID(r.Context(), id.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// CSRFToken mints an unbound CSRF token for pre-login forms.
func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.newCSRFToken(r.Context(), nil)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create CSRF token")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

// VerifyEmail checks the registration OTP and, on success, verifies the
// account and logs the user straight in.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ctx := r.Context()

	user, err := h.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}

	switch err := h.store.VerifyEmailOTP(ctx, user.ID, req.OTP, h.cfg.Auth.OTPMaxAttempts); {
	case err == nil:
	case errors.Is(err, ErrOTPTooManyAttempts):
		httpx.Error(w, http.StatusTooManyRequests, "Too many failed attempts. Please request a new OTP.")
		return
	case errors.Is(err, ErrOTPExpired):
		httpx.Error(w, http.StatusBadRequest, "OTP has expired. Please request a new one.")
		return
	case errors.Is(err, ErrOTPInvalid):
		httpx.Error(w, http.StatusBadRequest, "Invalid OTP")
		return
	default:
		httpx.Error(w, http.StatusInternalServerError, "Failed to verify OTP")
		return
	}

	user, err = h.store.FindUserByID(ctx, user.ID)
	if err != nil || user == nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := h.email.SendWelcomeEmail(ctx, user.Email, user.Username); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to send welcome email")
	}

	tokens, err := h.issueTokens(ctx, user)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create tokens")
		return
	}
	csrfToken, err := h.newCSRFToken(ctx, &user.ID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create CSRF token")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":    "Email verified successfully",
		"user":       user,
		"auth":       tokens,
		"csrf_token": csrfToken,
	})
}

// ResendVerification issues a fresh OTP, throttled per user.
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ctx := r.Context()

	user, err := h.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if user.EmailVerified {
		httpx.Message(w, http.StatusOK, "Email already verified")
		return
	}

	if existing, err := h.store.FindEmailVerificationOTP(ctx, user.ID); err == nil && existing != nil {
		if time.Since(existing.LastSentAt) < h.cfg.Auth.OTPResendCooldown {
			httpx.Error(w, http.StatusTooManyRequests, "Please wait before requesting a new OTP")
			return
		}
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create verification OTP")
		return
	}
	if err := h.store.CreateEmailVerificationOTP(ctx, user.ID, otp, h.cfg.Auth.EmailVerificationExpiry); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create verification OTP")
		return
	}
	if err := h.email.SendVerificationEmail(ctx, user.Email, user.Username, otp); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to send verification email")
		return
	}

	httpx.Message(w, http.StatusOK, "Verification OTP sent")
}

// resetRequestedMessage never reveals whether the email exists.
const resetRequestedMessage = "If the email exists, a password reset OTP has been sent"

// RequestPasswordReset issues a reset OTP for known emails.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ctx := r.Context()

	user, err := h.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if user == nil {
		httpx.Message(w, http.StatusOK, resetRequestedMessage)
		return
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create reset OTP")
		return
	}
	if err := h.store.CreatePasswordResetOTP(ctx, user.ID, user.Email, otp, h.cfg.Auth.PasswordResetExpiry); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to create reset OTP")
		return
	}
	if err := h.email.SendPasswordResetEmail(ctx, user.Email, user.Username, otp); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to send password reset email")
	}

	httpx.Message(w, http.StatusOK, resetRequestedMessage)
}

// ResetPassword sets a new password after OTP verification and logs the
// user out everywhere.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ctx := r.Context()

	token, err := h.store.FindPasswordResetByEmail(ctx, req.Email)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if token == nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	if token.Attempts >= h.cfg.Auth.OTPMaxAttempts {
		httpx.Error(w, http.StatusTooManyRequests, "Too many attempts. Please request a new OTP.")
		return
	}
	if req.OTP != token.OTP {
		attempts, err := h.store.IncrementPasswordResetAttempts(ctx, req.Email)
		if err != nil {
			httpx.Error(w, http.StatusInternalServerError, "Database error")
			return
		}
		remaining := h.cfg.Auth.OTPMaxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		httpx.ErrorWithAttempts(w, http.StatusUnauthorized, "Invalid OTP", remaining)
		return
	}

	salt, err := auth.GenerateSalt()
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	passwordHash, err := auth.HashPassword(req.NewPassword, salt, h.cfg.Auth.PasswordPepper)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	if err := h.store.UpdateUserPassword(ctx, token.UserID, passwordHash, salt); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to update password")
		return
	}
	if err := h.store.MarkPasswordResetUsed(ctx, req.Email); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to mark OTP as used")
		return
	}
	if err := h.store.DeleteUserRefreshTokens(ctx, token.UserID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete refresh tokens")
		return
	}

	httpx.Message(w, http.StatusOK, "Password reset successfully")
}

// AdminCheck reports whether the caller holds the admin capability. Sibling
// services call this to authorize their own admin routes.
func (h *Handler) AdminCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	isAdmin, err := h.store.IsAdmin(r.Context(), id.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"is_admin": isAdmin})
}

// AdminListUsers returns a paginated user list with admin flags.
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, 20)
	users, total, err := h.store.ListUsers(r.Context(), page.PerPage, page.Offset())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":    users,
		"total":    total,
		"page":     page.Number,
		"per_page": page.PerPage,
	})
}

// AdminPromote grants another user the admin capability.
func (h *Handler) AdminPromote(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ctx := r.Context()

	caller, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	target, err := h.store.FindUserByID(ctx, req.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if target == nil {
		httpx.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if err := h.store.PromoteUser(ctx, req.UserID, caller.UserID); err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}

	logging.Ctx(ctx).Info().
		Str("user_id", req.UserID.String()).
		Str("granted_by", caller.UserID.String()).
		Msg("user promoted to admin")
	httpx.Message(w, http.StatusOK, "User promoted to admin")
}

// AdminDemote revokes another user's admin capability.
func (h *Handler) AdminDemote(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if !decodeValid(w, r, &req) {
		return
	}
	ctx := r.Context()

	removed, err := h.store.DemoteUser(ctx, req.UserID)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !removed {
		httpx.Error(w, http.StatusNotFound, "User is not an admin")
		return
	}

	logging.Ctx(ctx).Info().Str("user_id", req.UserID.String()).Msg("admin privileges revoked")
	httpx.Message(w, http.StatusOK, "Admin privileges revoked")
}
