// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package authsvc

import "errors"

// OTP verification outcomes, mapped to HTTP responses by the handlers.
var (
	ErrOTPInvalid         = errors.New("invalid otp")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPTooManyAttempts = errors.New("too many otp attempts")
)
