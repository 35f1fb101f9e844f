package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a token that does not parse or verify.
	ErrInvalidToken = errors.New("invalid token")
	// ErrOTPExpired occurs when a one-time code is no longer valid.
	ErrOTPExpired = errors.New("one-time code expired")
	// ErrOTPMismatch occurs when a one-time code does not match.
	ErrOTPMismatch = errors.New("one-time code mismatch")
	// ErrTooManyAttempts occurs when OTP verification exceeds the retry cap.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
