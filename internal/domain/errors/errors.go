package errors

import (
	"fmt"
	"maps"
	"net/http"

	"authcore/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-facing error message, rendered as the "error" field
	Details() string   // Detailed error information (optional)
}

// ExtraFielder is implemented by errors that carry additional response fields.
type ExtraFielder interface {
	Extra() map[string]any
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
	extra     map[string]any
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// Is matches any BaseError carrying the same business error code, so derived
// copies still satisfy errors.Is against the predefined value.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)

	return ok && t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-facing error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// Extra returns additional fields rendered next to "error".
func (e *BaseError) Extra() map[string]any {
	return e.extra
}

func (e *BaseError) clone() *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   e.details,
		extra:     maps.Clone(e.extra),
	}
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	cloned := e.clone()
	cloned.details = details

	return cloned
}

// WithField attaches an extra response field.
func (e *BaseError) WithField(key string, value any) *BaseError {
	cloned := e.clone()
	if cloned.extra == nil {
		cloned.extra = make(map[string]any, 1)
	}
	cloned.extra[key] = value

	return cloned
}

// WithHint attaches a human readable "message" field.
func (e *BaseError) WithHint(message string) *BaseError {
	return e.WithField("message", message)
}

// WithRetryAfter attaches the "retryAfter" field in whole seconds.
func (e *BaseError) WithRetryAfter(seconds int) *BaseError {
	return e.WithField("retryAfter", seconds)
}

// NewWrongProviderError reports that the account must sign in through another provider.
func NewWrongProviderError(provider string) *BaseError {
	cloned := ErrWrongProvider.clone()
	cloned.message = fmt.Sprintf("Please sign in with %s", provider)
	cloned.extra = map[string]any{"provider": provider}

	return cloned
}

// Predefined error types
var (
	// Validation
	ErrValidationFailed = NewBaseError(http.StatusBadRequest, "VALIDATION_FAILED", "Invalid input", "")

	// Credentials
	ErrInvalidCredentials = NewBaseError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials", "")
	ErrWrongProvider      = NewBaseError(http.StatusBadRequest, "WRONG_PROVIDER", "Please sign in with your identity provider", "")
	ErrEmailNotVerified   = NewBaseError(http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Email not verified", "").
				WithHint("Please verify your email before logging in. Check your inbox for the verification link.")
	ErrNotAuthenticated = NewBaseError(http.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated", "")

	// Users
	ErrUserAlreadyExists  = NewBaseError(http.StatusBadRequest, "USER_ALREADY_EXISTS", "User already exists", "")
	ErrUserCreationFailed = NewBaseError(http.StatusInternalServerError, "USER_CREATION_FAILED", "Failed to create user", "")
	ErrUserNotFound       = NewBaseError(http.StatusNotFound, "USER_NOT_FOUND", "User not found", "")
	// ErrSessionUserNotFound is returned when a session outlives its account.
	ErrSessionUserNotFound = NewBaseError(http.StatusUnauthorized, "SESSION_USER_NOT_FOUND", "User not found", "")

	// Tokens
	ErrNoRefreshToken      = NewBaseError(http.StatusUnauthorized, "NO_TOKEN", "No refresh token provided", "")
	ErrInvalidTokenType    = NewBaseError(http.StatusUnauthorized, "INVALID_TOKEN_TYPE", "Invalid token type", "")
	ErrRefreshTokenInvalid = NewBaseError(http.StatusUnauthorized, "REFRESH_TOKEN_INVALID", "Invalid refresh token", "")
	ErrRefreshTokenExpired = NewBaseError(http.StatusUnauthorized, "REFRESH_TOKEN_EXPIRED", "Refresh token expired", "")
	ErrInvalidToken        = NewBaseError(http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token", "")

	// Email verification
	ErrVerificationTokenMissing = NewBaseError(http.StatusBadRequest, "VERIFICATION_TOKEN_MISSING", "Invalid verification token", "")
	ErrVerificationTokenInvalid = NewBaseError(http.StatusBadRequest, "VERIFICATION_TOKEN_INVALID", "Invalid or expired verification token", "")
	ErrVerificationTokenExpired = NewBaseError(http.StatusBadRequest, "VERIFICATION_TOKEN_EXPIRED", "Verification token has expired", "")
	ErrAlreadyVerified          = NewBaseError(http.StatusBadRequest, "ALREADY_VERIFIED", "Email already verified", "")
	ErrVerificationFailed       = NewBaseError(http.StatusInternalServerError, "VERIFICATION_FAILED", "Failed to verify email", "")
	ErrResendTargetRequired     = NewBaseError(http.StatusBadRequest, "RESEND_TARGET_REQUIRED", "Email or token required", "")
	ErrResendFailed             = NewBaseError(http.StatusInternalServerError, "RESEND_FAILED", "Failed to resend verification email", "")
	ErrNotEmailProvider         = NewBaseError(http.StatusBadRequest, "NOT_EMAIL_PROVIDER", "Email verification is only for email registrations", "")
	ErrCannotCancelVerified     = NewBaseError(http.StatusBadRequest, "CANNOT_CANCEL_VERIFIED", "Cannot cancel registration for verified user", "")
	ErrCancelFailed             = NewBaseError(http.StatusInternalServerError, "CANCEL_FAILED", "Failed to cancel registration", "")

	// Sessions
	ErrSessionIDRequired = NewBaseError(http.StatusBadRequest, "SESSION_ID_REQUIRED", "Session ID required", "")
	ErrSessionNotFound   = NewBaseError(http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", "")

	// OAuth callback failures. The lower-cased code is used as the redirect error parameter.
	ErrOAuthNoCode          = NewBaseError(http.StatusBadRequest, "NO_CODE", "Authorization code missing", "")
	ErrOAuthTokenExchange   = NewBaseError(http.StatusBadGateway, "TOKEN_EXCHANGE_FAILED", "Token exchange failed", "")
	ErrOAuthNoUserInfo      = NewBaseError(http.StatusBadGateway, "NO_USER_INFO", "Failed to fetch user info", "")
	ErrOAuthUserCreation    = NewBaseError(http.StatusInternalServerError, "USER_CREATION_FAILED", "Failed to create user", "")
	ErrOAuthFailed          = NewBaseError(http.StatusInternalServerError, "AUTH_FAILED", "Authentication failed", "")
	ErrOAuthNotConfigured   = NewBaseError(http.StatusInternalServerError, "OAUTH_NOT_CONFIGURED", "OAuth provider not configured", "")
	ErrUnknownOAuthProvider = NewBaseError(http.StatusBadRequest, "UNKNOWN_PROVIDER", "Unknown provider", "")

	// Routing and throttling
	ErrRateLimited      = NewBaseError(http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", "")
	ErrInvalidAction    = NewBaseError(http.StatusBadRequest, "INVALID_ACTION", "Invalid action", "")
	ErrMethodNotAllowed = NewBaseError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", "")

	// Upstream and general errors
	ErrUpstreamFailure = NewBaseError(http.StatusBadGateway, "UPSTREAM_FAILURE", "Upstream provider error", "")
	ErrInternalError   = NewBaseError(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", "")
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-facing error message
func (e *DatabaseExecuteError) Message() string {
	return "Internal server error"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
