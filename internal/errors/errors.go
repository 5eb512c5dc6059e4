package errors

import (
	"errors"
	"fmt"
)

// Common error types for the gateway
var (
	// OAuth flow errors
	ErrInvalidRequest          = errors.New("invalid request")
	ErrInvalidGrant            = errors.New("invalid grant")
	ErrUnsupportedResponseType = errors.New("unsupported response type")
	ErrUnsupportedGrantType    = errors.New("unsupported grant type")

	// Pending authorization errors
	ErrPendingNotFound    = errors.New("pending authorization not found")
	ErrPendingExpired     = errors.New("pending authorization expired")
	ErrTooManyAttempts    = errors.New("too many failed submission attempts")
	ErrMissingCredentials = errors.New("missing credential fields")

	// Token errors
	ErrInvalidToken        = errors.New("invalid token")
	ErrCodeExpired         = errors.New("authorization code expired")
	ErrCodeNotFound        = errors.New("authorization code not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrPKCEMismatch        = errors.New("code verifier does not match challenge")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Backend collaborator errors
	ErrBackendRejected    = errors.New("backend rejected credentials")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrBackendNotFound    = errors.New("not found")

	// Executor errors
	ErrNotConfirmed     = errors.New("operation not confirmed")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrInvalidArgument  = errors.New("invalid argument")

	// General errors
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
