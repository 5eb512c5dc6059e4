package auth

import (
	errs "github.com/gridbase/gridgate/internal/errors"
)

// OAuth2 error code strings returned on the wire.
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidGrant            = "invalid_grant"
	ErrorCodeUnsupportedResponseType = "unsupported_response_type"
	ErrorCodeUnsupportedGrantType    = "unsupported_grant_type"
	ErrorCodeServerError             = "server_error"
)

// OAuthErrorCode maps a service error to its wire-level OAuth2 error code.
func OAuthErrorCode(err error) string {
	switch {
	case errs.Is(err, errs.ErrUnsupportedResponseType):
		return ErrorCodeUnsupportedResponseType
	case errs.Is(err, errs.ErrUnsupportedGrantType):
		return ErrorCodeUnsupportedGrantType
	case errs.Is(err, errs.ErrInvalidGrant),
		errs.Is(err, errs.ErrCodeNotFound),
		errs.Is(err, errs.ErrCodeExpired),
		errs.Is(err, errs.ErrInvalidRefreshToken),
		errs.Is(err, errs.ErrPKCEMismatch):
		return ErrorCodeInvalidGrant
	case errs.Is(err, errs.ErrInvalidRequest),
		errs.Is(err, errs.ErrPendingNotFound),
		errs.Is(err, errs.ErrPendingExpired):
		return ErrorCodeInvalidRequest
	}
	return ErrorCodeServerError
}
