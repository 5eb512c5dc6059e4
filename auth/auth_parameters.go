package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	errs "github.com/gridbase/gridgate/internal/errors"
)

// Supported OAuth2 response types, grant types and PKCE challenge methods.
const (
	CodeResponseType = "code"

	AuthorizationCodeGrant = "authorization_code"
	RefreshTokenGrant      = "refresh_token"

	CodeMethodPlain = "plain"
	CodeMethodS256  = "S256"
)

// AuthorizeRequest holds the parameters of an authorization request as
// received at the authorize endpoint.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// Validate checks the request and applies the "plain" default for the
// challenge method. No client validation happens here: any client id is
// accepted, registration is unconditional.
func (r *AuthorizeRequest) Validate() error {
	if r.ResponseType != CodeResponseType {
		return errs.Wrapf(errs.ErrUnsupportedResponseType, "response_type %q", r.ResponseType)
	}
	if strings.TrimSpace(r.RedirectURI) == "" {
		return errs.Wrapf(errs.ErrInvalidRequest, "redirect_uri is required")
	}
	if r.CodeChallengeMethod == "" {
		r.CodeChallengeMethod = CodeMethodPlain
	}
	switch r.CodeChallengeMethod {
	case CodeMethodPlain, CodeMethodS256:
	default:
		return errs.Wrapf(errs.ErrInvalidRequest, "code_challenge_method %q", r.CodeChallengeMethod)
	}
	return nil
}

// TokenRequest holds the form parameters of a token request.
type TokenRequest struct {
	GrantType    string
	Code         string
	CodeVerifier string
	RefreshToken string
}

// TokenResponse is the uniform response shape for both grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// checkCodeChallenge verifies a PKCE verifier against the stored challenge.
// An absent verifier passes; a supplied one must match (see DESIGN.md for
// the enforcement decision).
func checkCodeChallenge(storedChallenge, verifier, method string) bool {
	if verifier == "" {
		return true
	}
	if storedChallenge == "" {
		return false
	}
	switch method {
	case CodeMethodS256:
		hash := sha256.Sum256([]byte(verifier))
		derived := base64.RawURLEncoding.EncodeToString(hash[:])
		return subtle.ConstantTimeCompare([]byte(derived), []byte(storedChallenge)) == 1
	case CodeMethodPlain:
		return subtle.ConstantTimeCompare([]byte(verifier), []byte(storedChallenge)) == 1
	}
	return false
}
