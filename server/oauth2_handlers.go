package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/gridbase/gridgate/auth"
	"github.com/gridbase/gridgate/backend"
	errs "github.com/gridbase/gridgate/internal/errors"
)

// Authorize begins the authorization flow: it validates the request, stores
// a pending authorization and renders the credential-collection form keyed
// to the pending id. No authentication happens here.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		req := &auth.AuthorizeRequest{
			ResponseType:        query.Get("response_type"),
			ClientID:            query.Get("client_id"),
			RedirectURI:         query.Get("redirect_uri"),
			State:               query.Get("state"),
			CodeChallenge:       query.Get("code_challenge"),
			CodeChallengeMethod: query.Get("code_challenge_method"),
		}

		pendingID, err := s.auth.Authorize(req)
		if err != nil {
			writeJSONError(w, auth.OAuthErrorCode(err), err.Error(), http.StatusBadRequest)
			return
		}

		s.renderCredentialForm(w, http.StatusOK, CredentialFormData{AuthID: pendingID})
	}
}

// Submit processes the credential form. Credentials are trusted only after
// a live connectivity test; on failure the form is re-rendered and the
// pending record stays retriable until its TTL or attempt cap.
func (s *Server) Submit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, auth.ErrorCodeInvalidRequest, "failed to parse form data", http.StatusBadRequest)
			return
		}

		authID := r.FormValue("auth_id")
		creds := backend.Credentials{
			ServerURL: r.FormValue("server_url"),
			Email:     r.FormValue("email"),
			Password:  r.FormValue("password"),
		}

		result, err := s.auth.Submit(r.Context(), authID, creds)
		if err != nil {
			s.submitError(w, authID, creds, err)
			return
		}

		redirect, err := callbackURL(result)
		if err != nil {
			writeJSONError(w, auth.ErrorCodeInvalidRequest, err.Error(), http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}

func (s *Server) submitError(w http.ResponseWriter, authID string, creds backend.Credentials, err error) {
	switch {
	case errs.Is(err, errs.ErrPendingNotFound), errs.Is(err, errs.ErrPendingExpired):
		writeJSONError(w, auth.ErrorCodeInvalidRequest, "unknown or expired authorization request", http.StatusBadRequest)
	case errs.Is(err, errs.ErrTooManyAttempts):
		writeJSONError(w, auth.ErrorCodeInvalidRequest, "too many failed attempts, restart the authorization", http.StatusBadRequest)
	case errs.Is(err, errs.ErrMissingCredentials):
		s.renderCredentialForm(w, http.StatusBadRequest, CredentialFormData{
			AuthID:    authID,
			Error:     "Server URL, email and password are all required",
			ServerURL: creds.ServerURL,
			Email:     creds.Email,
		})
	case errs.Is(err, errs.ErrBackendRejected), errs.Is(err, errs.ErrBackendUnavailable):
		s.renderCredentialForm(w, http.StatusOK, CredentialFormData{
			AuthID:    authID,
			Error:     "Could not sign in to your Gridbase server with these credentials. Please check them and try again.",
			ServerURL: creds.ServerURL,
			Email:     creds.Email,
		})
	default:
		log.Err(err).Msg("credential submission failed")
		writeJSONError(w, auth.ErrorCodeServerError, "submission failed", http.StatusInternalServerError)
	}
}

// Token exchanges a code or refresh token for session tokens.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, auth.ErrorCodeInvalidRequest, "failed to parse form data", http.StatusBadRequest)
			return
		}

		tokenReq := &auth.TokenRequest{
			GrantType:    r.FormValue("grant_type"),
			Code:         r.FormValue("code"),
			CodeVerifier: r.FormValue("code_verifier"),
			RefreshToken: r.FormValue("refresh_token"),
		}

		tokenResponse, err := s.auth.Token(tokenReq)
		if err != nil {
			writeJSONError(w, auth.OAuthErrorCode(err), err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		_ = json.NewEncoder(w).Encode(tokenResponse)
	}
}

// Revoke destroys the session holding the supplied token. Per RFC 7009 an
// unknown token still yields 200.
func (s *Server) Revoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, auth.ErrorCodeInvalidRequest, "failed to parse form data", http.StatusBadRequest)
			return
		}

		rawToken := r.FormValue("token")
		if rawToken == "" {
			writeJSONError(w, auth.ErrorCodeInvalidRequest, "token parameter is required", http.StatusBadRequest)
			return
		}

		if err := s.auth.Revoke(rawToken); err != nil {
			log.Debug().Err(err).Msg("revocation of unknown token")
		}
		w.WriteHeader(http.StatusOK)
	}
}

// callbackURL appends code and state to the original redirect URI.
func callbackURL(result *auth.SubmitResult) (string, error) {
	u, err := url.Parse(result.RedirectURI)
	if err != nil {
		return "", errs.Wrapf(errs.ErrInvalidRequest, "invalid redirect URI: %v", err)
	}
	q := u.Query()
	q.Set("code", result.Code)
	if result.State != "" {
		q.Set("state", result.State)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
