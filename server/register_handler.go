package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gridbase/gridgate/auth"
)

// ClientRegistrationRequest is the accepted subset of RFC 7591.
type ClientRegistrationRequest struct {
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
}

// ClientRegistrationResponse mints a fresh client id/secret pair.
type ClientRegistrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
}

// RegisterClient implements dynamic client registration. There is no client
// directory: every registration request is accepted and the minted pair is
// never persisted or validated afterwards.
func (s *Server) RegisterClient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClientRegistrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, auth.ErrorCodeInvalidRequest, "invalid registration body", http.StatusBadRequest)
			return
		}

		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			writeJSONError(w, auth.ErrorCodeServerError, "failed to mint client secret", http.StatusInternalServerError)
			return
		}

		authMethod := req.TokenEndpointAuthMethod
		if authMethod == "" {
			authMethod = "none"
		}

		resp := ClientRegistrationResponse{
			ClientID:                uuid.New().String(),
			ClientSecret:            hex.EncodeToString(secret),
			ClientIDIssuedAt:        time.Now().Unix(),
			ClientName:              req.ClientName,
			RedirectURIs:            req.RedirectURIs,
			TokenEndpointAuthMethod: authMethod,
			GrantTypes:              []string{"authorization_code", "refresh_token"},
			ResponseTypes:           []string{"code"},
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
