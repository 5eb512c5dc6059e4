package server

import (
	"encoding/json"
	"net/http"
)

// ProtectedResourceMetadata serves the protected-resource discovery
// document. Its URL is also the discoverability hint returned with every
// unauthenticated protocol call.
func (s *Server) ProtectedResourceMetadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		baseURL := s.config.GetBaseURL()

		resp := map[string]any{
			"resource":                 baseURL + RouteProtocol,
			"authorization_servers":    []string{baseURL},
			"scopes_supported":         []string{s.config.GetScope()},
			"bearer_methods_supported": []string{"header"},
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// AuthServerMetadata serves the authorization-server discovery document.
func (s *Server) AuthServerMetadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		baseURL := s.config.GetBaseURL()

		resp := map[string]any{
			"issuer":                 baseURL,
			"authorization_endpoint": baseURL + RouteAuthorize,
			"token_endpoint":         baseURL + RouteToken,
			"registration_endpoint":  baseURL + RouteRegister,
			"revocation_endpoint":    baseURL + RouteRevoke,

			"response_types_supported":         []string{"code"},
			"grant_types_supported":            []string{"authorization_code", "refresh_token"},
			"code_challenge_methods_supported": []string{"plain", "S256"},
			"scopes_supported":                 []string{s.config.GetScope()},

			// Public clients only; the single first-party flow has no client
			// secrets at the token endpoint.
			"token_endpoint_auth_methods_supported": []string{"none"},
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
