package server

import (
	"encoding/json"
	"net/http"
)

// Healthz returns the fixed liveness document. Unauthenticated.
func (s *Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"service": s.config.GetAppName(),
			"version": Version,
		})
	}
}
