// Package server exposes the gateway's HTTP surface: the OAuth2 flow
// endpoints, the discovery documents, dynamic client registration, the
// protocol endpoint with its auth gate, and the health probe.
package server

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/gridbase/gridgate/auth"
	"github.com/gridbase/gridgate/backend"
	"github.com/gridbase/gridgate/executor"
	"github.com/gridbase/gridgate/internal/config"
)

// Deps are the collaborators the server dispatches into.
type Deps struct {
	Auth           *auth.Service
	Executor       *executor.Executor
	BackendFactory backend.Factory
}

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config

	auth           *auth.Service
	exec           *executor.Executor
	backendFactory backend.Factory
}

func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("[server.New] auth service is required")
	}
	if deps.Executor == nil {
		return nil, errors.New("[server.New] executor is required")
	}
	if deps.BackendFactory == nil {
		return nil, errors.New("[server.New] backend factory is required")
	}

	s := &Server{
		mux:            http.NewServeMux(),
		config:         cfg,
		auth:           deps.Auth,
		exec:           deps.Executor,
		backendFactory: deps.BackendFactory,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			log.Debug().Str("path", parts[0]).Msg("route registered")
		}
	}
}
