package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gridbase/gridgate/executor"
	"github.com/gridbase/gridgate/session"
)

// Protocol method names. The first four execute without a bearer token:
// the capability handshake, the operation-catalog listing and the two no-op
// acknowledgements. Everything else requires a resolved session.
const (
	methodInitialize  = "initialize"
	methodToolsList   = "tools/list"
	methodInitialized = "notifications/initialized"
	methodPing        = "ping"
	methodToolsCall   = "tools/call"
)

// Protocol error codes, JSON-RPC style.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeAuthRequired   = -32001
)

const protocolVersion = "2025-03-26"

type protocolRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type protocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type protocolResponse struct {
	ID     json.RawMessage `json:"id"`
	Result any             `json:"result,omitempty"`
	Error  *protocolError  `json:"error,omitempty"`
}

type toolCallParams struct {
	Name      string        `json:"name"`
	Arguments executor.Args `json:"arguments,omitempty"`
}

// Protocol is the request dispatcher and auth gate. It classifies every
// inbound call by method name, resolves bearer tokens to sessions for the
// protected methods, and hands authenticated calls to the Command Executor
// with a fresh backend client scoped to the session's credentials.
func (s *Server) Protocol() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req protocolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProtocolError(w, http.StatusBadRequest, nil, codeParseError, "failed to parse request envelope")
			return
		}
		if req.Method == "" {
			writeProtocolError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method is required")
			return
		}

		if !s.requiresSession(req.Method) {
			s.dispatchOpen(w, &req)
			return
		}

		sess, ok := s.resolveBearer(w, r, req.ID)
		if !ok {
			return
		}
		s.dispatchAuthenticated(w, r, &req, sess)
	}
}

// requiresSession classifies a method against the unauthenticated
// allow-list.
func (s *Server) requiresSession(method string) bool {
	switch method {
	case methodInitialize, methodToolsList, methodInitialized, methodPing:
		return false
	}
	return true
}

func (s *Server) dispatchOpen(w http.ResponseWriter, req *protocolRequest) {
	switch req.Method {
	case methodInitialize:
		writeProtocolResult(w, req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"serverInfo": map[string]string{
				"name":    s.config.GetAppName(),
				"version": Version,
			},
			"capabilities": map[string]any{
				"tools": map[string]any{"listChanged": false},
			},
		})
	case methodToolsList:
		writeProtocolResult(w, req.ID, map[string]any{
			"tools": s.exec.Catalog(),
		})
	case methodInitialized, methodPing:
		writeProtocolResult(w, req.ID, map[string]any{})
	}
}

// resolveBearer resolves the Authorization header to a session. A miss
// responds with a structured authentication-required error plus a
// discoverability hint pointing at the protected-resource metadata
// document.
func (s *Server) resolveBearer(w http.ResponseWriter, r *http.Request, id json.RawMessage) (*session.Session, bool) {
	metadataURL := s.config.GetBaseURL() + RouteProtectedResourceMetadata

	rawToken, ok := bearerToken(r)
	if ok {
		sess, err := s.auth.ResolveBearer(rawToken)
		if err == nil {
			return sess, true
		}
		log.Debug().Err(err).Msg("bearer token did not resolve")
	}

	w.Header().Set("WWW-Authenticate",
		fmt.Sprintf("Bearer realm=%q, resource_metadata=%q", s.config.GetBaseURL(), metadataURL))
	writeProtocolError(w, http.StatusUnauthorized, id, codeAuthRequired,
		"authentication required: obtain a token via the flow described at "+metadataURL)
	return nil, false
}

func (s *Server) dispatchAuthenticated(w http.ResponseWriter, r *http.Request, req *protocolRequest, sess *session.Session) {
	if req.Method != methodToolsCall {
		writeProtocolError(w, http.StatusOK, req.ID, codeMethodNotFound, "unknown method "+req.Method)
		return
	}

	var params toolCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeProtocolError(w, http.StatusOK, req.ID, codeInvalidParams, "invalid tool call parameters")
			return
		}
	}
	if params.Name == "" {
		writeProtocolError(w, http.StatusOK, req.ID, codeInvalidParams, "tool name is required")
		return
	}

	// A fresh backend client per call; credentials are never cached across
	// requests.
	client := s.backendFactory(sess.Credentials)
	result := s.exec.Execute(r.Context(), client, params.Name, params.Arguments)

	writeProtocolResult(w, req.ID, map[string]any{
		"kind": result.Kind,
		"content": []map[string]string{
			{"type": "text", "text": result.Text},
		},
		"isError": result.IsError,
	})
}

// ProtocolProbe answers GET on the protocol path with the static
// capability/handshake document.
func (s *Server) ProtocolProbe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":            s.config.GetAppName(),
			"version":         Version,
			"protocolVersion": protocolVersion,
			"capabilities":    []string{"tools"},
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func writeProtocolResult(w http.ResponseWriter, id json.RawMessage, result any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	_ = json.NewEncoder(w).Encode(protocolResponse{ID: id, Result: result})
}

func writeProtocolError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(protocolResponse{
		ID:    id,
		Error: &protocolError{Code: code, Message: message},
	})
}
