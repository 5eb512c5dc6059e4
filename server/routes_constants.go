package server

// Route path constants
// All gateway routes are defined here to ensure consistency and prevent typos
const (
	// OAuth2 flow routes
	RouteAuthorize = "/oauth2/authorize"
	RouteSubmit    = "/oauth2/submit"
	RouteToken     = "/oauth2/token"
	RouteRegister  = "/oauth2/register"
	RouteRevoke    = "/oauth2/revoke"

	// Discovery documents
	RouteProtectedResourceMetadata = "/.well-known/oauth-protected-resource"
	RouteAuthServerMetadata        = "/.well-known/oauth-authorization-server"

	// Protocol endpoint
	RouteProtocol = "/mcp"

	// Health
	RouteHealthz = "/healthz"
)
