package server

func (s *Server) initRoutes() {
	// OAuth2 flow
	s.RegisterRouteFunc("GET "+RouteAuthorize, s.Authorize())
	s.RegisterRouteFunc("POST "+RouteSubmit, s.Submit())
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRevoke, ChainMiddleware(s.Revoke(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterClient(), s.APIMiddleware()...))

	// Discovery documents
	s.RegisterRouteHandler("GET "+RouteProtectedResourceMetadata, ChainMiddleware(s.ProtectedResourceMetadata(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthServerMetadata, ChainMiddleware(s.AuthServerMetadata(), s.APIMiddleware()...))

	// Protocol endpoint
	s.RegisterRouteHandler("POST "+RouteProtocol, ChainMiddleware(s.Protocol(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteProtocol, ChainMiddleware(s.ProtocolProbe(), s.APIMiddleware()...))

	// Health
	s.RegisterRouteFunc("GET "+RouteHealthz, s.Healthz())
}
