package server

import (
	"html/template"
	"net/http"

	"github.com/rs/zerolog/log"
)

const contentTypeHTML = "text/html; charset=utf-8"
const contentTypeJSON = "application/json; charset=utf-8"

// credentialFormTemplate is the single HTML surface of the gateway: the
// credential-collection form rendered by the authorize endpoint and
// re-rendered on failed submissions.
var credentialFormTemplate = template.Must(template.New("credential_form").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.AppName}} - Connect your Gridbase account</title>
  <style>
    body { font-family: sans-serif; max-width: 28rem; margin: 4rem auto; padding: 0 1rem; }
    label { display: block; margin-top: 1rem; font-weight: bold; }
    input { width: 100%; padding: 0.5rem; margin-top: 0.25rem; box-sizing: border-box; }
    button { margin-top: 1.5rem; padding: 0.6rem 1.4rem; }
    .error { color: #b00020; margin-top: 1rem; }
    .note { color: #555; font-size: 0.85rem; margin-top: 1rem; }
  </style>
</head>
<body>
  <h1>Connect your Gridbase account</h1>
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
  <form method="POST" action="{{.SubmitPath}}">
    <input type="hidden" name="auth_id" value="{{.AuthID}}">
    <label for="server_url">Server URL</label>
    <input type="url" id="server_url" name="server_url" value="{{.ServerURL}}" placeholder="https://grid.example.com" required>
    <label for="email">Email</label>
    <input type="email" id="email" name="email" value="{{.Email}}" required>
    <label for="password">Password</label>
    <input type="password" id="password" name="password" required>
    <button type="submit">Authorize</button>
  </form>
  <p class="note">Your credentials are verified against your server and kept only for this session. The gateway never stores them durably.</p>
</body>
</html>
`))

// CredentialFormData contains data for rendering the credential form.
type CredentialFormData struct {
	AppName    string
	SubmitPath string
	AuthID     string
	Error      string
	ServerURL  string // Preserve non-secret fields on error
	Email      string
}

func (s *Server) renderCredentialForm(w http.ResponseWriter, status int, data CredentialFormData) {
	data.AppName = s.config.GetAppName()
	data.SubmitPath = RouteSubmit

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := credentialFormTemplate.Execute(w, data); err != nil {
		log.Err(err).Msg("failed to render credential form")
	}
}
