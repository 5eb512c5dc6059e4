package authclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridbase/gridgate/authclient"
)

// fakeGateway serves the metadata, registration and token endpoints the flow
// client talks to.
func fakeGateway(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var ts *httptest.Server

	mux.HandleFunc("GET /.well-known/oauth-authorization-server", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 ts.URL,
			"authorization_endpoint": ts.URL + "/oauth2/authorize",
			"token_endpoint":         ts.URL + "/oauth2/token",
			"registration_endpoint":  ts.URL + "/oauth2/register",
		})
	})
	mux.HandleFunc("POST /oauth2/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"client_id":     "minted-client",
			"client_secret": "minted-secret",
		})
	})
	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.FormValue("code") != "good-code" || r.FormValue("code_verifier") == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "issued-access",
			"token_type":    "Bearer",
			"expires_in":    86400,
			"refresh_token": "issued-refresh",
		})
	})

	ts = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestDiscover(t *testing.T) {
	ts := fakeGateway(t)

	metadata, err := authclient.Discover(context.Background(), ts.Client(), ts.URL)
	require.NoError(t, err)
	require.Equal(t, ts.URL, metadata.Issuer)
	require.Equal(t, ts.URL+"/oauth2/token", metadata.TokenEndpoint)
	require.Equal(t, ts.URL+"/oauth2/register", metadata.RegistrationEndpoint)
}

func TestNew_RegistersWhenNoClientID(t *testing.T) {
	ts := fakeGateway(t)

	client, err := authclient.New(context.Background(), authclient.Config{
		GatewayURL:  ts.URL,
		RedirectURL: "http://localhost:3000/callback",
		HTTPClient:  ts.Client(),
	})
	require.NoError(t, err)

	authURL, err := url.Parse(client.AuthCodeURL("state-123"))
	require.NoError(t, err)
	q := authURL.Query()
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "minted-client", q.Get("client_id"))
	require.Equal(t, "state-123", q.Get("state"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.NotEmpty(t, q.Get("code_challenge"))
}

func TestExchange_SendsVerifier(t *testing.T) {
	ts := fakeGateway(t)

	client, err := authclient.New(context.Background(), authclient.Config{
		GatewayURL:  ts.URL,
		ClientID:    "preset-client",
		RedirectURL: "http://localhost:3000/callback",
		HTTPClient:  ts.Client(),
	})
	require.NoError(t, err)

	tok, err := client.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	require.Equal(t, "issued-access", tok.AccessToken)
	require.Equal(t, "issued-refresh", tok.RefreshToken)

	_, err = client.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
}

func TestGenerateState(t *testing.T) {
	first, err := authclient.GenerateState()
	require.NoError(t, err)
	second, err := authclient.GenerateState()
	require.NoError(t, err)

	require.NotEmpty(t, first)
	require.NotEqual(t, first, second)
}
