// Package authclient is the agent-side helper for the gateway's OAuth flow.
// It discovers the authorization-server metadata, registers a client, and
// drives the authorization-code-with-PKCE exchange on top of
// golang.org/x/oauth2.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Metadata is the authorization-server discovery document subset the client
// needs.
type Metadata struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	RegistrationEndpoint  string `json:"registration_endpoint"`
}

// Registration is the minted client id/secret pair.
type Registration struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Config configures a flow client.
type Config struct {
	// GatewayURL is the base URL of the gateway.
	GatewayURL string
	// ClientID identifies this agent. Leave empty to register dynamically.
	ClientID string
	// RedirectURL receives the authorization code.
	RedirectURL string
	// HTTPClient overrides the transport (primarily for testing).
	HTTPClient *http.Client
}

// Client drives the code+PKCE flow against one gateway.
type Client struct {
	oauth      oauth2.Config
	verifier   string
	httpClient *http.Client
}

// Discover fetches the authorization-server metadata document.
func Discover(ctx context.Context, httpClient *http.Client, gatewayURL string) (*Metadata, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gatewayURL+"/.well-known/oauth-authorization-server", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[authclient.Discover] build request")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[authclient.Discover] fetch metadata")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("[authclient.Discover] metadata endpoint returned %d", resp.StatusCode)
	}

	var metadata Metadata
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, errors.Wrap(err, "[authclient.Discover] decode metadata")
	}
	return &metadata, nil
}

// Register mints a client id/secret pair through dynamic registration.
func Register(ctx context.Context, httpClient *http.Client, registrationEndpoint, clientName string, redirectURIs []string) (*Registration, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	body, err := json.Marshal(map[string]any{
		"client_name":   clientName,
		"redirect_uris": redirectURIs,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[authclient.Register] encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, registrationEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "[authclient.Register] build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[authclient.Register] register client")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("[authclient.Register] registration endpoint returned %d", resp.StatusCode)
	}

	var registration Registration
	if err := json.NewDecoder(resp.Body).Decode(&registration); err != nil {
		return nil, errors.Wrap(err, "[authclient.Register] decode response")
	}
	return &registration, nil
}

// New discovers the gateway metadata and prepares a flow client. When no
// client id is configured one is registered dynamically.
func New(ctx context.Context, cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	metadata, err := Discover(ctx, httpClient, cfg.GatewayURL)
	if err != nil {
		return nil, err
	}

	clientID := cfg.ClientID
	if clientID == "" {
		registration, err := Register(ctx, httpClient, metadata.RegistrationEndpoint, "gridgate-agent", []string{cfg.RedirectURL})
		if err != nil {
			return nil, err
		}
		clientID = registration.ClientID
	}

	return &Client{
		oauth: oauth2.Config{
			ClientID:    clientID,
			RedirectURL: cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  metadata.AuthorizationEndpoint,
				TokenURL: metadata.TokenEndpoint,
			},
		},
		verifier:   oauth2.GenerateVerifier(),
		httpClient: httpClient,
	}, nil
}

// AuthCodeURL returns the authorization URL carrying the S256 PKCE
// challenge. The user completes the credential form behind it.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(c.verifier))
}

// Exchange redeems the single-use authorization code, sending the PKCE
// verifier paired with the challenge from AuthCodeURL.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.Exchange(ctx, code, oauth2.VerifierOption(c.verifier))
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Exchange] token exchange")
	}
	return tok, nil
}

// TokenSource returns a source that transparently refreshes through the
// gateway's rotating refresh tokens.
func (c *Client) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return c.oauth.TokenSource(ctx, tok)
}

// HTTPClient returns an HTTP client that attaches and refreshes the bearer
// token on every request.
func (c *Client) HTTPClient(ctx context.Context, tok *oauth2.Token) *http.Client {
	return oauth2.NewClient(ctx, c.TokenSource(ctx, tok))
}
