package auth_test

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridbase/gridgate/auth"
	"github.com/gridbase/gridgate/auth/authcode"
	"github.com/gridbase/gridgate/auth/pending"
	"github.com/gridbase/gridgate/backend"
	"github.com/gridbase/gridgate/backend/backendfakes"
	errs "github.com/gridbase/gridgate/internal/errors"
	"github.com/gridbase/gridgate/session"
	"github.com/gridbase/gridgate/token"
)

const (
	testRedirectURI  = "http://localhost:3000/callback"
	testState        = "random-state-value"
	testCodeVerifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
)

type memStore struct {
	sessions map[string]*session.Session
}

func (m *memStore) LoadAll() (map[string]*session.Session, error) {
	if m.sessions == nil {
		m.sessions = map[string]*session.Session{}
	}
	return m.sessions, nil
}

func (m *memStore) SaveAll(sessions map[string]*session.Session) error {
	m.sessions = sessions
	return nil
}

// testFixture holds all test dependencies
type testFixture struct {
	pendingRepo pending.Repo
	codeRepo    authcode.Repo
	sessions    *session.Registry
	backendFake *backendfakes.FakeClient
	service     *auth.Service
	clock       *time.Time
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	now := time.Now()
	clock := &now
	nowFunc := func() time.Time { return *clock }

	pendingRepo := pending.NewInMemoryRepo(10*time.Minute, pending.WithNowTime(nowFunc))
	codeRepo := authcode.NewInMemoryRepo(authcode.WithNowTime(nowFunc))

	sessions, err := session.NewRegistry(&memStore{}, session.WithNowTime(nowFunc))
	require.NoError(t, err)

	issuer, err := token.NewIssuer(sessions, 24*time.Hour, token.WithNowTime(nowFunc))
	require.NoError(t, err)

	fake := backendfakes.NewFakeClient()
	service, err := auth.NewService(
		auth.Repos{Pending: pendingRepo, Codes: codeRepo, Sessions: sessions},
		issuer,
		backend.NewLiveValidator(fake.Factory()),
		auth.WithNowTime(nowFunc),
	)
	require.NoError(t, err)

	return &testFixture{
		pendingRepo: pendingRepo,
		codeRepo:    codeRepo,
		sessions:    sessions,
		backendFake: fake,
		service:     service,
		clock:       clock,
	}
}

func validCredentials() backend.Credentials {
	return backend.Credentials{
		ServerURL: "https://grid.example.com",
		Email:     "jane@example.com",
		Password:  "hunter2",
	}
}

func s256Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

func (f *testFixture) authorize(t *testing.T, challenge, method string) string {
	t.Helper()

	pendingID, err := f.service.Authorize(&auth.AuthorizeRequest{
		ResponseType:        auth.CodeResponseType,
		RedirectURI:         testRedirectURI,
		State:               testState,
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pendingID)
	return pendingID
}

func TestAuthorize_CreatesPendingRecord(t *testing.T) {
	f := setupTestFixture(t)

	pendingID := f.authorize(t, s256Challenge(testCodeVerifier), auth.CodeMethodS256)

	stored, err := f.pendingRepo.Get(pendingID)
	require.NoError(t, err)
	require.Equal(t, testRedirectURI, stored.RedirectURI)
	require.Equal(t, testState, stored.State)
	require.Equal(t, auth.CodeMethodS256, stored.CodeChallengeMethod)
}

func TestAuthorize_RejectsUnsupportedResponseType(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Authorize(&auth.AuthorizeRequest{
		ResponseType: "token",
		RedirectURI:  testRedirectURI,
	})
	require.ErrorIs(t, err, errs.ErrUnsupportedResponseType)
}

func TestAuthorize_RequiresRedirectURI(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Authorize(&auth.AuthorizeRequest{ResponseType: auth.CodeResponseType})
	require.ErrorIs(t, err, errs.ErrInvalidRequest)
}

func TestSubmit_CreatesSessionAndCode(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")

	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)
	require.Equal(t, testRedirectURI, result.RedirectURI)
	require.Equal(t, testState, result.State)
	require.NotEmpty(t, result.Code)

	// Credential validation performed a live exchange plus a trivial read.
	require.Contains(t, f.backendFake.CallNames(), "ListTables")

	// Pending record consumed; session exists with tokens unset.
	_, err = f.pendingRepo.Get(pendingID)
	require.ErrorIs(t, err, errs.ErrPendingNotFound)
	require.Equal(t, 1, f.sessions.Len())
}

func TestSubmit_RejectsIncompleteCredentials(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")

	creds := validCredentials()
	creds.Password = ""
	_, err := f.service.Submit(context.Background(), pendingID, creds)
	require.ErrorIs(t, err, errs.ErrMissingCredentials)

	// The record stays retriable.
	_, err = f.pendingRepo.Get(pendingID)
	require.NoError(t, err)
}

func TestSubmit_BackendRejectionKeepsPendingRetriable(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")

	f.backendFake.Err = errs.ErrBackendRejected
	_, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.ErrorIs(t, err, errs.ErrBackendRejected)
	require.Zero(t, f.sessions.Len(), "no session on failed validation")

	f.backendFake.Err = nil
	_, err = f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)
}

func TestSubmit_AttemptCapDeletesPending(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")

	f.backendFake.Err = errs.ErrBackendRejected
	var err error
	for i := 0; i < pending.MaxAttempts-1; i++ {
		_, err = f.service.Submit(context.Background(), pendingID, validCredentials())
		require.ErrorIs(t, err, errs.ErrBackendRejected)
	}

	_, err = f.service.Submit(context.Background(), pendingID, validCredentials())
	require.ErrorIs(t, err, errs.ErrTooManyAttempts)

	_, err = f.pendingRepo.Get(pendingID)
	require.ErrorIs(t, err, errs.ErrPendingNotFound)
}

func TestSubmit_ExpiredPending(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")

	*f.clock = f.clock.Add(11 * time.Minute)
	_, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.ErrorIs(t, err, errs.ErrPendingExpired)
}

func TestToken_CodeExchangeIssuesTokens(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")
	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)

	resp, err := f.service.Token(&auth.TokenRequest{
		GrantType: auth.AuthorizationCodeGrant,
		Code:      result.Code,
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer", resp.TokenType)
	require.Len(t, resp.AccessToken, 64)
	require.Len(t, resp.RefreshToken, 64)
	require.Equal(t, int64(24*60*60), resp.ExpiresIn)
	require.Equal(t, "gridbase:api", resp.Scope)

	sess, err := f.service.ResolveBearer(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, validCredentials(), sess.Credentials)
}

func TestToken_CodeIsSingleUse(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")
	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)

	req := &auth.TokenRequest{GrantType: auth.AuthorizationCodeGrant, Code: result.Code}
	_, err = f.service.Token(req)
	require.NoError(t, err)

	_, err = f.service.Token(req)
	require.ErrorIs(t, err, errs.ErrInvalidGrant)
}

func TestToken_ExpiredCode(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")
	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)

	*f.clock = f.clock.Add(11 * time.Minute)
	_, err = f.service.Token(&auth.TokenRequest{GrantType: auth.AuthorizationCodeGrant, Code: result.Code})
	require.ErrorIs(t, err, errs.ErrInvalidGrant)
}

func TestToken_S256VerifierMatch(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, s256Challenge(testCodeVerifier), auth.CodeMethodS256)
	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)

	_, err = f.service.Token(&auth.TokenRequest{
		GrantType:    auth.AuthorizationCodeGrant,
		Code:         result.Code,
		CodeVerifier: testCodeVerifier,
	})
	require.NoError(t, err)
}

func TestToken_S256VerifierMismatch(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, s256Challenge(testCodeVerifier), auth.CodeMethodS256)
	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)

	_, err = f.service.Token(&auth.TokenRequest{
		GrantType:    auth.AuthorizationCodeGrant,
		Code:         result.Code,
		CodeVerifier: "wrong-verifier-wrong-verifier-wrong-verifier",
	})
	require.ErrorIs(t, err, errs.ErrPKCEMismatch)
}

func TestToken_PlainVerifier(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, testCodeVerifier, auth.CodeMethodPlain)
	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)

	_, err = f.service.Token(&auth.TokenRequest{
		GrantType:    auth.AuthorizationCodeGrant,
		Code:         result.Code,
		CodeVerifier: testCodeVerifier,
	})
	require.NoError(t, err)
}

func TestToken_AbsentVerifierAccepted(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, s256Challenge(testCodeVerifier), auth.CodeMethodS256)
	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)

	_, err = f.service.Token(&auth.TokenRequest{
		GrantType: auth.AuthorizationCodeGrant,
		Code:      result.Code,
	})
	require.NoError(t, err)
}

func TestToken_RefreshRotation(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")
	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)

	issued, err := f.service.Token(&auth.TokenRequest{GrantType: auth.AuthorizationCodeGrant, Code: result.Code})
	require.NoError(t, err)

	rotated, err := f.service.Token(&auth.TokenRequest{GrantType: auth.RefreshTokenGrant, RefreshToken: issued.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, issued.AccessToken, rotated.AccessToken)
	require.NotEqual(t, issued.RefreshToken, rotated.RefreshToken)

	_, err = f.service.ResolveBearer(issued.AccessToken)
	require.ErrorIs(t, err, errs.ErrSessionNotFound)
	_, err = f.service.Token(&auth.TokenRequest{GrantType: auth.RefreshTokenGrant, RefreshToken: issued.RefreshToken})
	require.ErrorIs(t, err, errs.ErrInvalidGrant)

	_, err = f.service.ResolveBearer(rotated.AccessToken)
	require.NoError(t, err)
}

func TestToken_UnsupportedGrantType(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(&auth.TokenRequest{GrantType: "client_credentials"})
	require.ErrorIs(t, err, errs.ErrUnsupportedGrantType)
}

func TestRevoke_DestroysSession(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")
	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)

	issued, err := f.service.Token(&auth.TokenRequest{GrantType: auth.AuthorizationCodeGrant, Code: result.Code})
	require.NoError(t, err)

	require.NoError(t, f.service.Revoke(issued.AccessToken))
	_, err = f.service.ResolveBearer(issued.AccessToken)
	require.ErrorIs(t, err, errs.ErrSessionNotFound)
	require.Zero(t, f.sessions.Len())
}

func TestResolveBearer_ExpiredSession(t *testing.T) {
	f := setupTestFixture(t)
	pendingID := f.authorize(t, "", "")
	result, err := f.service.Submit(context.Background(), pendingID, validCredentials())
	require.NoError(t, err)

	issued, err := f.service.Token(&auth.TokenRequest{GrantType: auth.AuthorizationCodeGrant, Code: result.Code})
	require.NoError(t, err)

	*f.clock = f.clock.Add(25 * time.Hour)
	_, err = f.service.ResolveBearer(issued.AccessToken)
	require.ErrorIs(t, err, errs.ErrSessionExpired)
}
