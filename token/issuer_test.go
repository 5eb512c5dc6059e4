package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridbase/gridgate/backend"
	errs "github.com/gridbase/gridgate/internal/errors"
	"github.com/gridbase/gridgate/session"
	"github.com/gridbase/gridgate/token"
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

type issuerFixture struct {
	registry *session.Registry
	issuer   *token.Issuer
	clock    *time.Time
}

func setupIssuerFixture(t *testing.T) *issuerFixture {
	t.Helper()

	now := time.Now()
	clock := &now
	nowFunc := func() time.Time { return *clock }

	registry, err := session.NewRegistry(&memStore{}, session.WithNowTime(nowFunc))
	require.NoError(t, err)

	issuer, err := token.NewIssuer(registry, 24*time.Hour, token.WithNowTime(nowFunc))
	require.NoError(t, err)

	return &issuerFixture{registry: registry, issuer: issuer, clock: clock}
}

func (f *issuerFixture) createSession(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.registry.Upsert(&session.Session{
		ID:          id,
		Credentials: backend.Credentials{ServerURL: "https://grid.example.com", Email: "jane@example.com", Password: "pw"},
		CreatedAt:   *f.clock,
	}))
}

func TestIssue_MintsOpaque256BitTokens(t *testing.T) {
	f := setupIssuerFixture(t)
	f.createSession(t, "s1")

	sess, err := f.issuer.Issue("s1")
	require.NoError(t, err)

	// 32 random bytes, hex encoded.
	require.Len(t, sess.AccessToken, 64)
	require.Len(t, sess.RefreshToken, 64)
	require.NotEqual(t, sess.AccessToken, sess.RefreshToken)
	require.Equal(t, f.clock.Add(24*time.Hour), sess.ExpiresAt)

	found, err := f.registry.FindByAccessToken(sess.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "s1", found.ID)
}

func TestIssue_UnknownSession(t *testing.T) {
	f := setupIssuerFixture(t)

	_, err := f.issuer.Issue("nope")
	require.ErrorIs(t, err, errs.ErrSessionNotFound)
}

func TestRotate_RotatesBothTokens(t *testing.T) {
	f := setupIssuerFixture(t)
	f.createSession(t, "s1")

	issued, err := f.issuer.Issue("s1")
	require.NoError(t, err)

	rotated, err := f.issuer.Rotate(issued.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, issued.AccessToken, rotated.AccessToken)
	require.NotEqual(t, issued.RefreshToken, rotated.RefreshToken)

	_, err = f.registry.FindByAccessToken(issued.AccessToken)
	require.ErrorIs(t, err, errs.ErrSessionNotFound, "pre-rotation access token must be dead")
	_, err = f.issuer.Rotate(issued.RefreshToken)
	require.ErrorIs(t, err, errs.ErrInvalidRefreshToken, "a refresh token must be single-use")
}

func TestRotate_ExtendsExpiry(t *testing.T) {
	f := setupIssuerFixture(t)
	f.createSession(t, "s1")

	issued, err := f.issuer.Issue("s1")
	require.NoError(t, err)

	*f.clock = f.clock.Add(time.Hour)
	rotated, err := f.issuer.Rotate(issued.RefreshToken)
	require.NoError(t, err)
	require.True(t, rotated.ExpiresAt.After(issued.ExpiresAt), "rotation must extend the lifetime")
}

func TestRotate_UnknownToken(t *testing.T) {
	f := setupIssuerFixture(t)

	_, err := f.issuer.Rotate("bogus")
	require.ErrorIs(t, err, errs.ErrInvalidRefreshToken)
}

func TestRevoke_ByEitherToken(t *testing.T) {
	f := setupIssuerFixture(t)

	f.createSession(t, "s1")
	issued, err := f.issuer.Issue("s1")
	require.NoError(t, err)
	require.NoError(t, f.issuer.Revoke(issued.AccessToken))
	_, err = f.registry.Get("s1")
	require.ErrorIs(t, err, errs.ErrSessionNotFound)

	f.createSession(t, "s2")
	issued, err = f.issuer.Issue("s2")
	require.NoError(t, err)
	require.NoError(t, f.issuer.Revoke(issued.RefreshToken))
	_, err = f.registry.Get("s2")
	require.ErrorIs(t, err, errs.ErrSessionNotFound)

	require.ErrorIs(t, f.issuer.Revoke("bogus"), errs.ErrInvalidToken)
}
