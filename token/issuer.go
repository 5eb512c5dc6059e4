// Package token mints and rotates the opaque session tokens. Access and
// refresh tokens are independent 256-bit random values; they carry no claims
// and are resolved purely through the session registry's indexes.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"

	errs "github.com/gridbase/gridgate/internal/errors"
	"github.com/gridbase/gridgate/session"
)

const tokenGenerationLength = 32 // 32 bytes = 256 bits

// Issuer is the only component that mutates session token state.
type Issuer struct {
	registry *session.Registry
	lifetime time.Duration
	nowTime  func() time.Time
}

type IssuerOption func(*Issuer)

// WithNowTime sets the clock function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// NewIssuer creates an issuer over the given registry. lifetime is the fixed
// duration added to the clock on every issue and rotation.
func NewIssuer(registry *session.Registry, lifetime time.Duration, options ...IssuerOption) (*Issuer, error) {
	if registry == nil {
		return nil, errors.New("[NewIssuer] registry is required")
	}
	if lifetime <= 0 {
		return nil, errors.New("[NewIssuer] lifetime must be positive")
	}

	issuer := &Issuer{
		registry: registry,
		lifetime: lifetime,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(issuer)
	}
	return issuer, nil
}

// Lifetime returns the fixed session lifetime.
func (i *Issuer) Lifetime() time.Duration {
	return i.lifetime
}

// Issue mints a fresh access/refresh pair for the session, sets its expiry
// to now plus the fixed lifetime, and persists the mutation.
func (i *Issuer) Issue(sessionID string) (*session.Session, error) {
	sess, err := i.registry.Get(sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.Issue] resolve session")
	}
	return i.mint(sess)
}

// Rotate exchanges a refresh token for a fresh token pair. The old pair is
// invalid the moment the registry reindexes, and the expiry is extended to
// now plus the fixed lifetime, never shortened.
func (i *Issuer) Rotate(refreshToken string) (*session.Session, error) {
	sess, err := i.registry.FindByRefreshToken(refreshToken)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrInvalidRefreshToken, "[Issuer.Rotate] %v", err)
	}
	return i.mint(sess)
}

// Revoke destroys the session holding the given access or refresh token.
func (i *Issuer) Revoke(rawToken string) error {
	sess, err := i.registry.FindByAccessToken(rawToken)
	if err != nil {
		sess, err = i.registry.FindByRefreshToken(rawToken)
	}
	if err != nil {
		return errs.ErrInvalidToken
	}
	return i.registry.Delete(sess.ID)
}

func (i *Issuer) mint(sess *session.Session) (*session.Session, error) {
	access, err := generateToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.mint] access token")
	}
	refresh, err := generateToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Issuer.mint] refresh token")
	}

	expiresAt := i.nowTime().Add(i.lifetime)
	if expiresAt.Before(sess.ExpiresAt) {
		// Expiry is strictly extended, never shortened.
		expiresAt = sess.ExpiresAt
	}

	sess.AccessToken = access
	sess.RefreshToken = refresh
	sess.ExpiresAt = expiresAt
	if err := i.registry.Upsert(sess); err != nil {
		return nil, errors.Wrap(err, "[Issuer.mint] persist session")
	}
	return sess, nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenGenerationLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "rand.Read")
	}
	return hex.EncodeToString(buf), nil
}
