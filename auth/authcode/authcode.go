// Package authcode holds the single-use authorization codes minted on a
// successful credential submission.
package authcode

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
)

// DefaultTTL is how long a code stays redeemable.
const DefaultTTL = 10 * time.Minute

const codeGenerationLength = 32

// Code binds a single-use authorization code to a session. The PKCE data is
// carried over from the pending authorization so the token endpoint can
// check a supplied verifier after the pending record is gone.
type Code struct {
	Code                string
	SessionID           string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
}

// New mints a code bound to the given session id.
func New(sessionID string, expiresAt time.Time) (*Code, error) {
	buf := make([]byte, codeGenerationLength)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, "[authcode.New] rand.Read")
	}
	return &Code{
		Code:      base64.RawURLEncoding.EncodeToString(buf),
		SessionID: sessionID,
		ExpiresAt: expiresAt,
	}, nil
}

type Repo interface {
	Put(code *Code) error
	// Redeem looks up, expiry-checks and deletes the code in one critical
	// section. A second redemption of the same code always fails.
	Redeem(code string) (*Code, error)
	DeleteExpired(now time.Time) int
}
