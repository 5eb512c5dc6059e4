// Package pending holds the ephemeral state bridging the authorize step and
// credential submission.
package pending

import "time"

// DefaultTTL is how long a pending authorization stays redeemable.
const DefaultTTL = 10 * time.Minute

// MaxAttempts caps failed credential submissions per pending id. The record
// is deleted once the cap is exceeded; before that, a failed submission
// leaves it alive for further attempts until the TTL elapses.
const MaxAttempts = 5

// Authorization is created on an authorize request, mutated once (attempt
// counting) during submission, and deleted on successful submission or by
// the janitor after the TTL.
type Authorization struct {
	ID                  string
	CodeChallenge       string
	CodeChallengeMethod string
	RedirectURI         string
	State               string
	Attempts            int
	CreatedAt           time.Time
}

// ExpiresAt returns the moment the record stops being redeemable.
func (a *Authorization) ExpiresAt(ttl time.Duration) time.Time {
	return a.CreatedAt.Add(ttl)
}

type Repo interface {
	Upsert(auth *Authorization) error
	Get(id string) (*Authorization, error)
	Delete(id string) error
	// DeleteExpired removes every record older than the TTL and returns how
	// many were removed.
	DeleteExpired(now time.Time) int
}
