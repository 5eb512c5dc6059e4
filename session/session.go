// Package session owns the durable binding between a user's backend
// credentials and their issued token pair. The Registry is the only owner of
// live session records; the Token Issuer mutates them through Upsert and the
// Janitor destroys them once they expire.
package session

import (
	"time"

	"github.com/gridbase/gridgate/backend"
)

// Session binds backend credentials to an issued access/refresh token pair.
// A session is created only after a successful live credential validation.
type Session struct {
	ID           string              `json:"id"`
	Credentials  backend.Credentials `json:"credentials"`
	AccessToken  string              `json:"access_token,omitempty"`
	RefreshToken string              `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time           `json:"expires_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Expired reports whether the session's lifetime has elapsed. A session whose
// tokens have not been issued yet carries a zero ExpiresAt and is not
// considered expired; its authorization code carries its own TTL.
func (s *Session) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return now.After(s.ExpiresAt)
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}

// Persistence is the narrow interface the registry persists through, so the
// backing medium (file, key-value store, relational table) is swappable.
type Persistence interface {
	// LoadAll reads every persisted session record.
	LoadAll() (map[string]*Session, error)
	// SaveAll rewrites the durable document with the given set of records.
	SaveAll(sessions map[string]*Session) error
}
