package session

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	errs "github.com/gridbase/gridgate/internal/errors"
)

// Registry is the in-memory session store. It keeps secondary indexes from
// access and refresh token to session id so bearer resolution never scans,
// and both index entries are invalidated in the same critical section as the
// primary entry on rotation or deletion.
//
// Every mutation persists synchronously through the Persistence backing;
// persistence runs under the registry's write lock so concurrent mutations
// cannot interleave whole-document rewrites.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	byAccess  map[string]string
	byRefresh map[string]string

	store   Persistence
	nowTime func() time.Time
}

// RegistryOption modifies a Registry at construction time.
type RegistryOption func(*Registry)

// WithNowTime sets the clock function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowTime = nowFunc
	}
}

// NewRegistry loads all persisted sessions, drops the ones that already
// expired, and builds the token indexes.
func NewRegistry(store Persistence, options ...RegistryOption) (*Registry, error) {
	if store == nil {
		return nil, errors.New("[NewRegistry] persistence is required")
	}

	r := &Registry{
		sessions:  make(map[string]*Session),
		byAccess:  make(map[string]string),
		byRefresh: make(map[string]string),
		store:     store,
		nowTime:   time.Now,
	}
	for _, opt := range options {
		opt(r)
	}

	loaded, err := store.LoadAll()
	if err != nil {
		return nil, errors.Wrap(err, "[NewRegistry] load sessions")
	}

	now := r.nowTime()
	dropped := 0
	for id, s := range loaded {
		if s == nil || s.Expired(now) {
			dropped++
			continue
		}
		r.index(id, s.clone())
	}
	if dropped > 0 {
		log.Info().Int("dropped", dropped).Msg("filtered expired sessions at startup")
	}

	return r, nil
}

// index installs a session under the lock held by the caller.
func (r *Registry) index(id string, s *Session) {
	if old, ok := r.sessions[id]; ok {
		delete(r.byAccess, old.AccessToken)
		delete(r.byRefresh, old.RefreshToken)
	}
	r.sessions[id] = s
	if s.AccessToken != "" {
		r.byAccess[s.AccessToken] = id
	}
	if s.RefreshToken != "" {
		r.byRefresh[s.RefreshToken] = id
	}
}

// Upsert stores or replaces a session and rewrites the durable document.
func (r *Registry) Upsert(s *Session) error {
	if s == nil || s.ID == "" {
		return errors.New("[Registry.Upsert] session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.index(s.ID, s.clone())
	return r.persistLocked()
}

// Get returns a copy of the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	return s.clone(), nil
}

// FindByAccessToken resolves a bearer token to its session. Expiry is
// validated at access time, in addition to the periodic sweep, so a stale
// token stops resolving the moment its session lifetime elapses.
func (r *Registry) FindByAccessToken(token string) (*Session, error) {
	return r.findByIndex(r.byAccess, token)
}

// FindByRefreshToken resolves a refresh token to its session.
func (r *Registry) FindByRefreshToken(token string) (*Session, error) {
	return r.findByIndex(r.byRefresh, token)
}

func (r *Registry) findByIndex(index map[string]string, token string) (*Session, error) {
	if token == "" {
		return nil, errs.ErrSessionNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[token]
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, errs.ErrSessionNotFound
	}
	if s.Expired(r.nowTime()) {
		return nil, errs.ErrSessionExpired
	}
	return s.clone(), nil
}

// Delete removes a session and its index entries, then rewrites the durable
// document. Deleting an unknown id is not an error.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	delete(r.byAccess, s.AccessToken)
	delete(r.byRefresh, s.RefreshToken)
	delete(r.sessions, id)
	return r.persistLocked()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SweepExpired removes every expired session. The durable document is
// rewritten only when at least one entry was actually removed.
func (r *Registry) SweepExpired() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowTime()
	removed := 0
	for id, s := range r.sessions {
		if !s.Expired(now) {
			continue
		}
		delete(r.byAccess, s.AccessToken)
		delete(r.byRefresh, s.RefreshToken)
		delete(r.sessions, id)
		removed++
	}

	if removed == 0 {
		return 0, nil
	}
	return removed, r.persistLocked()
}

func (r *Registry) persistLocked() error {
	snapshot := make(map[string]*Session, len(r.sessions))
	for id, s := range r.sessions {
		snapshot[id] = s.clone()
	}
	if err := r.store.SaveAll(snapshot); err != nil {
		return errors.Wrap(err, "[Registry] persist sessions")
	}
	return nil
}
