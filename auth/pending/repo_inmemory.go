package pending

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	errs "github.com/gridbase/gridgate/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface. Get validates the TTL at access time, so a record can never be
// redeemed in the window between expiring and being swept.
type InMemoryRepo struct {
	mu      sync.RWMutex
	pending map[string]*Authorization

	ttl     time.Duration
	nowTime func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryRepoOption func(*InMemoryRepo)

// WithNowTime sets the clock function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) InMemoryRepoOption {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

func NewInMemoryRepo(ttl time.Duration, options ...InMemoryRepoOption) *InMemoryRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &InMemoryRepo{
		pending: make(map[string]*Authorization),
		ttl:     ttl,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *InMemoryRepo) Upsert(auth *Authorization) error {
	if auth == nil || auth.ID == "" {
		return errors.New("[InMemoryRepo.Upsert] pending id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *auth
	r.pending[auth.ID] = &copied
	return nil
}

func (r *InMemoryRepo) Get(id string) (*Authorization, error) {
	if id == "" {
		return nil, errs.ErrPendingNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	auth, ok := r.pending[id]
	if !ok {
		return nil, errs.ErrPendingNotFound
	}
	if r.nowTime().After(auth.ExpiresAt(r.ttl)) {
		return nil, errs.ErrPendingExpired
	}

	copied := *auth
	return &copied, nil
}

func (r *InMemoryRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, id)
	return nil
}

func (r *InMemoryRepo) DeleteExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, auth := range r.pending {
		if now.After(auth.ExpiresAt(r.ttl)) {
			delete(r.pending, id)
			removed++
		}
	}
	return removed
}
