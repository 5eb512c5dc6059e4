package authcode

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	errs "github.com/gridbase/gridgate/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface.
type InMemoryRepo struct {
	mu      sync.Mutex
	codes   map[string]*Code
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

func NewInMemoryRepo(options ...InMemoryRepoOption) *InMemoryRepo {
	r := &InMemoryRepo{
		codes:   make(map[string]*Code),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *InMemoryRepo) Put(code *Code) error {
	if code == nil || code.Code == "" {
		return errors.New("[InMemoryRepo.Put] code is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *code
	r.codes[code.Code] = &copied
	return nil
}

// Redeem deletes the code whether or not it has expired; lookup, expiry
// check and deletion share one critical section.
func (r *InMemoryRepo) Redeem(code string) (*Code, error) {
	if code == "" {
		return nil, errs.ErrCodeNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.codes[code]
	if !ok {
		return nil, errs.ErrCodeNotFound
	}
	delete(r.codes, code)

	if r.nowTime().After(stored.ExpiresAt) {
		return nil, errs.ErrCodeExpired
	}

	copied := *stored
	return &copied, nil
}

func (r *InMemoryRepo) DeleteExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for code, stored := range r.codes {
		if now.After(stored.ExpiresAt) {
			delete(r.codes, code)
			removed++
		}
	}
	return removed
}
