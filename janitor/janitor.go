// Package janitor periodically expires entries across the three registries:
// pending authorizations, authorization codes and sessions.
package janitor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/gridbase/gridgate/auth/authcode"
	"github.com/gridbase/gridgate/auth/pending"
	"github.com/gridbase/gridgate/session"
)

type Janitor struct {
	pending  pending.Repo
	codes    authcode.Repo
	sessions *session.Registry

	interval time.Duration
	nowTime  func() time.Time
}

type Option func(*Janitor)

// WithNowTime sets the clock function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(j *Janitor) {
		j.nowTime = nowFunc
	}
}

func New(pendingRepo pending.Repo, codeRepo authcode.Repo, sessions *session.Registry, interval time.Duration, options ...Option) (*Janitor, error) {
	if pendingRepo == nil || codeRepo == nil || sessions == nil {
		return nil, errors.New("[janitor.New] all three registries are required")
	}
	if interval <= 0 {
		interval = 60 * time.Second
	}

	j := &Janitor{
		pending:  pendingRepo,
		codes:    codeRepo,
		sessions: sessions,
		interval: interval,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(j)
	}
	return j, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", j.interval).Msg("janitor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("janitor stopped")
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep expires entries in all three registries once. The session registry
// rewrites its durable document only when at least one session was removed.
func (j *Janitor) Sweep() {
	now := j.nowTime()

	expiredPending := j.pending.DeleteExpired(now)
	expiredCodes := j.codes.DeleteExpired(now)

	expiredSessions, err := j.sessions.SweepExpired()
	if err != nil {
		log.Error().Err(err).Msg("janitor failed to persist session sweep")
	}

	if expiredPending+expiredCodes+expiredSessions > 0 {
		log.Info().
			Int("pending", expiredPending).
			Int("codes", expiredCodes).
			Int("sessions", expiredSessions).
			Msg("janitor swept expired entries")
	}
}
