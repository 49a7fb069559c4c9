package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DefaultAcquireTimeout bounds each store call when no timeout is configured.
const DefaultAcquireTimeout = 2 * time.Second

// Option configures a repository.
type Option func(*store)

// WithAcquireTimeout bounds each store call, including the wait for a pooled
// connection. A call that runs out of time fails with ConnectionUnavailable.
// Zero or a negative value removes the bound.
func WithAcquireTimeout(d time.Duration) Option {
	return func(s *store) {
		s.acquireTimeout = d
	}
}

func withClock(now func() time.Time) Option {
	return func(s *store) {
		s.now = now
	}
}

// store is the state shared by the GORM repositories.
type store struct {
	db             *gorm.DB
	now            func() time.Time
	acquireTimeout time.Duration
}

func newStore(db *gorm.DB, opts []Option) store {
	s := store{db: db, now: time.Now, acquireTimeout: DefaultAcquireTimeout}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// session binds db to ctx, bounded by the acquire timeout. Callers must call
// the returned cancel.
func (s store) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := s.boundContext(ctx)
	return s.db.WithContext(ctx), cancel
}

// boundContext applies the acquire timeout to ctx. An earlier deadline
// already on ctx wins.
func (s store) boundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.acquireTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.acquireTimeout)
}
