// Package runstate keeps at most one scrape run in flight per deployment and
// remembers the last run for the status endpoint.
package runstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/startup-roles/backend/internal/domain"
)

// DefaultLockTTL bounds how long a crashed run can block the next one.
const DefaultLockTTL = 2 * time.Hour

// ErrLockNotHeld is returned by Release when the token no longer owns the lock
var ErrLockNotHeld = errors.New("run lock not held")

// Coordinator guards run exclusivity and stores run status.
type Coordinator interface {
	// Acquire takes the run lock for token or returns domain.ErrRunInProgress
	Acquire(ctx context.Context, token string, ttl time.Duration) error
	Release(ctx context.Context, token string) error
	SaveRun(ctx context.Context, run *domain.ScrapeRun) error
	// LastRun returns domain.ErrNotFound before the first run
	LastRun(ctx context.Context) (*domain.ScrapeRun, error)
}

// Local coordinates runs inside a single process.
type Local struct {
	mu      sync.Mutex
	holder  string
	expires time.Time
	last    *domain.ScrapeRun
	now     func() time.Time
}

// NewLocal creates an in-process coordinator
func NewLocal() *Local {
	return &Local{now: time.Now}
}

var _ Coordinator = (*Local)(nil)

func (l *Local) Acquire(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.holder != "" && now.Before(l.expires) {
		return domain.ErrRunInProgress
	}
	l.holder = token
	l.expires = now.Add(ttl)
	return nil
}

func (l *Local) Release(_ context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holder != token || !l.now().Before(l.expires) {
		return ErrLockNotHeld
	}
	l.holder = ""
	return nil
}

func (l *Local) SaveRun(_ context.Context, run *domain.ScrapeRun) error {
	cp := *run
	l.mu.Lock()
	l.last = &cp
	l.mu.Unlock()
	return nil
}

func (l *Local) LastRun(context.Context) (*domain.ScrapeRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return nil, domain.ErrNotFound
	}
	cp := *l.last
	return &cp, nil
}
