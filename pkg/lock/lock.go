// Package lock defines short lived exclusive locks keyed by resource.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotObtained is returned when another holder owns the key.
var ErrNotObtained = errors.New("lock not obtained")

// Release frees a held lock.
type Release func(ctx context.Context) error

// Locker obtains an exclusive lock for key that expires after ttl.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// Local serializes holders inside one process. Expired entries are
// reclaimed on the next Obtain.
type Local struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewLocal() *Local {
	return &Local{held: make(map[string]time.Time), clock: time.Now}
}

func (l *Local) Obtain(_ context.Context, key string, ttl time.Duration) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, ErrNotObtained
	}
	exp := now.Add(ttl)
	l.held[key] = exp
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key] == exp {
			delete(l.held, key)
		}
		return nil
	}, nil
}
