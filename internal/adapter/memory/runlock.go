package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

var _ secondary.RunLock = (*RunLock)(nil)

// RunLock is the single-process RunLock used when Redis is disabled
type RunLock struct {
	// mu makes the compare-and-delete in release atomic with Acquire
	mu   sync.Mutex
	held *cache.Cache
}

// NewRunLock expires forgotten holders after ttl
func NewRunLock(ttl time.Duration) *RunLock {
	return &RunLock{held: cache.New(ttl, ttl)}
}

func (l *RunLock) Acquire(_ context.Context, key string) (func(), error) {
	token := uuid.NewString()
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.held.Add(key, token, cache.DefaultExpiration); err != nil {
		return nil, errs.ErrRunInProgress
	}
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if v, ok := l.held.Get(key); ok && v == token {
			l.held.Delete(key)
		}
	}, nil
}
