package locker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memLock struct {
	token   string
	expires time.Time
}

// MemoryLocker - блокировки в памяти процесса, когда redis не настроен
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]memLock
	now   func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: map[string]memLock{}, now: time.Now}
}

func (l *MemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.locks[key]; ok && now.Before(cur.expires) {
		return "", ErrNotAcquired
	}

	token := uuid.NewString()
	l.locks[key] = memLock{token: token, expires: now.Add(ttl)}
	return token, nil
}

func (l *MemoryLocker) Unlock(ctx context.Context, key, token string) error {
	_ = ctx
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, ok := l.locks[key]; ok && cur.token == token {
		delete(l.locks, key)
	}
	return nil
}
