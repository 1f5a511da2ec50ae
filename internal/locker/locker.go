package locker

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired - ключ уже занят другим владельцем
var ErrNotAcquired = errors.New("lock not acquired")

// Locker - неблокирующая взаимоисключающая блокировка по ключу с TTL.
// TryLock не ждёт: занятый ключ сразу даёт ErrNotAcquired
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	// Unlock снимает блокировку, только если она всё ещё принадлежит token
	Unlock(ctx context.Context, key, token string) error
}
