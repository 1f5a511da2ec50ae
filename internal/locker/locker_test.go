package locker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l := NewRedisLocker(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestLockers_MutualExclusion(t *testing.T) {
	rl, _ := newRedisLocker(t)
	cases := []struct {
		name string
		l    Locker
	}{
		{"redis", rl},
		{"memory", NewMemoryLocker()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			tok, err := tc.l.TryLock(ctx, "flip:session:a", time.Minute)
			if err != nil {
				t.Fatalf("first lock: %v", err)
			}
			if _, err := tc.l.TryLock(ctx, "flip:session:a", time.Minute); !errors.Is(err, ErrNotAcquired) {
				t.Fatalf("second lock err=%v want=%v", err, ErrNotAcquired)
			}
			if _, err := tc.l.TryLock(ctx, "flip:session:b", time.Minute); err != nil {
				t.Fatalf("other key must be free: %v", err)
			}

			// чужой токен не снимает блокировку
			if err := tc.l.Unlock(ctx, "flip:session:a", "not-mine"); err != nil {
				t.Fatalf("unlock foreign: %v", err)
			}
			if _, err := tc.l.TryLock(ctx, "flip:session:a", time.Minute); !errors.Is(err, ErrNotAcquired) {
				t.Fatalf("foreign unlock released the key: %v", err)
			}

			if err := tc.l.Unlock(ctx, "flip:session:a", tok); err != nil {
				t.Fatalf("unlock: %v", err)
			}
			if _, err := tc.l.TryLock(ctx, "flip:session:a", time.Minute); err != nil {
				t.Fatalf("relock after unlock: %v", err)
			}
		})
	}
}

func TestRedisLocker_Expires(t *testing.T) {
	l, mr := newRedisLocker(t)
	ctx := context.Background()

	if _, err := l.TryLock(ctx, "k", time.Second); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(2 * time.Second)
	if _, err := l.TryLock(ctx, "k", time.Second); err != nil {
		t.Fatalf("expired lock must be free: %v", err)
	}
}

func TestMemoryLocker_Expires(t *testing.T) {
	l := NewMemoryLocker()
	now := time.Now()
	l.now = func() time.Time { return now }

	if _, err := l.TryLock(context.Background(), "k", time.Second); err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Second)
	if _, err := l.TryLock(context.Background(), "k", time.Second); err != nil {
		t.Fatalf("expired lock must be free: %v", err)
	}
}

func TestMemoryLocker_Concurrent(t *testing.T) {
	l := NewMemoryLocker()
	var (
		wg  sync.WaitGroup
		won atomic.Int32
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.TryLock(context.Background(), "k", time.Minute); err == nil {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	if won.Load() != 1 {
		t.Fatalf("winners=%d want=1", won.Load())
	}
}
