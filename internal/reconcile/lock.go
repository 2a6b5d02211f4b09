package reconcile

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockBusy is returned when the per-order lock could not be acquired
// within the acquisition budget. The transport layer decides whether to
// report or let the client retry.
var ErrLockBusy = errors.New("order is being reconciled by another request")

const (
	lockTTL          = 30 * time.Second
	lockRetryDelay   = 100 * time.Millisecond
	lockAcquireLimit = 5 * time.Second
)

// OrderLocker serializes reconcile invocations per order id. Correctness
// ultimately rests on the store's conditional mark-paid; the lock keeps
// racing channels from duplicating side effects like stock reduction.
type OrderLocker interface {
	Acquire(ctx context.Context, orderID uint) (release func(), err error)
}

type redisOrderLocker struct {
	client *redis.Client
	prefix string
}

func (l *redisOrderLocker) Acquire(ctx context.Context, orderID uint) (func(), error) {
	key := l.prefix + ":" + strconv.FormatUint(uint64(orderID), 10)
	deadline := time.Now().Add(lockAcquireLimit)

	for {
		ok, err := l.client.SetNX(ctx, key, "1", lockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = l.client.Del(context.Background(), key).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

type memoryOrderLocker struct {
	mu    sync.Mutex
	locks map[uint]chan struct{}
}

func newMemoryOrderLocker() *memoryOrderLocker {
	return &memoryOrderLocker{locks: make(map[uint]chan struct{})}
}

func (l *memoryOrderLocker) Acquire(ctx context.Context, orderID uint) (func(), error) {
	deadline := time.Now().Add(lockAcquireLimit)

	for {
		l.mu.Lock()
		ch, held := l.locks[orderID]
		if !held {
			l.locks[orderID] = make(chan struct{})
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				done := l.locks[orderID]
				delete(l.locks, orderID)
				l.mu.Unlock()
				close(done)
			}, nil
		}
		l.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
		case <-time.After(lockRetryDelay):
		}
	}
}

// NewOrderLocker builds a Redis-backed locker and falls back to the
// in-process implementation when Redis is unreachable. The fallback only
// guards a single instance; multi-instance deployments need Redis.
func NewOrderLocker(addr, pass string, db int) (OrderLocker, error) {
	if addr == "" {
		return newMemoryOrderLocker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return newMemoryOrderLocker(), err
	}

	return &redisOrderLocker{client: client, prefix: "jiopay:orderlock"}, nil
}
