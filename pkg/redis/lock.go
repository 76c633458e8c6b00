package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrLockNotAcquired is returned when a lock cannot be acquired
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld is returned when trying to release a lock not held
	ErrLockNotHeld = errors.New("lock not held")
)

// releaseScript deletes the lock only when the token still matches, so an
// expired-and-reacquired lock is never released by the previous holder.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Lock represents a held distributed lock
type Lock struct {
	client *Client
	key    string
	value  string
	ttl    time.Duration
}

// Locker provides distributed locking operations. The pipeline uses it for
// run exclusivity: the append-if-absent existence check is only race-free
// when two runs cannot load concurrently.
type Locker struct {
	client    *Client
	keyPrefix string
}

// NewLocker creates a new Locker
func NewLocker(client *Client, keyPrefix string) *Locker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &Locker{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire attempts to acquire a lock
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	lockKey := l.keyPrefix + key
	lockValue := uuid.New().String()

	ok, err := l.client.rdb.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, ErrLockNotAcquired
	}

	l.client.logger.WithContext(ctx).Debugf("Acquired lock: %s", key)

	return &Lock{
		client: l.client,
		key:    lockKey,
		value:  lockValue,
		ttl:    ttl,
	}, nil
}

// Release releases the lock if it is still held by this holder
func (lk *Lock) Release(ctx context.Context) error {
	res, err := lk.client.rdb.Eval(ctx, releaseScript, []string{lk.key}, lk.value).Int()
	if err != nil {
		return err
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	lk.client.logger.WithContext(ctx).Debugf("Released lock: %s", lk.key)
	return nil
}

// Refresh extends the lock's TTL if it is still held by this holder
func (lk *Lock) Refresh(ctx context.Context) error {
	ok, err := lk.client.rdb.Expire(ctx, lk.key, lk.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockNotHeld
	}
	return nil
}
