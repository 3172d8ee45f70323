// Package lock provides a redis-backed mutex used to keep background jobs from
// running on more than one instance at a time.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrNotAcquired = errors.New("lock held elsewhere")

// unlockScript deletes the key only when the holder token matches, so an
// instance whose lock expired cannot release a lock now held by another.
const unlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// Lock is a single-holder lock with an expiry safety net: if the holder dies,
// the key ages out and the next run acquires it.
type Lock struct {
	client     *redis.Client
	key        string
	value      string
	expiration time.Duration
}

func New(client *redis.Client, key string, expiration time.Duration) *Lock {
	return &Lock{
		client:     client,
		key:        key,
		value:      uuid.New().String(),
		expiration: expiration,
	}
}

// TryAcquire is non-blocking: jobs that find the lock held skip their run
// rather than wait, the next tick will come around.
func (l *Lock) TryAcquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAcquired
	}
	return nil
}

func (l *Lock) Release(ctx context.Context) error {
	_, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	return err
}
