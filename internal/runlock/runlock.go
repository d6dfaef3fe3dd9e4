// Package runlock guards against overlapping scheduled runs. Two collectors
// writing the same output paths at once would race, so a run only starts
// after taking a redis lock; a stale lock falls away with its TTL.
package runlock

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// Client is the subset of redis commands the lock uses.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Lock is a single-holder run lock.
type Lock struct {
	client Client
	key    string
	token  string
	ttl    time.Duration
}

// NewLock returns lock with a fresh holder token.
func NewLock(client Client, key string, ttl time.Duration) *Lock {
	return &Lock{
		client: client,
		key:    key,
		token:  uuid.New().String(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock. False means another run holds it.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release frees the lock if this instance still holds it. A lock that
// expired and was re-acquired by another run is left alone.
func (l *Lock) Release(ctx context.Context) error {
	current, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if current != l.token {
		return nil
	}
	return l.client.Del(ctx, l.key).Err()
}

// NewRedisClient returns a configured go-redis client and validates the
// connection with PING.
func NewRedisClient(addr, password string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("runlock: redis addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
