package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/taller-adm-api/pkg/config"
)

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Locker hands out short-lived advisory locks. The billing flow uses it to
// serialise payment registration per family and period; it is advisory only,
// the database uniqueness constraint remains the hard guarantee.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker builds a Locker with the given default TTL.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

// ErrLockHeld is returned when the lock is owned by another caller.
var ErrLockHeld = fmt.Errorf("lock already held")

// Acquire takes the named lock, returning a release func. Release is safe to
// call more than once and only deletes the key when the token still matches.
func (l *Locker) Acquire(ctx context.Context, name string) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	key := "lock:" + name
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	release := func() {
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.client.Eval(ctx, script, []string{key}, token).Err()
	}
	return release, nil
}
