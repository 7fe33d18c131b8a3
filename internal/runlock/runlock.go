package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL caps how long a crashed run can hold the lock.
const DefaultTTL = 15 * time.Minute

const lockKey = "feedbird:analytics-sync:run-lock"

// releaseScript deletes the lock only when this process still owns it
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lock is a Redis-backed mutual exclusion guard against overlapping sync
// invocations, which would otherwise race the same page's token refresh.
// The engine degrades to lockless operation when Redis is not configured.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// New connects to Redis and returns a run lock
func New(host, port, password string) (*Lock, error) {
	if host == "" {
		return nil, fmt.Errorf("redis host is empty")
	}
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Lock{
		client: client,
		key:    lockKey,
		ttl:    DefaultTTL,
		token:  uuid.NewString(),
	}, nil
}

// Acquire attempts to take the lock. It returns false when another run
// already holds it.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

// Release gives the lock back if this run still owns it
func (l *Lock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}

// Close closes the Redis connection
func (l *Lock) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}
