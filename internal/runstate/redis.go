package runstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/startup-roles/backend/internal/domain"
)

const defaultPrefix = "startup-roles:scrape"

// releaseScript deletes the lock only when it still carries our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Redis coordinates runs across replicas with a SET NX lock.
type Redis struct {
	client    *redis.Client
	lockKey   string
	lastKey   string
	statusTTL time.Duration
}

// NewRedis creates a coordinator on client. An empty prefix uses the default.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{
		client:    client,
		lockKey:   prefix + ":lock",
		lastKey:   prefix + ":last",
		statusTTL: 30 * 24 * time.Hour,
	}
}

var _ Coordinator = (*Redis)(nil)

// NewRedisClient parses url and pings the server
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (r *Redis) Acquire(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	ok, err := r.client.SetNX(ctx, r.lockKey, token, ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return domain.ErrRunInProgress
	}
	return nil
}

func (r *Redis) Release(ctx context.Context, token string) error {
	n, err := releaseScript.Run(ctx, r.client, []string{r.lockKey}, token).Int()
	if err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (r *Redis) SaveRun(ctx context.Context, run *domain.ScrapeRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	if err := r.client.Set(ctx, r.lastKey, data, r.statusTTL).Err(); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func (r *Redis) LastRun(ctx context.Context) (*domain.ScrapeRun, error) {
	data, err := r.client.Get(ctx, r.lastKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	var run domain.ScrapeRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &run, nil
}
