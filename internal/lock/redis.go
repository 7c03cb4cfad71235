package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storesync/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// renewScript extends the key only while it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

var ErrLockTimeout = errors.New("lock: timed out waiting for key")

type RedisOptions struct {
	Prefix string
	// TTL bounds how long a crashed holder keeps the key. A live holder
	// extends it every TTL/3.
	TTL time.Duration
	// Wait is the longest Lock blocks before ErrLockTimeout. Never shorter
	// than TTL.
	Wait  time.Duration
	Retry time.Duration
}

// Redis is a lock shared by every process using the same Redis database:
// SET NX PX to acquire, PEXPIRE while held, compare-and-delete to release.
type Redis struct {
	client *redis.Client
	opts   RedisOptions
	logger *logger.Logger
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedis fills unset options. The default TTL outlasts a full
// update-then-create reconcile (four gateway calls at the 30s client
// timeout plus the database write) even without renewal.
func NewRedis(client *redis.Client, opts RedisOptions, logger *logger.Logger) *Redis {
	if opts.Prefix == "" {
		opts.Prefix = "storesync:lock:"
	}
	if opts.TTL == 0 {
		opts.TTL = 3 * time.Minute
	}
	if opts.Wait == 0 {
		opts.Wait = 5 * time.Minute
	}
	if opts.Wait < opts.TTL {
		opts.Wait = opts.TTL
	}
	if opts.Retry == 0 {
		opts.Retry = 100 * time.Millisecond
	}
	return &Redis{client: client, opts: opts, logger: logger}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := r.opts.Prefix + key
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, r.opts.Wait)
	defer cancel()

	ticker := time.NewTicker(r.opts.Retry)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.opts.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	renewCtx, stopRenew := context.WithCancel(context.Background())
	renewed := make(chan struct{})
	go r.renew(renewCtx, redisKey, token, renewed)

	var once sync.Once
	return func() {
		once.Do(func() {
			stopRenew()
			<-renewed

			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			n, err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Int()
			switch {
			case err != nil:
				r.logger.Error("Failed to release lock %s: %v", redisKey, err)
			case n == 0:
				r.logger.Warn("Lock %s expired before release", redisKey)
			}
		})
	}, nil
}

// renew keeps the key alive until ctx is cancelled or the key is no longer
// ours.
func (r *Redis) renew(ctx context.Context, key, token string, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.opts.TTL / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := renewScript.Run(ctx, r.client, []string{key}, token, r.opts.TTL.Milliseconds()).Int()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn("Failed to extend lock %s: %v", key, err)
			continue
		}
		if n == 0 {
			r.logger.Error("Lock %s was lost while held", key)
			return
		}
	}
}
