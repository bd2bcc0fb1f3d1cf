package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/redis/go-redis/v9"
	"github.com/thrasher-corp/blotter/log"
)

// DefaultRedisPrefix namespaces checkpoint keys
const DefaultRedisPrefix = "blotter:checkpoint:"

// RedisConfig configures the redis checkpoint store
type RedisConfig struct {
	ConnectionURL string        `json:"connection-url" yaml:"connection-url"`
	Prefix        string        `json:"prefix" yaml:"prefix"`
	TTL           time.Duration `json:"ttl" yaml:"ttl"`
	PoolSize      int           `json:"pool-size" yaml:"pool-size"`
	DialTimeout   time.Duration `json:"dial-timeout" yaml:"dial-timeout"`
}

// OpenRedis connects to redis, retrying the initial ping with exponential
// backoff
func OpenRedis(ctx context.Context, cfg *RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, err
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	client := redis.NewClient(opts)
	boff := backoff.NewExponentialBackOff()
	boff.MaxElapsedTime = DefaultConnectTimeout
	err = backoff.Retry(func() error {
		pingErr := client.Ping(ctx).Err()
		if pingErr != nil {
			log.Warnf(log.Checkpoint, "redis ping failed, retrying: %v", pingErr)
		}
		return pingErr
	}, backoff.WithContext(boff, ctx))
	if err != nil {
		client.Close()
		return nil, err
	}
	return NewRedisStore(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Save stores the state as one JSON value; a zero ttl keeps it forever
func (r *RedisStore) Save(ctx context.Context, s *State) error {
	if err := validRunID(s.RunID); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.prefix+s.RunID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis save run %s: %w", s.RunID, err)
	}
	log.Debugf(log.Checkpoint, "run %s saved to redis", s.RunID)
	return nil
}

// Load reads the checkpoint of a run
func (r *RedisStore) Load(ctx context.Context, runID string) (*State, error) {
	if err := validRunID(runID); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.prefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Close closes the client
func (r *RedisStore) Close() error {
	return r.client.Close()
}
