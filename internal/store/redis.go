package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Hash field names for objects stored in Redis.
const (
	redisFieldBody        = "body"
	redisFieldContentType = "content_type"
	redisFieldUploaded    = "uploaded"
	redisFieldMetadata    = "metadata"
)

// connectionTimeout is the timeout for verifying the Redis connection.
const connectionTimeout = 5 * time.Second

// ErrEmptyAddress is returned when the Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

// Redis stores each object as a hash under its key. Objects carry no TTL;
// staleness is judged at read time by the cache layer, never enforced here.
type Redis struct {
	client *redis.Client
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedis creates a Redis-backed store and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client}, nil
}

// Get returns the object stored in the hash at key.
func (r *Redis) Get(ctx context.Context, key string) (*Object, error) {
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	obj := &Object{
		Key:         key,
		Body:        []byte(fields[redisFieldBody]),
		ContentType: fields[redisFieldContentType],
	}
	if raw := fields[redisFieldUploaded]; raw != "" {
		uploaded, parseErr := time.Parse(time.RFC3339Nano, raw)
		if parseErr != nil {
			return nil, fmt.Errorf("redis object %s: bad uploaded timestamp: %w", key, parseErr)
		}
		obj.Uploaded = uploaded
	}
	if raw := fields[redisFieldMetadata]; raw != "" {
		if parseErr := json.Unmarshal([]byte(raw), &obj.Metadata); parseErr != nil {
			return nil, fmt.Errorf("redis object %s: bad metadata: %w", key, parseErr)
		}
	}

	return obj, nil
}

// Put overwrites the hash at key.
func (r *Redis) Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	fields := map[string]any{
		redisFieldBody:        body,
		redisFieldContentType: contentType,
		redisFieldUploaded:    now().Format(time.RFC3339Nano),
	}
	if len(metadata) > 0 {
		meta, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		fields[redisFieldMetadata] = meta
	}

	// Delete first so fields from a superseded object never linger.
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
