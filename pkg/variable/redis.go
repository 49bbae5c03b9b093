package variable

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// RedisService stores variables as plain keys plus a sorted-set index used
// for listing.
type RedisService struct {
	client *backend.Client
	prefix string
}

// RedisOption configures a RedisService.
type RedisOption func(*RedisService)

// WithPrefix sets the key prefix (default "weft").
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisService) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedis connects to the server described by a redis:// URL.
func NewRedis(url string, opts ...RedisOption) (*RedisService, error) {
	o, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisFromClient(backend.NewClient(o), opts...), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *RedisService {
	s := &RedisService{client: client, prefix: "weft"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisService) key(name string) string {
	return s.prefix + ":variable:" + name
}

func (s *RedisService) indexKey() string {
	return s.prefix + ":variables"
}

func (s *RedisService) Get(ctx context.Context, name string) (string, error) {
	val, err := s.client.Get(ctx, s.key(name)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", notFound(name)
		}
		return "", fmt.Errorf("failed to get variable from redis: %w", err)
	}
	return val, nil
}

func (s *RedisService) Set(ctx context.Context, name, value string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(name), value, 0)
	// Lexicographic listing: every member shares score 0.
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: 0, Member: name})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save variable to redis: %w", err)
	}
	return nil
}

func (s *RedisService) Delete(ctx context.Context, name string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(name))
	pipe.ZRem(ctx, s.indexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete variable from redis: %w", err)
	}
	return nil
}

func (s *RedisService) List(ctx context.Context) ([]string, error) {
	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list variables: %w", err)
	}
	return names, nil
}

// Ping checks connectivity.
func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *RedisService) Close() error {
	return s.client.Close()
}
