package xredis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/questx-lab/gamification/pkg/xcontext"
	"github.com/redis/go-redis/v9"
)

type Client interface {
	Exist(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, key ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Rename(ctx context.Context, key, newKey string) error

	// RunScript runs a lua script atomically, a nil reply is not an error.
	RunScript(ctx context.Context, script *redis.Script, keys []string, args ...any) error

	// Sorted list
	ZAdd(ctx context.Context, key string, members ...redis.Z) error
	ZRevRangeWithScores(ctx context.Context, key string, offset, limit int) ([]redis.Z, error)
	ZRevRank(ctx context.Context, key string, member string) (uint64, error)

	// Single object
	Get(ctx context.Context, key string) (string, error)
	GetObj(ctx context.Context, key string, v any) error
	SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error
	SetNXObj(ctx context.Context, key string, obj any, ttl time.Duration) (bool, error)
	GetDelObj(ctx context.Context, key string, v any) error
	IncrWithTTL(ctx context.Context, key string, incr int64, ttl time.Duration) (int64, error)
}

type client struct {
	redisClient *redis.Client
}

func NewClient(ctx context.Context) (*client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:            xcontext.Configs(ctx).Redis.Addr,
		MaxRetries:      5,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		PoolFIFO:        false,
		PoolSize:        5,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &client{redisClient: redisClient}, nil
}

// NewClientFrom wraps an existing go-redis client.
func NewClientFrom(redisClient *redis.Client) *client {
	return &client{redisClient: redisClient}
}

func (c *client) Close() error {
	return c.redisClient.Close()
}

///// COMMON FEATURE
func (c *client) Exist(ctx context.Context, key string) (bool, error) {
	n, err := c.redisClient.Exists(ctx, key).Uint64()
	if err != nil {
		return false, err
	}

	if n != 1 {
		return false, nil
	}

	return true, nil
}

func (c *client) Del(ctx context.Context, key ...string) error {
	err := c.redisClient.Del(ctx, key...).Err()
	if err == nil || err == redis.Nil {
		return nil
	}

	return err
}

func (c *client) Scan(ctx context.Context, pattern string) ([]string, error) {
	keys := []string{}
	iter := c.redisClient.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, err
	}

	return keys, nil
}

func (c *client) Rename(ctx context.Context, key, newKey string) error {
	return c.redisClient.Rename(ctx, key, newKey).Err()
}

func (c *client) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...any) error {
	err := script.Run(ctx, c.redisClient, keys, args...).Err()
	if err == nil || err == redis.Nil {
		return nil
	}

	return err
}

///// SORTED LIST
func (c *client) ZAdd(ctx context.Context, key string, members ...redis.Z) error {
	if len(members) == 0 {
		return nil
	}

	return c.redisClient.ZAdd(ctx, key, members...).Err()
}

func (c *client) ZRevRangeWithScores(
	ctx context.Context, key string, offset, limit int,
) ([]redis.Z, error) {
	result := c.redisClient.ZRevRangeWithScores(ctx, key, int64(offset), int64(offset+limit-1))
	return result.Result()
}

func (c *client) ZRevRank(
	ctx context.Context, key string, member string,
) (uint64, error) {
	result := c.redisClient.ZRevRank(ctx, key, member)
	return result.Uint64()
}

///// SINGLE OBJECT
func (c *client) Get(ctx context.Context, key string) (string, error) {
	return c.redisClient.Get(ctx, key).Result()
}

func (c *client) GetObj(ctx context.Context, key string, v any) error {
	s, err := c.redisClient.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(s), v)
}

func (c *client) SetObj(ctx context.Context, key string, obj any, ttl time.Duration) error {
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	return c.redisClient.Set(ctx, key, b, ttl).Err()
}

// SetNXObj stores obj only if key does not exist yet. It returns false when
// the key already exists.
func (c *client) SetNXObj(ctx context.Context, key string, obj any, ttl time.Duration) (bool, error) {
	b, err := json.Marshal(obj)
	if err != nil {
		return false, err
	}

	return c.redisClient.SetNX(ctx, key, b, ttl).Result()
}

// GetDelObj atomically reads and removes key. It returns redis.Nil if key does
// not exist.
func (c *client) GetDelObj(ctx context.Context, key string, v any) error {
	s, err := c.redisClient.GetDel(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(s), v)
}

// IncrWithTTL increases the counter at key and sets its expiration when the
// counter is created by this call.
func (c *client) IncrWithTTL(ctx context.Context, key string, incr int64, ttl time.Duration) (int64, error) {
	n, err := c.redisClient.IncrBy(ctx, key, incr).Result()
	if err != nil {
		return 0, err
	}

	if n == incr {
		if err := c.redisClient.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, err
		}
	}

	return n, nil
}
