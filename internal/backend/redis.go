package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/sadopc/nexus/internal/config"
)

// Redis keeps each record as a string value under Prefix+key, so several
// machines can share one start page.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects and pings the server so an unreachable server is
// reported at open time.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping redis %s: %v", ErrUnavailable, cfg.Addr, err)
	}
	return &Redis{client: client, prefix: cfg.Prefix}, nil
}

func (r *Redis) redisKey(key string) string { return r.prefix + key }

func (r *Redis) recordKey(redisKey string) string { return strings.TrimPrefix(redisKey, r.prefix) }

func (r *Redis) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	var rkeys []string
	if keys == nil {
		var err error
		if rkeys, err = r.scan(ctx); err != nil {
			return nil, err
		}
	} else {
		for _, k := range keys {
			rkeys = append(rkeys, r.redisKey(k))
		}
	}

	out := make(map[string][]byte, len(rkeys))
	if len(rkeys) == 0 {
		return out, nil
	}

	vals, err := r.client.MGet(ctx, rkeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[r.recordKey(rkeys[i])] = []byte(s)
		}
	}
	return out, nil
}

func (r *Redis) Set(ctx context.Context, items map[string][]byte) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for k, v := range items {
			p.Set(ctx, r.redisKey(k), string(v), 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	rkeys, err := r.scan(ctx)
	if err != nil {
		return err
	}
	if len(rkeys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, rkeys...).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

func (r *Redis) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s*: %w", r.prefix, err)
	}
	return keys, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
