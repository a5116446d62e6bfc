package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LikeCounter caches per-post like counts so feed rendering does not hit the
// database for every card. The database remains the source of truth; callers
// fall back to a COUNT query on a cache miss and repopulate via Set.
type LikeCounter interface {
	Get(postID string) (int64, bool, error)
	Set(postID string, count int64) error
	Increment(postID string) error
	Decrement(postID string) error
	Close() error
}

type RedisLikeCounter struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisLikeCounter(redisURL string) (*RedisLikeCounter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisLikeCounter{
		client: client,
		ctx:    ctx,
	}, nil
}

func likeKey(postID string) string {
	return fmt.Sprintf("post:likes:%s", postID)
}

// Get returns the cached count and whether the key was present.
func (r *RedisLikeCounter) Get(postID string) (int64, bool, error) {
	count, err := r.client.Get(r.ctx, likeKey(postID)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (r *RedisLikeCounter) Set(postID string, count int64) error {
	return r.client.Set(r.ctx, likeKey(postID), count, 0).Err()
}

func (r *RedisLikeCounter) Increment(postID string) error {
	return r.client.Incr(r.ctx, likeKey(postID)).Err()
}

func (r *RedisLikeCounter) Decrement(postID string) error {
	return r.client.Decr(r.ctx, likeKey(postID)).Err()
}

func (r *RedisLikeCounter) Close() error {
	return r.client.Close()
}
