package lib

import (
	"classrent/src/config"
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// GetRedisClient returns the shared client, or nil when REDIS_HOST is unset or invalid.
func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	if config.REDIS_HOST == "" {
		return nil
	}
	opt, err := redis.ParseURL(config.REDIS_HOST)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	redisClient = redis.NewClient(opt)
	return redisClient
}

// PingRedis reports whether the shared client answers.
func PingRedis(ctx context.Context) error {
	rdb := GetRedisClient()
	if rdb == nil {
		return redis.ErrClosed
	}
	return rdb.Ping(ctx).Err()
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}
