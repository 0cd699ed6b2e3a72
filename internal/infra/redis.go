package infra

import "github.com/redis/go-redis/v9"

// NewRedisClient builds a redis client when REDIS_ADDR is configured.
// Returns nil otherwise; callers treat a nil client as "redis disabled"
// and fall back to in-process alternatives.
func NewRedisClient(cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
