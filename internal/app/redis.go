package app

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/adanyl0v/go-tasks/internal/config"
)

var globalRedisClient *redis.Client

// ConnectRedis sets up the rate limiter's client. Unlike postgres, redis is
// optional: with no address, or when the ping fails, the client stays nil
// and rate limiting is disabled.
func ConnectRedis() {
	cfg := config.Global().Redis
	if cfg.Addr == "" {
		globalLogger.Info().Msg("redis is not configured, rate limiting disabled")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err := client.Ping(ctx).Err()
	if err != nil {
		globalLogger.Warn().
			Err(err).
			Str("addr", cfg.Addr).
			Msg("failed to ping redis, rate limiting disabled")
		_ = client.Close()
		return
	}

	globalRedisClient = client
	globalLogger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to redis")
}

func DisconnectRedis() {
	if globalRedisClient == nil {
		return
	}

	err := globalRedisClient.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close redis client")
		return
	}
	globalLogger.Info().Msg("disconnected from redis")
}
