package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/config"
)

func OpenRedis(conf *config.RedisConfig) (*redis.Client, error) {
	return ping(redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	}))
}

func OpenRedisWithURL(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL() -> %w", err)
	}

	return ping(redis.NewClient(opts))
}

func ping(client *redis.Client) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("client.Ping() -> %w", err)
	}

	return client, nil
}
