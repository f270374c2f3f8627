package cache

import (
	"context"
	"os"
	"sync"
	"time"

	"likeness.io/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	Client *redis.Client
}

var (
	instance *RedisClient
	once     sync.Once
)

func GetInstance() (*RedisClient, error) {
	var err error
	once.Do(func() {
		client := redis.NewClient(&redis.Options{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if pingErr := client.Ping(ctx).Err(); pingErr != nil {
			logger.Warning("could not reach redis on startup", logger.LoggerOptions{Key: "error", Data: pingErr})
		}
		instance = &RedisClient{Client: client}
		logger.Info("connected to redis")
	})
	return instance, err
}
