package cache

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// InitRedis connects the shared client. A failed connection is reported,
// not fatal: callers run uncached and the health endpoint shows the state.
func InitRedis(ctx context.Context) error {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}
	Client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := Client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable at %s, continuing without cache: %v", addr, err)
		Client = nil
		return err
	}
	log.Println("Connected to Redis")
	return nil
}
