package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys and channels shared by the settlement worker, the idle reaper and the
// websocket subscriber.
const (
	ChannelEvents  = "plinko_events"
	KeySessionIdle = "session_idle"
)

// Connect establishes a connection to Redis
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// PublishJSON marshals v and publishes it, returning the number of subscribers
// that received it.
func PublishJSON(ctx context.Context, rdb *redis.Client, channel string, v interface{}) (int64, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return rdb.Publish(ctx, channel, b).Result()
}
