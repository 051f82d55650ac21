package data

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// OutcomeStream is the Redis stream terminal verification outcomes are
// published to for external consumers (audit, alerting).
const OutcomeStream = "subverify.outcomes"

// ConnectRedis opens a Redis client from a redis:// URL.
func ConnectRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// PublishOutcome appends one verification outcome record to the outcome
// stream. Callers treat failures as best-effort.
func PublishOutcome(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: OutcomeStream,
		Values: payload,
	}).Result()
	return err
}
