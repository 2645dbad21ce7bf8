package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const stockKeyPrefix = "stock:option:"

// RedisAdapter caches committed stock values for display reads. The
// database row is the authority; entries here may lag behind it.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func stockKey(optionID int64) string {
	return stockKeyPrefix + strconv.FormatInt(optionID, 10)
}

func (r *RedisAdapter) SetStock(ctx context.Context, optionID int64, quantity int64) error {
	if err := r.client.Set(ctx, stockKey(optionID), quantity, 0).Err(); err != nil {
		return fmt.Errorf("set stock cache: %w", err)
	}
	return nil
}

func (r *RedisAdapter) GetStock(ctx context.Context, optionID int64) (int64, bool, error) {
	val, err := r.client.Get(ctx, stockKey(optionID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get stock cache: %w", err)
	}
	return val, true, nil
}
