package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the history in a Redis list, newest first. Useful
// when several dispatcher consoles share one call log.
type RedisStore struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisStore creates a Redis-backed store. The key holds one list
// entry per record, head-first.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "ridecall:history"
	}
	return &RedisStore{
		client:  client,
		key:     key,
		timeout: 5 * time.Second,
	}
}

// Load implements Store.
func (s *RedisStore) Load() ([]CallRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	items, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history from redis: %w", err)
	}
	records := make([]CallRecord, 0, len(items))
	for _, item := range items {
		var rec CallRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("decode history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save implements Store. The list is replaced in one transaction and
// trimmed to the history cap.
func (s *RedisStore) Save(records []CallRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	// RPush in list order keeps newest-first ordering on LRange.
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode history record: %w", err)
		}
		pipe.RPush(ctx, s.key, data)
	}
	pipe.LTrim(ctx, s.key, 0, maxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save history to redis: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear history in redis: %w", err)
	}
	return nil
}
