package coordination

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Counters live for the lifetime of the job plus a grace period, so a
// finished import does not leak keys forever.
const keyTTL = 72 * time.Hour

// RedisStore implements Store on a shared Redis instance, which is what
// makes the barrier work across worker processes.
type RedisStore struct {
	rdb *goredis.Client
}

func NewRedisStore(rdb *goredis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) SetInProgress(ctx context.Context, jobID, sink string, inProgress bool) error {
	return s.rdb.Set(ctx, inProgressKey(jobID, sink), fmt.Sprintf("%t", inProgress), keyTTL).Err()
}

func (s *RedisStore) InProgress(ctx context.Context, jobID, sink string) (bool, error) {
	v, err := s.rdb.Get(ctx, inProgressKey(jobID, sink)).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (s *RedisStore) ResetCounters(ctx context.Context, jobID, sink string) error {
	if err := s.rdb.Set(ctx, enqueuedKey(jobID, sink), 0, keyTTL).Err(); err != nil {
		return err
	}
	return s.rdb.Set(ctx, processedKey(jobID, sink), 0, keyTTL).Err()
}

func (s *RedisStore) IncrEnqueued(ctx context.Context, jobID, sink string) (int64, error) {
	return s.rdb.Incr(ctx, enqueuedKey(jobID, sink)).Result()
}

func (s *RedisStore) IncrProcessed(ctx context.Context, jobID, sink string) (int64, error) {
	return s.rdb.Incr(ctx, processedKey(jobID, sink)).Result()
}

func (s *RedisStore) Counts(ctx context.Context, jobID, sink string) (int64, int64, error) {
	enqueued, err := s.getInt(ctx, enqueuedKey(jobID, sink))
	if err != nil {
		return 0, 0, err
	}
	processed, err := s.getInt(ctx, processedKey(jobID, sink))
	if err != nil {
		return 0, 0, err
	}
	return enqueued, processed, nil
}

func (s *RedisStore) ClaimFinalize(ctx context.Context, jobID, sink string) (bool, error) {
	return s.rdb.SetNX(ctx, finalizeKey(jobID, sink), "1", keyTTL).Result()
}

func (s *RedisStore) SetJobStatus(ctx context.Context, jobID, status string) error {
	return s.rdb.Set(ctx, statusKey(jobID), status, keyTTL).Err()
}

func (s *RedisStore) JobStatus(ctx context.Context, jobID string) (string, error) {
	v, err := s.rdb.Get(ctx, statusKey(jobID)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisStore) getInt(ctx context.Context, key string) (int64, error) {
	v, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return v, err
}
