package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/auditgate/expense-fraud-engine/internal/domain/errors"
	"github.com/auditgate/expense-fraud-engine/internal/domain/expense"
)

// RedisStore is the shared Store implementation: scored expenses live in a
// Redis list trimmed to the configured bound, so multiple scoring instances
// see the same history. Redis serializes the push+trim, which gives the
// single-writer discipline the detectors rely on.
type RedisStore struct {
	client  *redis.Client
	key     string
	maxSize int
	logger  *zap.Logger
}

const defaultHistoryKey = "efe:history"

// NewRedisStore creates a Redis-backed store and verifies connectivity
func NewRedisStore(ctx context.Context, client *redis.Client, key string, maxSize int, logger *zap.Logger) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = defaultHistoryKey
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("redis history store initialized",
		zap.String("key", key),
		zap.Int("max_size", maxSize))

	return &RedisStore{
		client:  client,
		key:     key,
		maxSize: maxSize,
		logger:  logger,
	}, nil
}

// Add appends a scored expense and trims the list to the retention bound
func (s *RedisStore) Add(ctx context.Context, e *expense.Expense) error {
	if e == nil {
		return errors.NewValidationError("NIL_EXPENSE", "expense cannot be nil")
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return errors.NewInternalError("failed to encode expense").WithCause(err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key, payload)
	pipe.LTrim(ctx, s.key, int64(-s.maxSize), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("redis history append failed",
			zap.String("expense_id", e.ID.String()),
			zap.Error(err))
		return errors.NewExternalError("redis", "history append failed").WithCause(err)
	}
	return nil
}

// Recent returns a snapshot of the most recent n records, oldest first
func (s *RedisStore) Recent(ctx context.Context, n int) ([]*expense.Expense, error) {
	start := int64(0)
	if n > 0 {
		start = int64(-n)
	}

	raw, err := s.client.LRange(ctx, s.key, start, -1).Result()
	if err != nil {
		return nil, errors.NewExternalError("redis", "history read failed").WithCause(err)
	}

	records := make([]*expense.Expense, 0, len(raw))
	for _, item := range raw {
		var e expense.Expense
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			// A corrupt entry must not poison the whole snapshot
			s.logger.Warn("skipping undecodable history record", zap.Error(err))
			continue
		}
		records = append(records, &e)
	}
	return records, nil
}

// Len returns the number of retained records
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, errors.NewExternalError("redis", "history length failed").WithCause(err)
	}
	return int(n), nil
}
