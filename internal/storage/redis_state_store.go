package storage

import (
	"context"
	"errors"
	"fmt"
	"standbot/internal/models"
	"standbot/internal/providers"
	"standbot/internal/storage/interfaces"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// RedisStateStore keeps one JSON value per conversation under a key prefix.
// Writes are durable on their own, so Restore and Persist only report.
type RedisStateStore struct {
	client  *redis.Client
	prefix  string
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

func NewRedisStateStore(client *redis.Client, prefix string, logger providers.Logger, metrics providers.MetricsProviderInterface) *RedisStateStore {
	return &RedisStateStore{
		client:  client,
		prefix:  prefix,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *RedisStateStore) key(conversationID int64) string {
	return s.prefix + strconv.FormatInt(conversationID, 10)
}

func (s *RedisStateStore) Get(ctx context.Context, conversationID int64) (models.ConversationState, error) {
	raw, err := s.client.Get(ctx, s.key(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.IdleState(), nil
	}
	if err != nil {
		return models.ConversationState{}, models.NewStorageError("get dialogue", err)
	}

	var state models.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.ConversationState{}, models.NewStorageError("decode dialogue", err)
	}
	return state, nil
}

func (s *RedisStateStore) Set(ctx context.Context, conversationID int64, state models.ConversationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return models.NewStorageError("encode dialogue", err)
	}
	if err := s.client.Set(ctx, s.key(conversationID), raw, 0).Err(); err != nil {
		return models.NewStorageError("set dialogue", err)
	}
	return nil
}

func (s *RedisStateStore) Range(ctx context.Context, fn func(conversationID int64, state models.ConversationState) bool) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id, err := strconv.ParseInt(strings.TrimPrefix(key, s.prefix), 10, 64)
		if err != nil {
			s.logger.Warnf(providers.TypeStorage, "Skipping foreign key %s under dialogue prefix", key)
			continue
		}
		state, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if !fn(id, state) {
			return nil
		}
	}
	if err := iter.Err(); err != nil {
		return models.NewStorageError("scan dialogues", err)
	}
	return nil
}

func (s *RedisStateStore) Restore() error {
	count := 0
	err := s.Range(context.Background(), func(_ int64, _ models.ConversationState) bool {
		count++
		return true
	})
	if err != nil {
		return fmt.Errorf("restore dialogues: %w", err)
	}
	s.metrics.SetDialoguesTotal(count)
	s.logger.Infof(providers.TypeStorage, "Found %d dialogue states in redis", count)
	return nil
}

func (s *RedisStateStore) Persist() error {
	return nil
}

var _ interfaces.StateStoreInterface = (*RedisStateStore)(nil)
