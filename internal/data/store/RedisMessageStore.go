package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/data/redisStore"
	"github.com/dmarti/chatbridge/internal/domain/jobModel"
	"github.com/dmarti/chatbridge/pkg/logger_i"
)

// historyWindow is how many past exchanges are handed to the provider as
// prompt context.
const historyWindow = 10

type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisMessageStore(ctx context.Context) *RedisMessageStore {
	inner := redisStore.GetRedisStore(ctx, config.RedisMessageStore)
	if inner == nil {
		return nil
	}
	return &RedisMessageStore{
		store:  inner,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) ValidateConversationId(ctx context.Context, conversationId string) bool {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "conversation Id", conversationId)
	log.Debug("validating conversationId")
	isFound, err := s.store.Exists(ctx, conversationId)
	if err != nil {
		log.Error("Failed to check if conversationId exists", "err", err)
		return false
	}
	return isFound
}

func (s *RedisMessageStore) TrySaveExchange(ctx context.Context, id string, payload jobModel.JobPayload) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "conversation Id", id)
	if !s.ValidateConversationId(ctx, id) {
		err := errors.New("invalid conversation id")
		log.Error("Failed validation before saving", "err", err)
		return err
	}
	return s.saveExchange(ctx, id, payload)
}

func (s *RedisMessageStore) saveExchange(ctx context.Context, id string, payload jobModel.JobPayload) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "conversation Id", id)
	err := s.store.ListPush(ctx, id, marshallJson(payload, s.logger))
	if err != nil {
		log.Error("error saving exchange", "error:", err)
		return err
	}
	log.Debug("Saved exchange successfully")
	return nil
}

func (s *RedisMessageStore) InitNewConversation(ctx context.Context, id string) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "conversation Id", id)
	log.Debug("Initializing new conversation")
	if err := s.store.Del(ctx, id); err != nil {
		log.Error("Error initializing conversation", "err", err)
	}
	return s.saveExchange(ctx, id, jobModel.JobPayload{})
}

func marshallJson(payload jobModel.JobPayload, logger *logger_i.Logger) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error marshalling json :", "err", err)
	}
	return data
}

func (s *RedisMessageStore) GetMessageHistory(ctx context.Context, conversationId string) (error, []string) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "conversation Id", conversationId)
	log.Debug("Getting message history")

	res, err := s.store.ListGetRecent(ctx, conversationId, historyWindow)
	if err != nil {
		log.Error("Error getting history", "error:", err)
		return err, nil
	}
	return nil, res
}

func TestMessageStore(store *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}

// NewMessageStore selects the Redis-backed store or the in-memory fallback.
// Same concrete-pointer nil check as NewJobStore.
func NewMessageStore(redisMessageStore *RedisMessageStore) jobModel.MessageStore {
	if redisMessageStore != nil {
		return redisMessageStore
	}
	inMemLogger.Error("Redis message store is offline, falling back to in-memory store")
	return InitMessageStore()
}
