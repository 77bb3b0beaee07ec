package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/data/redisStore"
	"github.com/dmarti/chatbridge/internal/data/store"
	"github.com/dmarti/chatbridge/internal/domain/jobModel"
	"github.com/redis/go-redis/v9"
)

// A nil *RedisJobStore assigned straight into the JobStore interface would
// pass a nil check on the interface and then panic on first use. The
// constructors must take the concrete pointer and hand back a usable store.
func TestNewJobStore_OfflineRedisFallsBackToMemory(t *testing.T) {
	jobStore := store.NewJobStore(nil)
	if jobStore == nil {
		t.Fatal("NewJobStore(nil) returned a nil interface")
	}

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "fallback-trace")
	if err := jobStore.SaveJob(ctx, jobModel.Job{Id: "offline-job"}); err != nil {
		t.Fatalf("fallback store SaveJob failed: %v", err)
	}
	if _, found := jobStore.GetJob(ctx, "offline-job"); !found {
		t.Error("job saved to fallback store was not found")
	}
}

func TestNewJobStore_PrefersRedisWhenAvailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	redisJobStore := store.TestJobStore(redisStore.NewTestStore(client))

	jobStore := store.NewJobStore(redisJobStore)
	if jobStore != jobModel.JobStore(redisJobStore) {
		t.Error("expected the Redis-backed store to be kept when it is online")
	}
}

func TestNewMessageStore_OfflineRedisFallsBackToMemory(t *testing.T) {
	messageStore := store.NewMessageStore(nil)
	if messageStore == nil {
		t.Fatal("NewMessageStore(nil) returned a nil interface")
	}

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "fallback-trace")
	if err := messageStore.InitNewConversation(ctx, "conv-offline"); err != nil {
		t.Fatalf("fallback store InitNewConversation failed: %v", err)
	}
	if !messageStore.ValidateConversationId(ctx, "conv-offline") {
		t.Error("conversation initialized in fallback store was not found")
	}
}

func TestNewMessageStore_PrefersRedisWhenAvailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	redisMessageStore := store.TestMessageStore(redisStore.NewTestStore(client))

	messageStore := store.NewMessageStore(redisMessageStore)
	if messageStore != jobModel.MessageStore(redisMessageStore) {
		t.Error("expected the Redis-backed store to be kept when it is online")
	}
}
