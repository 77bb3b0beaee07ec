package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmarti/chatbridge/internal/domain/jobModel"
)

type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]jobModel.JobPayload
}

func InitMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]jobModel.JobPayload),
	}
}

func (store *InMemoryMessageStore) ValidateConversationId(ctx context.Context, conversationId string) bool {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	_, ok := store.chatMap[conversationId]
	return ok
}

func (store *InMemoryMessageStore) TrySaveExchange(ctx context.Context, id string, payload jobModel.JobPayload) error {
	if !store.ValidateConversationId(ctx, id) {
		return nil
	}
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[id] = append(store.chatMap[id], payload)
	return nil
}

func (store *InMemoryMessageStore) InitNewConversation(ctx context.Context, id string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[id] = make([]jobModel.JobPayload, 0)
	return nil
}

func (store *InMemoryMessageStore) GetMessageHistory(ctx context.Context, conversationId string) (error, []string) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()

	payloads := store.chatMap[conversationId]
	start := 0
	if len(payloads) > historyWindow {
		start = len(payloads) - historyWindow
	}

	var out []string
	for _, p := range payloads[start:] {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		out = append(out, string(data))
	}
	return nil, out
}
