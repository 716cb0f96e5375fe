package memoryrepo

import (
	"context"
	"sort"
	"sync"

	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/utils/platformerrors"
)

// ConversationMemoryRepository keeps conversations in process memory. It is not
// persistent and is meant for local development and tests.
type ConversationMemoryRepository struct {
	mu            sync.RWMutex
	conversations map[string]*conversation.Conversation
	messages      map[string][]*conversation.Message
}

var _ conversation.ConversationRepository = (*ConversationMemoryRepository)(nil)

func NewConversationMemoryRepository() *ConversationMemoryRepository {
	return &ConversationMemoryRepository{
		conversations: make(map[string]*conversation.Conversation),
		messages:      make(map[string][]*conversation.Message),
	}
}

func (r *ConversationMemoryRepository) Create(_ context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *conv
	r.conversations[conv.ID] = &stored
	return nil
}

func (r *ConversationMemoryRepository) FindByIDAndUserID(ctx context.Context, id string, userID string) (*conversation.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "1d2e3f4a-5b6c-4d7e-8f9a-0b1c2d3e4f5a")
	}
	copied := *conv
	return &copied, nil
}

func (r *ConversationMemoryRepository) ListByUserID(_ context.Context, userID string) ([]*conversation.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*conversation.Conversation, 0)
	for _, conv := range r.conversations {
		if conv.UserID == userID {
			copied := *conv
			result = append(result, &copied)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (r *ConversationMemoryRepository) UpdateTitle(ctx context.Context, id string, userID string, title string) (*conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok || conv.UserID != userID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "2e3f4a5b-6c7d-4e8f-9a0b-1c2d3e4f5a6b")
	}
	conv.Title = title
	conv.UpdatedAt = conversation.NextUpdatedAt(conv.UpdatedAt)
	copied := *conv
	return &copied, nil
}

func (r *ConversationMemoryRepository) Delete(_ context.Context, id string, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok || conv.UserID != userID {
		return nil
	}
	delete(r.conversations, id)
	delete(r.messages, id)
	return nil
}

func (r *ConversationMemoryRepository) AddMessage(ctx context.Context, userID string, msg *conversation.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[msg.ConversationID]
	if !ok || conv.UserID != userID {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "3f4a5b6c-7d8e-4f9a-0b1c-2d3e4f5a6b7c")
	}
	stored := *msg
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], &stored)
	conv.UpdatedAt = conversation.NextUpdatedAt(conv.UpdatedAt)
	return nil
}

func (r *ConversationMemoryRepository) ListMessages(_ context.Context, conversationID string) ([]*conversation.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.messages[conversationID]
	result := make([]*conversation.Message, 0, len(stored))
	for _, msg := range stored {
		copied := *msg
		result = append(result, &copied)
	}
	return result, nil
}

func (r *ConversationMemoryRepository) ListRecentMessages(_ context.Context, conversationID string, limit int) ([]*conversation.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.messages[conversationID]
	result := make([]*conversation.Message, 0, limit)
	for i := len(stored) - 1; i >= 0 && len(result) < limit; i-- {
		copied := *stored[i]
		result = append(result, &copied)
	}
	return result, nil
}
