package conversation

import (
	"context"
	"strings"
	"time"

	"jan-chat/internal/utils/functional"
	"jan-chat/internal/utils/platformerrors"
)

// ConversationService enforces the conversation store contract on top of a repository.
type ConversationService struct {
	repo ConversationRepository
	now  func() time.Time
}

// NewConversationService creates a new conversation service
func NewConversationService(repo ConversationRepository) *ConversationService {
	return &ConversationService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// ListConversations returns the owner's conversations, most recently updated first.
func (s *ConversationService) ListConversations(ctx context.Context, ownerID string) ([]*Conversation, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "authentication required", err, "6f0e1d2c-3b4a-4958-8776-a5b4c3d2e1f0")
	}

	conversations, err := s.repo.ListByUserID(ctx, ownerID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list conversations")
	}
	if conversations == nil {
		conversations = []*Conversation{}
	}
	return conversations, nil
}

// GetConversation returns the conversation with all of its messages in ascending order.
func (s *ConversationService) GetConversation(ctx context.Context, id string, ownerID string) (*ConversationWithMessages, error) {
	conv, err := s.findOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load messages")
	}
	if messages == nil {
		messages = []*Message{}
	}

	return &ConversationWithMessages{Conversation: conv, Messages: messages}, nil
}

// CreateConversation creates a conversation owned by ownerID.
func (s *ConversationService) CreateConversation(ctx context.Context, title string, ownerID string) (*Conversation, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "owner is required to create a conversation", err, "0b5c2f7e-8d41-4a63-9e1f-3c7a2b9d6e54")
	}
	if err := validateTitle(title); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "c3d4e5f6-a7b8-4c9d-8e0f-1a2b3c4d5e6f")
	}

	now := s.now()
	conv := &Conversation{
		ID:        NewID(),
		Title:     strings.TrimSpace(title),
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create conversation")
	}
	return conv, nil
}

// AddMessage appends a message to a conversation owned by ownerID.
func (s *ConversationService) AddMessage(ctx context.Context, conversationID string, role Role, content string, ownerID string) (*Message, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "owner is required to add a message", err, "9a8b7c6d-5e4f-4a3b-9c2d-1e0f9a8b7c6d")
	}
	if err := validateMessage(role, content); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "d4e5f6a7-b8c9-4d0e-9f1a-2b3c4d5e6f7a")
	}
	if _, err := s.findOwned(ctx, conversationID, ownerID); err != nil {
		return nil, err
	}

	msg := &Message{
		ID:             NewID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now(),
	}
	if err := s.repo.AddMessage(ctx, ownerID, msg); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to add message")
	}
	return msg, nil
}

// DeleteConversation removes a conversation and its messages. Unknown ids are not an error.
func (s *ConversationService) DeleteConversation(ctx context.Context, id string, ownerID string) error {
	if err := validateOwner(ownerID); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "authentication required", err, "e5f6a7b8-c9d0-4e1f-8a2b-3c4d5e6f7a8b")
	}
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete conversation")
	}
	return nil
}

// GetConversationHistory returns the most recent limit messages in chronological order.
func (s *ConversationService) GetConversationHistory(ctx context.Context, conversationID string, ownerID string, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if _, err := s.findOwned(ctx, conversationID, ownerID); err != nil {
		return nil, err
	}

	recent, err := s.repo.ListRecentMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to fetch conversation history")
	}
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return functional.Reverse(recent), nil
}

// UpdateConversationTitle renames a conversation owned by ownerID.
func (s *ConversationService) UpdateConversationTitle(ctx context.Context, id string, title string, ownerID string) (*Conversation, error) {
	if err := validateTitle(title); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), err, "f6a7b8c9-d0e1-4f2a-9b3c-4d5e6f7a8b9c")
	}
	if _, err := s.findOwned(ctx, id, ownerID); err != nil {
		return nil, err
	}

	conv, err := s.repo.UpdateTitle(ctx, id, ownerID, strings.TrimSpace(title))
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update conversation")
	}
	return conv, nil
}

func (s *ConversationService) findOwned(ctx context.Context, id string, ownerID string) (*Conversation, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized, "authentication required", err, "a7b8c9d0-e1f2-4a3b-8c4d-5e6f7a8b9c0d")
	}
	if strings.TrimSpace(id) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "b8c9d0e1-f2a3-4b4c-9d5e-6f7a8b9c0d1e")
	}

	conv, err := s.repo.FindByIDAndUserID(ctx, id, ownerID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "conversation not found")
	}
	if conv == nil || conv.UserID != ownerID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "c9d0e1f2-a3b4-4c5d-8e6f-7a8b9c0d1e2f")
	}
	return conv, nil
}
