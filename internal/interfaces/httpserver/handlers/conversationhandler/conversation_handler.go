package conversationhandler

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"jan-chat/internal/domain/conversation"
	conversationrequests "jan-chat/internal/interfaces/httpserver/requests/conversation"
	conversationresponses "jan-chat/internal/interfaces/httpserver/responses/conversation"
	"jan-chat/internal/utils/platformerrors"
)

// ConversationManager is the conversation store as used by the HTTP layer.
type ConversationManager interface {
	ListConversations(ctx context.Context, ownerID string) ([]*conversation.Conversation, error)
	GetConversation(ctx context.Context, id string, ownerID string) (*conversation.ConversationWithMessages, error)
	CreateConversation(ctx context.Context, title string, ownerID string) (*conversation.Conversation, error)
	AddMessage(ctx context.Context, conversationID string, role conversation.Role, content string, ownerID string) (*conversation.Message, error)
	DeleteConversation(ctx context.Context, id string, ownerID string) error
	GetConversationHistory(ctx context.Context, conversationID string, ownerID string, limit int) ([]*conversation.Message, error)
	UpdateConversationTitle(ctx context.Context, id string, title string, ownerID string) (*conversation.Conversation, error)
}

var _ ConversationManager = (*conversation.ConversationService)(nil)

type ConversationHandler struct {
	conversations ConversationManager
	validate      *validator.Validate
}

func NewConversationHandler(conversationService *conversation.ConversationService) *ConversationHandler {
	return NewConversationHandlerWithManager(conversationService)
}

// NewConversationHandlerWithManager is NewConversationHandler over any ConversationManager.
func NewConversationHandlerWithManager(manager ConversationManager) *ConversationHandler {
	return &ConversationHandler{
		conversations: manager,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *ConversationHandler) ListConversations(ctx context.Context, ownerID string) (*conversationresponses.ConversationListResponse, error) {
	conversations, err := h.conversations.ListConversations(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	resp := conversationresponses.NewConversationListResponse(conversations)
	return &resp, nil
}

func (h *ConversationHandler) CreateConversation(ctx context.Context, ownerID string, req conversationrequests.CreateConversationRequest) (*conversationresponses.ConversationEnvelope, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "Title is required", nil, "5e6f7a8b-9c0d-4e1f-8a3b-4c5d6e7f8a9b")
	}
	conv, err := h.conversations.CreateConversation(ctx, req.Title, ownerID)
	if err != nil {
		return nil, err
	}
	return &conversationresponses.ConversationEnvelope{Conversation: conversationresponses.NewConversationResponse(conv)}, nil
}

func (h *ConversationHandler) GetConversation(ctx context.Context, ownerID string, id string) (*conversationresponses.ConversationDetailResponse, error) {
	detail, err := h.conversations.GetConversation(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	resp := conversationresponses.NewConversationDetailResponse(detail)
	return &resp, nil
}

func (h *ConversationHandler) UpdateConversation(ctx context.Context, ownerID string, id string, req conversationrequests.UpdateConversationRequest) (*conversationresponses.ConversationEnvelope, error) {
	if err := h.validate.Struct(req); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "Title is required", err, "6f7a8b9c-0d1e-4f2a-9b4c-5d6e7f8a9b1c")
	}
	conv, err := h.conversations.UpdateConversationTitle(ctx, id, req.Title, ownerID)
	if err != nil {
		return nil, err
	}
	return &conversationresponses.ConversationEnvelope{Conversation: conversationresponses.NewConversationResponse(conv)}, nil
}

func (h *ConversationHandler) DeleteConversation(ctx context.Context, ownerID string, id string) error {
	return h.conversations.DeleteConversation(ctx, id, ownerID)
}

func (h *ConversationHandler) GetHistory(ctx context.Context, ownerID string, id string, params conversationrequests.HistoryQueryParams) (*conversationresponses.MessageListResponse, error) {
	if err := h.validate.Struct(params); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "limit must be between 1 and 200", err, "7a8b9c0d-1e2f-4a3b-8c5d-6e7f8a9b0c2d")
	}
	messages, err := h.conversations.GetConversationHistory(ctx, id, ownerID, params.Limit)
	if err != nil {
		return nil, err
	}
	resp := conversationresponses.NewMessageListResponse(messages)
	return &resp, nil
}

func (h *ConversationHandler) AddMessage(ctx context.Context, ownerID string, id string, req conversationrequests.AddMessageRequest) (*conversationresponses.MessageEnvelope, error) {
	if err := h.validate.Struct(req); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "role must be one of user, assistant, system and content is required", err, "8b9c0d1e-2f3a-4b4c-9d6e-7f8a9b0c1d3e")
	}
	msg, err := h.conversations.AddMessage(ctx, id, conversation.Role(req.Role), req.Content, ownerID)
	if err != nil {
		return nil, err
	}
	return &conversationresponses.MessageEnvelope{Message: conversationresponses.NewMessageResponse(msg)}, nil
}
