package conversationresponses

import (
	"time"

	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/utils/functional"
)

type ConversationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationListResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
}

type ConversationEnvelope struct {
	Conversation ConversationResponse `json:"conversation"`
}

type ConversationDetailResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Messages     []MessageResponse    `json:"messages"`
}

type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
}

type MessageEnvelope struct {
	Message MessageResponse `json:"message"`
}

func NewConversationResponse(conv *conversation.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        conv.ID,
		Title:     conv.Title,
		UserID:    conv.UserID,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

func NewMessageResponse(msg *conversation.Message) MessageResponse {
	return MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           string(msg.Role),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

func NewConversationListResponse(conversations []*conversation.Conversation) ConversationListResponse {
	return ConversationListResponse{Conversations: functional.Map(conversations, NewConversationResponse)}
}

func NewMessageListResponse(messages []*conversation.Message) MessageListResponse {
	return MessageListResponse{Messages: functional.Map(messages, NewMessageResponse)}
}

func NewConversationDetailResponse(detail *conversation.ConversationWithMessages) ConversationDetailResponse {
	return ConversationDetailResponse{
		Conversation: NewConversationResponse(detail.Conversation),
		Messages:     functional.Map(detail.Messages, NewMessageResponse),
	}
}
