package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

const (
	DefaultHistoryLimit = 10
	DefaultTitle        = "New Chat"
)

// NewID returns a time-ordered uuid (version 7). Ids issued by one process sort
// in the order they were issued, which breaks created_at ties by insertion.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NextUpdatedAt moves updated_at forward even when the clock has not advanced
// since the last write.
func NextUpdatedAt(previous time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(previous) {
		return previous.Add(time.Microsecond)
	}
	return now
}

// Conversation is a named, owned container of messages.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one role-tagged utterance. Messages are never updated.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationWithMessages is a conversation together with its messages in creation order.
type ConversationWithMessages struct {
	Conversation *Conversation
	Messages     []*Message
}

// ConversationRepository persists conversations and messages. Every lookup is scoped
// to the owner; a conversation owned by someone else is reported as not found.
type ConversationRepository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByIDAndUserID(ctx context.Context, id string, userID string) (*Conversation, error)
	// ListByUserID returns conversations ordered by updated_at descending.
	ListByUserID(ctx context.Context, userID string) ([]*Conversation, error)
	UpdateTitle(ctx context.Context, id string, userID string, title string) (*Conversation, error)
	// Delete removes the conversation and its messages. Missing rows are not an error.
	Delete(ctx context.Context, id string, userID string) error

	// AddMessage inserts the message and bumps the parent's updated_at.
	AddMessage(ctx context.Context, userID string, msg *Message) error
	// ListMessages returns every message of the conversation, oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)
	// ListRecentMessages returns at most limit messages, newest first.
	ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)
}
