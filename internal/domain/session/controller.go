package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/domain/inference"
)

const ErrorBubble = "Sorry, I encountered an error. Please try again."

var (
	ErrBusy                = errors.New("a request is already in flight")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrConversationChanged = errors.New("active conversation changed before the reply arrived")
)

// ConversationStore is the remote conversation store as seen by one signed-in user.
type ConversationStore interface {
	CreateConversation(ctx context.Context, title string) (*conversation.Conversation, error)
	GetConversation(ctx context.Context, id string) (*conversation.ConversationWithMessages, error)
	AddMessage(ctx context.Context, conversationID string, role conversation.Role, content string) (*conversation.Message, error)
}

// Responder produces assistant replies for a message and its preceding turns.
type Responder interface {
	Reply(ctx context.Context, message string, history []inference.Turn) (string, error)
	StreamReply(ctx context.Context, message string, history []inference.Turn, onFragment func(string)) (string, error)
}

// Message is one entry of the local transcript. Error bubbles are shown but never stored.
type Message struct {
	ID        string
	Role      conversation.Role
	Content   string
	CreatedAt time.Time
	IsError   bool
}

// Controller holds the transcript of the active conversation and allows a single
// outstanding model request at a time.
type Controller struct {
	store     ConversationStore
	responder Responder
	log       zerolog.Logger

	mu             sync.Mutex
	conversationID string
	messages       []Message
	loading        bool
}

func NewController(store ConversationStore, responder Responder, log zerolog.Logger) *Controller {
	return &Controller{store: store, responder: responder, log: log}
}

// Send submits text and blocks until the reply has been appended.
func (c *Controller) Send(ctx context.Context, text string) (*Message, error) {
	return c.send(ctx, text, func(ctx context.Context, history []inference.Turn) (string, error) {
		return c.responder.Reply(ctx, text, history)
	})
}

// SendStream is Send with reply fragments delivered to onFragment as they arrive.
func (c *Controller) SendStream(ctx context.Context, text string, onFragment func(string)) (*Message, error) {
	return c.send(ctx, text, func(ctx context.Context, history []inference.Turn) (string, error) {
		return c.responder.StreamReply(ctx, text, history, onFragment)
	})
}

func (c *Controller) send(ctx context.Context, text string, respond func(context.Context, []inference.Turn) (string, error)) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.loading = true
	conversationID := c.conversationID
	history := historyOf(c.messages)
	c.mu.Unlock()
	defer c.setLoading(false)

	if conversationID == "" {
		conv, err := c.store.CreateConversation(ctx, conversation.DefaultTitle)
		if err != nil {
			c.appendError()
			return nil, err
		}
		conversationID = conv.ID
		c.mu.Lock()
		c.conversationID = conversationID
		c.messages = nil
		c.mu.Unlock()
		history = nil
	}

	c.appendTo(conversationID, Message{Role: conversation.RoleUser, Content: text, CreatedAt: time.Now().UTC()})
	c.persist(ctx, conversationID, conversation.RoleUser, text)

	reply, err := respond(ctx, history)
	if err != nil {
		c.log.Error().Err(err).Str("conversation_id", conversationID).Msg("model request failed")
		c.appendTo(conversationID, errorBubble())
		return nil, err
	}

	// The reply is stored with the conversation it answers even when that is no longer shown.
	assistant := Message{Role: conversation.RoleAssistant, Content: reply, CreatedAt: time.Now().UTC()}
	if stored := c.persist(ctx, conversationID, conversation.RoleAssistant, reply); stored != nil {
		assistant.ID = stored.ID
		assistant.CreatedAt = stored.CreatedAt
	}
	if !c.appendTo(conversationID, assistant) {
		c.log.Info().Str("conversation_id", conversationID).Msg("conversation switched while waiting, reply not shown")
		return nil, ErrConversationChanged
	}
	return &assistant, nil
}

// SwitchConversation replaces the transcript with the stored conversation.
func (c *Controller) SwitchConversation(ctx context.Context, id string) error {
	conv, err := c.store.GetConversation(ctx, id)
	if err != nil {
		return err
	}

	messages := make([]Message, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		messages = append(messages, Message{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversationID = conv.Conversation.ID
	c.messages = messages
	return nil
}

// NewConversation clears the transcript; the next Send creates a conversation.
func (c *Controller) NewConversation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversationID = ""
	c.messages = nil
}

func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// Messages returns a copy of the transcript.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) persist(ctx context.Context, conversationID string, role conversation.Role, content string) *conversation.Message {
	stored, err := c.store.AddMessage(ctx, conversationID, role, content)
	if err != nil {
		c.log.Warn().Err(err).
			Str("conversation_id", conversationID).
			Str("role", string(role)).
			Msg("failed to save message")
		return nil
	}
	return stored
}

func (c *Controller) append(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// appendTo appends msg only while conversationID is still the active conversation.
func (c *Controller) appendTo(conversationID string, msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conversationID != conversationID {
		return false
	}
	c.messages = append(c.messages, msg)
	return true
}

func (c *Controller) appendError() {
	c.append(errorBubble())
}

func errorBubble() Message {
	return Message{Role: conversation.RoleAssistant, Content: ErrorBubble, CreatedAt: time.Now().UTC(), IsError: true}
}

func (c *Controller) setLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = loading
}

func historyOf(messages []Message) []inference.Turn {
	turns := make([]inference.Turn, 0, len(messages))
	for _, msg := range messages {
		if msg.IsError || msg.Role == conversation.RoleSystem {
			continue
		}
		turns = append(turns, inference.Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}
