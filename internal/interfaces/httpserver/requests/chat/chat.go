package chatrequests

import (
	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/domain/inference"
)

// HistoryMessage is one prior turn supplied by the client.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat, /chat/stream and /gemini.
type ChatRequest struct {
	Message             string           `json:"message"`
	ConversationID      string           `json:"conversationId,omitempty"`
	ConversationHistory []HistoryMessage `json:"conversationHistory,omitempty"`
	ModelID             string           `json:"modelId,omitempty"`
}

// Turns converts the client history into provider turns. Unknown roles are dropped.
func (r ChatRequest) Turns() []inference.Turn {
	turns := make([]inference.Turn, 0, len(r.ConversationHistory))
	for _, msg := range r.ConversationHistory {
		role := conversation.Role(msg.Role)
		if !role.Valid() {
			continue
		}
		turns = append(turns, inference.Turn{Role: role, Content: msg.Content})
	}
	return turns
}
