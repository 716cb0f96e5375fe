package inference

import (
	"context"

	"jan-chat/internal/domain/conversation"
)

// Turn is one prior message handed to a provider as context.
type Turn struct {
	Role    conversation.Role `json:"role"`
	Content string            `json:"content"`
}

// Request is a provider-neutral chat completion request.
type Request struct {
	Model        string
	History      []Turn
	Message      string
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Reply is a completed assistant answer.
type Reply struct {
	Content  string
	Model    string
	Provider string
	Usage    *Usage
}

// Gateway sends one request to a model provider and returns the full reply.
type Gateway interface {
	Name() string
	Supports(model string) bool
	Generate(ctx context.Context, req Request) (*Reply, error)
}

// StreamingGateway is a Gateway that can also deliver the reply incrementally.
type StreamingGateway interface {
	Gateway
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Stream yields reply fragments. It is finite and cannot be restarted. Next
// returns false at the end-of-stream marker with a nil Err, or on failure with
// a non-nil Err. Close releases the underlying connection.
type Stream interface {
	Next() bool
	Content() string
	Err() error
	Close() error
}

// Turns drops system entries and empty content, keeping the order.
func Turns(history []Turn) []Turn {
	result := make([]Turn, 0, len(history))
	for _, turn := range history {
		if turn.Role == conversation.RoleSystem || turn.Content == "" {
			continue
		}
		result = append(result, turn)
	}
	return result
}
