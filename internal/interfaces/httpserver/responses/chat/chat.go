package chatresponses

import (
	"time"

	"jan-chat/internal/domain/chat"
	"jan-chat/internal/domain/inference"
)

// ChatResponse is the body returned by POST /chat and /gemini.
// ErrorType and Retryable are set only on fallback replies.
type ChatResponse struct {
	Response  string           `json:"response"`
	Timestamp string           `json:"timestamp"`
	Model     string           `json:"model,omitempty"`
	Provider  string           `json:"provider,omitempty"`
	Usage     *inference.Usage `json:"usage,omitempty"`
	Saved     *bool            `json:"saved,omitempty"`
	Fallback  bool             `json:"fallback,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"errorType,omitempty"`
	Retryable *bool            `json:"retryable,omitempty"`
}

// StreamChunk is the payload of one SSE data line.
type StreamChunk struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

func NewChatResponse(result *chat.SendResult) ChatResponse {
	resp := ChatResponse{
		Response:  result.Response,
		Timestamp: result.Timestamp.UTC().Format(time.RFC3339Nano),
		Model:     result.Model,
		Provider:  result.Provider,
		Usage:     result.Usage,
		Saved:     result.Saved,
		Fallback:  result.Fallback,
		Error:     result.Error,
	}
	if result.Fallback {
		retryable := result.Retryable
		resp.ErrorType = string(result.ErrorType)
		resp.Retryable = &retryable
	}
	return resp
}
