package chat

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/domain/inference"
	"jan-chat/internal/infrastructure/logger"
	"jan-chat/internal/utils/platformerrors"
)

const fallbackSuffix = " This is a fallback response. Please check your AI API configuration."

var fallbackResponses = []string{
	"I'm having trouble connecting to my AI service right now, but I can still help with some basic responses.",
	"There seems to be a temporary issue with my AI connection. Let me provide a helpful response based on common knowledge.",
	"I'm experiencing some technical difficulties, but I'll do my best to assist you.",
}

// MessageStore is the part of the conversation store the send flow writes to.
type MessageStore interface {
	AddMessage(ctx context.Context, conversationID string, role conversation.Role, content string, ownerID string) (*conversation.Message, error)
}

// Config carries the request defaults applied to every provider call.
type Config struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// SendInput is one user turn. OwnerID is empty for anonymous callers.
type SendInput struct {
	Message        string
	ConversationID string
	History        []inference.Turn
	ModelID        string
	OwnerID        string
}

// SendResult is the outcome of a send. Saved is nil when persistence was not attempted.
// ErrorType and Retryable describe the provider failure behind a fallback reply.
type SendResult struct {
	Response  string
	Timestamp time.Time
	Model     string
	Provider  string
	Usage     *inference.Usage
	Saved     *bool
	Fallback  bool
	Error     string
	ErrorType platformerrors.ErrorType
	Retryable bool
}

type ChatService struct {
	registry *inference.Registry
	store    MessageStore
	cfg      Config
	now      func() time.Time
	pick     func(n int) int
}

func NewChatService(registry *inference.Registry, store MessageStore, cfg Config) *ChatService {
	return &ChatService{
		registry: registry,
		store:    store,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		pick:     rand.IntN,
	}
}

// Send persists the user turn, asks the resolved gateway for a reply and persists it.
// Provider failures other than auth, rate limit and configuration produce a fallback reply.
func (s *ChatService) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	message, err := validateMessage(ctx, in.Message)
	if err != nil {
		return nil, err
	}
	gateway, model, err := s.registry.Resolve(ctx, in.ModelID)
	if err != nil {
		return nil, err
	}

	persist := in.ConversationID != "" && in.OwnerID != ""
	saved := true
	if persist {
		saved = s.save(ctx, in, conversation.RoleUser, message)
	}

	reply, err := gateway.Generate(ctx, s.request(model, message, in.History))
	if err != nil {
		if propagates(err) {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "model request failed")
		}
		return s.fallback(ctx, err, gateway.Name()), nil
	}

	result := &SendResult{
		Response:  reply.Content,
		Timestamp: s.now(),
		Model:     reply.Model,
		Provider:  reply.Provider,
		Usage:     reply.Usage,
	}
	if persist {
		saved = s.save(ctx, in, conversation.RoleAssistant, reply.Content) && saved
		result.Saved = &saved
	}
	return result, nil
}

// Stream is Send with fragments handed to emit as they arrive. The assembled reply
// is persisted only when the stream completes; partial output is dropped on error.
func (s *ChatService) Stream(ctx context.Context, in SendInput, emit func(fragment string) error) (*SendResult, error) {
	message, err := validateMessage(ctx, in.Message)
	if err != nil {
		return nil, err
	}
	gateway, model, err := s.registry.ResolveStreaming(ctx, in.ModelID)
	if err != nil {
		return nil, err
	}

	persist := in.ConversationID != "" && in.OwnerID != ""
	saved := true
	if persist {
		saved = s.save(ctx, in, conversation.RoleUser, message)
	}

	stream, err := gateway.Stream(ctx, s.request(model, message, in.History))
	if err != nil {
		return nil, streamFailure(ctx, err, "model stream failed", "c7a1e4d9-5f26-4b83-9e0a-3d8f6b2c1e57")
	}
	defer func() { _ = stream.Close() }()

	var content strings.Builder
	for stream.Next() {
		fragment := stream.Content()
		if fragment == "" {
			continue
		}
		content.WriteString(fragment)
		if err := emit(fragment); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "failed to deliver stream fragment", err, "b3f7d0e5-2a49-4c6b-9e81-6d5c4f9a2b03")
		}
	}
	if err := stream.Err(); err != nil {
		return nil, streamFailure(ctx, err, "model stream interrupted", "f8d2b6a1-7c49-4e3f-a5b0-2d9c8e7f6a14")
	}

	result := &SendResult{
		Response:  content.String(),
		Timestamp: s.now(),
		Model:     model,
		Provider:  gateway.Name(),
	}
	if persist {
		saved = s.save(ctx, in, conversation.RoleAssistant, result.Response) && saved
		result.Saved = &saved
	}
	return result, nil
}

func (s *ChatService) request(model string, message string, history []inference.Turn) inference.Request {
	return inference.Request{
		Model:        model,
		History:      inference.Turns(history),
		Message:      message,
		SystemPrompt: s.cfg.SystemPrompt,
		MaxTokens:    s.cfg.MaxTokens,
		Temperature:  s.cfg.Temperature,
	}
}

func (s *ChatService) save(ctx context.Context, in SendInput, role conversation.Role, content string) bool {
	if _, err := s.store.AddMessage(ctx, in.ConversationID, role, content, in.OwnerID); err != nil {
		log := logger.GetLogger()
		log.Warn().
			Str("error_code", "c4a8e1f6-3b5a-4d7c-8f92-7e6d5a0b3c14").
			Str("conversation_id", in.ConversationID).
			Str("role", string(role)).
			Err(err).
			Msg("failed to save message, continuing without persistence")
		return false
	}
	return true
}

func (s *ChatService) fallback(ctx context.Context, err error, provider string) *SendResult {
	log := logger.GetLogger()
	log.Error().
		Str("error_code", "d5b9f2a7-4c6b-4e8d-9a03-8f7e6b1c4d25").
		Str("provider", provider).
		Str("request_id", platformerrors.RequestIDFromContext(ctx)).
		Err(err).
		Msg("model request failed, answering with fallback")

	return &SendResult{
		Response:  fallbackResponses[s.pick(len(fallbackResponses))] + fallbackSuffix,
		Timestamp: s.now(),
		Fallback:  true,
		Error:     errorMessage(err),
		ErrorType: inference.Classify(err),
		Retryable: inference.IsRetryable(err),
	}
}

// streamFailure keeps the type of failures callers must see and reports the rest as internal.
func streamFailure(ctx context.Context, err error, message string, uuid string) *platformerrors.PlatformError {
	if propagates(err) {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, message)
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, message+": "+errorMessage(err), err, uuid)
}

func propagates(err error) bool {
	switch inference.Classify(err) {
	case platformerrors.ErrorTypeUnauthorized, platformerrors.ErrorTypeRateLimited, platformerrors.ErrorTypeConfiguration, platformerrors.ErrorTypeValidation:
		return true
	}
	return false
}

func errorMessage(err error) string {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) && platformErr.Message != "" {
		return platformErr.Message
	}
	return err.Error()
}

func validateMessage(ctx context.Context, message string) (string, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "Message is required", nil, "e6c0a3b8-5d7c-4f9e-8b14-9a8f7c2d5e36")
	}
	return message, nil
}
