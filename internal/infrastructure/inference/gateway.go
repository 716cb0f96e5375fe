package inference

import (
	"context"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"jan-chat/internal/domain/conversation"
	domaininference "jan-chat/internal/domain/inference"
	"jan-chat/internal/infrastructure/metrics"
	"jan-chat/internal/infrastructure/observability"
)

const noResponseContent = "No response generated."

// chatMessages flattens the system prompt, history and new message into OpenAI wire messages.
func chatMessages(req domaininference.Request) []openai.ChatCompletionMessage {
	history := domaininference.Turns(req.History)
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Role == conversation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: turn.Content})
	}
	return append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message})
}

func completionRequest(model string, req domaininference.Request) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}
}

func firstChoiceContent(resp *openai.ChatCompletionResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

func usageFromOpenAI(usage *openai.Usage) *domaininference.Usage {
	if usage == nil || usage.TotalTokens == 0 && usage.PromptTokens == 0 && usage.CompletionTokens == 0 {
		return nil
	}
	return &domaininference.Usage{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	}
}

// providerCall tracks one upstream call for metrics and tracing.
type providerCall struct {
	ctx      context.Context
	span     trace.Span
	provider string
	model    string
	stream   bool
	started  time.Time
	ended    bool
}

func startProviderCall(ctx context.Context, provider, model string, stream bool) (context.Context, *providerCall) {
	ctx, span := observability.StartSpan(ctx, "inference."+provider,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", provider),
			attribute.String("llm.model", model),
			attribute.Bool("llm.stream", stream),
		))
	return ctx, &providerCall{
		ctx:      ctx,
		span:     span,
		provider: provider,
		model:    model,
		stream:   stream,
		started:  time.Now(),
	}
}

func (c *providerCall) end(err error, usage *domaininference.Usage) {
	if c.ended {
		return
	}
	c.ended = true

	errorType := ""
	if err != nil {
		errorType = string(domaininference.Classify(err))
		observability.RecordError(c.ctx, err)
	}
	metrics.RecordProviderCall(c.provider, c.model, c.stream, time.Since(c.started).Seconds(), errorType)
	if usage != nil {
		metrics.RecordTokens(c.provider, c.model, usage.PromptTokens, usage.CompletionTokens)
		c.span.SetAttributes(
			attribute.Int("llm.usage.prompt_tokens", usage.PromptTokens),
			attribute.Int("llm.usage.completion_tokens", usage.CompletionTokens),
		)
	}
	c.span.End()
}
