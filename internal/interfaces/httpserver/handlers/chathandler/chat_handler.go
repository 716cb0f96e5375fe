package chathandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"jan-chat/internal/domain/chat"
	"jan-chat/internal/infrastructure/metrics"
	"jan-chat/internal/infrastructure/observability"
	"jan-chat/internal/interfaces/httpserver/middlewares"
	"jan-chat/internal/interfaces/httpserver/responses"
	chatresponses "jan-chat/internal/interfaces/httpserver/responses/chat"
	"jan-chat/internal/utils/platformerrors"
)

const doneEvent = "[DONE]"

// ChatSender is the chat send flow as seen by the HTTP layer.
type ChatSender interface {
	Send(ctx context.Context, in chat.SendInput) (*chat.SendResult, error)
	Stream(ctx context.Context, in chat.SendInput, emit func(fragment string) error) (*chat.SendResult, error)
}

// ChatHandler turns send results into JSON bodies and SSE streams.
type ChatHandler struct {
	chat      ChatSender
	sanitizer *observability.Sanitizer
}

func NewChatHandler(chatService *chat.ChatService, sanitizer *observability.Sanitizer) *ChatHandler {
	return &ChatHandler{chat: chatService, sanitizer: sanitizer}
}

// NewChatHandlerWithSender is NewChatHandler over any ChatSender. Span content is redacted.
func NewChatHandlerWithSender(sender ChatSender) *ChatHandler {
	return &ChatHandler{chat: sender, sanitizer: observability.NewSanitizer(observability.PIILevelNone, "")}
}

// Send runs one synchronous chat turn and writes the response body.
func (h *ChatHandler) Send(reqCtx *gin.Context, endpoint string, in chat.SendInput) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "ChatHandler.Send")
	defer span.End()
	h.annotate(ctx, in)

	result, err := h.chat.Send(ctx, in)
	if err != nil {
		observability.RecordError(ctx, err)
		WriteError(reqCtx, err)
		return
	}
	if result.Fallback {
		metrics.RecordFallback(endpoint)
	}
	if result.Saved != nil && !*result.Saved {
		metrics.RecordPersistenceFailure(endpoint)
	}
	reqCtx.JSON(http.StatusOK, chatresponses.NewChatResponse(result))
}

// Stream relays reply fragments as `data: {"content":...}` events followed by
// `data: [DONE]`. A failure before the first fragment is answered as a JSON
// error; a failure after it writes `data: {"error":...}` and no [DONE].
func (h *ChatHandler) Stream(reqCtx *gin.Context, endpoint string, in chat.SendInput) {
	ctx, span := observability.StartSpan(reqCtx.Request.Context(), "ChatHandler.Stream")
	defer span.End()
	h.annotate(ctx, in)

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	var flusher http.Flusher
	started := false
	start := func() {
		if started {
			return
		}
		started = true
		flusher, _ = middlewares.PrepareSSE(reqCtx)
		reqCtx.Status(http.StatusOK)
	}
	write := func(payload string) error {
		if _, err := reqCtx.Writer.Write([]byte("data: " + payload + "\n\n")); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	result, err := h.chat.Stream(ctx, in, func(fragment string) error {
		start()
		return write(encodeChunk(chatresponses.StreamChunk{Content: fragment}))
	})
	if err != nil {
		observability.RecordError(ctx, err)
		if !started {
			WriteError(reqCtx, err)
			return
		}
		log.Warn().
			Err(err).
			Str("request_id", middlewares.RequestIDFromContext(reqCtx)).
			Msg("stream interrupted after first fragment")
		_ = write(encodeChunk(chatresponses.StreamChunk{Error: errorText(err)}))
		return
	}

	start()
	if result.Saved != nil && !*result.Saved {
		metrics.RecordPersistenceFailure(endpoint)
	}
	_ = write(doneEvent)
}

func (h *ChatHandler) annotate(ctx context.Context, in chat.SendInput) {
	observability.AddSpanAttributes(ctx,
		attribute.String("chat.model", in.ModelID),
		attribute.Bool("chat.persist", in.ConversationID != "" && in.OwnerID != ""),
		attribute.Int("chat.history_length", len(in.History)),
		attribute.String("chat.message", h.sanitizer.SanitizeText(in.Message)),
		attribute.String("enduser.id", h.sanitizer.SanitizeUserID(in.OwnerID)),
	)
}

// WriteError answers a failed chat turn with the provider-facing messages clients expect.
func WriteError(reqCtx *gin.Context, err error) {
	var platformErr *platformerrors.PlatformError
	if !errors.As(err, &platformErr) {
		responses.HandleError(reqCtx, err, "Failed to process chat message")
		return
	}

	message := platformErr.Message
	switch platformErr.Type {
	case platformerrors.ErrorTypeUnauthorized:
		message = "Invalid API key. Please check your API configuration."
	case platformerrors.ErrorTypeRateLimited:
		message = "Rate limit exceeded. Please try again later."
	}
	status := platformerrors.ErrorTypeToHTTPStatus(platformErr.Type)
	if status >= http.StatusInternalServerError {
		platformerrors.LogError(log.Logger, platformErr)
	}
	_ = reqCtx.Error(err)
	reqCtx.AbortWithStatusJSON(status, responses.ErrorResponse{
		Code:      platformErr.GetUUID(),
		Error:     message,
		Details:   errorText(err),
		RequestID: platformErr.GetRequestID(),
	})
}

func encodeChunk(chunk chatresponses.StreamChunk) string {
	data, _ := json.Marshal(chunk)
	return string(data)
}

func errorText(err error) string {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		for {
			var inner *platformerrors.PlatformError
			if platformErr.Err == nil || !errors.As(platformErr.Err, &inner) {
				break
			}
			platformErr = inner
		}
		if platformErr.Message != "" {
			return platformErr.Message
		}
	}
	return err.Error()
}
