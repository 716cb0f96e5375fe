package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-chat/internal/config"
	domainchat "jan-chat/internal/domain/chat"
	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/domain/inference"
	"jan-chat/internal/infrastructure/auth"
	"jan-chat/internal/infrastructure/database/repository/memoryrepo"
	"jan-chat/internal/interfaces/httpserver/handlers/authhandler"
	"jan-chat/internal/interfaces/httpserver/handlers/chathandler"
	"jan-chat/internal/interfaces/httpserver/middlewares"
	"jan-chat/internal/interfaces/httpserver/responses"
	chatresponses "jan-chat/internal/interfaces/httpserver/responses/chat"
	"jan-chat/internal/interfaces/httpserver/routes/chat"
	"jan-chat/internal/utils/httpclients"
	"jan-chat/internal/utils/platformerrors"
)

type mockSender struct {
	SendFunc   func(ctx context.Context, in domainchat.SendInput) (*domainchat.SendResult, error)
	StreamFunc func(ctx context.Context, in domainchat.SendInput, emit func(string) error) (*domainchat.SendResult, error)
}

func (m *mockSender) Send(ctx context.Context, in domainchat.SendInput) (*domainchat.SendResult, error) {
	return m.SendFunc(ctx, in)
}

func (m *mockSender) Stream(ctx context.Context, in domainchat.SendInput, emit func(string) error) (*domainchat.SendResult, error) {
	return m.StreamFunc(ctx, in, emit)
}

type staticValidator struct{}

func (staticValidator) Validate(_ context.Context, raw string) (*auth.PrincipalClaims, error) {
	if raw != "good" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.PrincipalClaims{Subject: "user-1"}, nil
}

func newRouter(sender chathandler.ChatSender) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.RequestID())
	authHandler := authhandler.NewAuthHandlerWithValidator(staticValidator{}, zerolog.Nop())
	route := chat.NewChatRoute(chathandler.NewChatHandlerWithSender(sender), authHandler, &config.Config{GeminiModel: "gemini-2.0-flash"})
	route.RegisterRouter(r)
	return r
}

type failingStreamGateway struct {
	err func(ctx context.Context) error
}

func (failingStreamGateway) Name() string { return "openai" }
func (failingStreamGateway) Supports(m string) bool { return m == "gpt-4o-mini" }
func (g failingStreamGateway) Generate(ctx context.Context, _ inference.Request) (*inference.Reply, error) {
	return nil, g.err(ctx)
}
func (g failingStreamGateway) Stream(ctx context.Context, _ inference.Request) (inference.Stream, error) {
	return nil, g.err(ctx)
}

func newServiceRouter(gateway inference.Gateway) *gin.Engine {
	registry := inference.NewRegistry("gpt-4o-mini", "gpt-4o-mini", gateway)
	conversations := conversation.NewConversationService(memoryrepo.NewConversationMemoryRepository())
	return newRouter(domainchat.NewChatService(registry, conversations, domainchat.Config{}))
}

func post(r http.Handler, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func saved(v bool) *bool { return &v }

func TestPostChat(t *testing.T) {
	var got domainchat.SendInput
	sender := &mockSender{SendFunc: func(_ context.Context, in domainchat.SendInput) (*domainchat.SendResult, error) {
		got = in
		return &domainchat.SendResult{
			Response:  "Hello!",
			Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			Model:     "deepseek/deepseek-r1:free",
			Provider:  "deepseek",
			Usage:     &inference.Usage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5},
			Saved:     saved(true),
		}, nil
	}}

	body := `{"message":"Hi","conversationId":"c1","modelId":"deepseek/deepseek-r1:free",
		"conversationHistory":[{"role":"user","content":"earlier"},{"role":"tool","content":"dropped"}]}`
	w := post(newRouter(sender), "/chat", body, "good")

	require.Equal(t, http.StatusOK, w.Code)
	var resp chatresponses.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Hello!", resp.Response)
	assert.Equal(t, "2025-01-02T03:04:05Z", resp.Timestamp)
	assert.Equal(t, "deepseek", resp.Provider)
	require.NotNil(t, resp.Saved)
	assert.True(t, *resp.Saved)
	assert.False(t, resp.Fallback)
	assert.Contains(t, w.Body.String(), `"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}`)

	assert.Equal(t, "Hi", got.Message)
	assert.Equal(t, "c1", got.ConversationID)
	assert.Equal(t, "user-1", got.OwnerID)
	require.Len(t, got.History, 1)
	assert.Equal(t, conversation.RoleUser, got.History[0].Role)
}

func TestPostChatAnonymous(t *testing.T) {
	var got domainchat.SendInput
	sender := &mockSender{SendFunc: func(_ context.Context, in domainchat.SendInput) (*domainchat.SendResult, error) {
		got = in
		return &domainchat.SendResult{Response: "ok", Timestamp: time.Now()}, nil
	}}

	w := post(newRouter(sender), "/chat", `{"message":"Hi","conversationId":"c1"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, got.OwnerID)
	assert.NotContains(t, w.Body.String(), `"saved"`)
}

func TestPostChatInvalidToken(t *testing.T) {
	sender := &mockSender{SendFunc: func(context.Context, domainchat.SendInput) (*domainchat.SendResult, error) {
		t.Fatal("sender must not be called")
		return nil, nil
	}}

	w := post(newRouter(sender), "/chat", `{"message":"Hi"}`, "bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostChatFallback(t *testing.T) {
	sender := &mockSender{SendFunc: func(context.Context, domainchat.SendInput) (*domainchat.SendResult, error) {
		return &domainchat.SendResult{
			Response:  "I'm having trouble connecting right now. Please try again in a moment.",
			Timestamp: time.Now(),
			Fallback:  true,
			Error:     "upstream unavailable",
			ErrorType: platformerrors.ErrorTypeExternal,
			Retryable: true,
		}, nil
	}}

	w := post(newRouter(sender), "/chat", `{"message":"Hi"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp chatresponses.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Fallback)
	assert.Equal(t, "upstream unavailable", resp.Error)
	assert.Equal(t, "EXTERNAL", resp.ErrorType)
	require.NotNil(t, resp.Retryable)
	assert.True(t, *resp.Retryable)
}

func TestPostChatFallbackFromUpstreamOutage(t *testing.T) {
	gateway := failingStreamGateway{err: func(ctx context.Context) error {
		return httpclients.StatusError(ctx, "openai", http.StatusServiceUnavailable, "overloaded", "")
	}}

	w := post(newServiceRouter(gateway), "/chat", `{"message":"Hi"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp chatresponses.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Fallback)
	assert.Equal(t, "EXTERNAL", resp.ErrorType)
	require.NotNil(t, resp.Retryable)
	assert.True(t, *resp.Retryable)
}

func TestPostChatSuccessOmitsRetryable(t *testing.T) {
	sender := &mockSender{SendFunc: func(context.Context, domainchat.SendInput) (*domainchat.SendResult, error) {
		return &domainchat.SendResult{Response: "ok", Timestamp: time.Now()}, nil
	}}

	w := post(newRouter(sender), "/chat", `{"message":"Hi"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"retryable"`)
	assert.NotContains(t, w.Body.String(), `"errorType"`)
}

func TestPostChatErrors(t *testing.T) {
	tests := []struct {
		name        string
		errType     platformerrors.ErrorType
		message     string
		wantStatus  int
		wantMessage string
	}{
		{"validation", platformerrors.ErrorTypeValidation, "Message is required", http.StatusBadRequest, "Message is required"},
		{"bad provider key", platformerrors.ErrorTypeUnauthorized, "openai rejected the API key", http.StatusUnauthorized, "Invalid API key. Please check your API configuration."},
		{"rate limited", platformerrors.ErrorTypeRateLimited, "openai rate limit", http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."},
		{"not configured", platformerrors.ErrorTypeConfiguration, "OPENAI_API_KEY is not set", http.StatusInternalServerError, "OPENAI_API_KEY is not set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &mockSender{SendFunc: func(ctx context.Context, _ domainchat.SendInput) (*domainchat.SendResult, error) {
				return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, tt.errType, tt.message, nil, "0f1e2d3c-4b5a-4968-8778-a6b5c4d3e2f1")
			}}

			w := post(newRouter(sender), "/chat", `{"message":"Hi"}`, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp responses.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMessage, resp.Error)
			assert.Equal(t, tt.message, resp.Details)
		})
	}
}

func TestPostChatMalformedBody(t *testing.T) {
	sender := &mockSender{}
	w := post(newRouter(sender), "/chat", `{"message":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostGeminiForcesModel(t *testing.T) {
	var got domainchat.SendInput
	sender := &mockSender{SendFunc: func(_ context.Context, in domainchat.SendInput) (*domainchat.SendResult, error) {
		got = in
		return &domainchat.SendResult{Response: "from gemini", Timestamp: time.Now(), Model: in.ModelID}, nil
	}}

	w := post(newRouter(sender), "/gemini", `{"message":"Hi","modelId":"gpt-4"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gemini-2.0-flash", got.ModelID)
}

func TestPostChatStream(t *testing.T) {
	sender := &mockSender{StreamFunc: func(_ context.Context, _ domainchat.SendInput, emit func(string) error) (*domainchat.SendResult, error) {
		for _, fragment := range []string{"Hel", "lo"} {
			if err := emit(fragment); err != nil {
				return nil, err
			}
		}
		return &domainchat.SendResult{Response: "Hello", Timestamp: time.Now()}, nil
	}}

	w := post(newRouter(sender), "/chat/stream", `{"message":"Hi"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "data: {\"content\":\"Hel\"}\n\ndata: {\"content\":\"lo\"}\n\ndata: [DONE]\n\n", w.Body.String())
}

func TestPostChatStreamEmptyReplyStillEndsWithDone(t *testing.T) {
	sender := &mockSender{StreamFunc: func(context.Context, domainchat.SendInput, func(string) error) (*domainchat.SendResult, error) {
		return &domainchat.SendResult{Timestamp: time.Now()}, nil
	}}

	w := post(newRouter(sender), "/chat/stream", `{"message":"Hi"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "data: [DONE]\n\n", w.Body.String())
}

func TestPostChatStreamErrorBeforeFirstFragment(t *testing.T) {
	sender := &mockSender{StreamFunc: func(ctx context.Context, _ domainchat.SendInput, _ func(string) error) (*domainchat.SendResult, error) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "model does not support streaming", nil, "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d")
	}}

	w := post(newRouter(sender), "/chat/stream", `{"message":"Hi"}`, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.NotContains(t, w.Body.String(), "data:")
}

func TestPostChatStreamErrorMidStream(t *testing.T) {
	sender := &mockSender{StreamFunc: func(ctx context.Context, _ domainchat.SendInput, emit func(string) error) (*domainchat.SendResult, error) {
		require.NoError(t, emit("partial"))
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "stream ended unexpectedly", nil, "2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d6f")
	}}

	w := post(newRouter(sender), "/chat/stream", `{"message":"Hi"}`, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "data: {\"content\":\"partial\"}\n\n"))
	assert.Contains(t, body, `data: {"error":"stream ended unexpectedly"}`)
	assert.NotContains(t, body, "[DONE]")
}

func TestPostChatStreamOpenFailureStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        func(ctx context.Context) error
		wantStatus int
	}{
		{"upstream outage", func(ctx context.Context) error {
			return httpclients.StatusError(ctx, "openai", http.StatusServiceUnavailable, "overloaded", "")
		}, http.StatusInternalServerError},
		{"rate limited", func(ctx context.Context) error {
			return httpclients.StatusError(ctx, "openai", http.StatusTooManyRequests, "slow down", "")
		}, http.StatusTooManyRequests},
		{"bad key", func(ctx context.Context) error {
			return httpclients.StatusError(ctx, "openai", http.StatusUnauthorized, "invalid key", "")
		}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(newServiceRouter(failingStreamGateway{err: tt.err}), "/chat/stream", `{"message":"Hi"}`, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			assert.NotContains(t, w.Body.String(), "data:")
		})
	}
}
