package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-chat/internal/config"
	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/domain/inference"
	"jan-chat/internal/domain/model"
	"jan-chat/internal/infrastructure"
	"jan-chat/internal/infrastructure/database/repository/memoryrepo"
	"jan-chat/internal/interfaces/httpserver"
	"jan-chat/internal/interfaces/httpserver/handlers/authhandler"
	"jan-chat/internal/interfaces/httpserver/handlers/chathandler"
	"jan-chat/internal/interfaces/httpserver/handlers/conversationhandler"
	"jan-chat/internal/interfaces/httpserver/handlers/modelhandler"
	modelresponses "jan-chat/internal/interfaces/httpserver/responses/model"
	"jan-chat/internal/interfaces/httpserver/routes"
	chatroute "jan-chat/internal/interfaces/httpserver/routes/chat"
	conversationroute "jan-chat/internal/interfaces/httpserver/routes/conversation"
	modelroute "jan-chat/internal/interfaces/httpserver/routes/model"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{
		HTTPPort:           0,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		ServiceName:        "chat-api-test",
		GeminiModel:        "gemini-2.0-flash",
		AppName:            "AI Chatbot",
		AppDescription:     "A modern AI chatbot",
	}
	authHandler := authhandler.NewAuthHandler(nil, zerolog.Nop())
	service := conversation.NewConversationService(memoryrepo.NewConversationMemoryRepository())
	route := routes.NewRoute(
		chatroute.NewChatRoute(chathandler.NewChatHandlerWithSender(nil), authHandler, cfg),
		conversationroute.NewConversationRoute(conversationhandler.NewConversationHandler(service), authHandler),
		modelroute.NewModelRoute(modelhandler.NewModelHandler(model.NewCatalog(2048, 0.7), inference.NewRegistry("deepseek/deepseek-r1:free", "gpt-3.5-turbo"), cfg)),
	)
	server := httpserver.NewHttpServer(route, authHandler, &infrastructure.Infrastructure{Logger: zerolog.Nop()}, cfg)
	return server.Handler()
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthEndpoints(t *testing.T) {
	h := newServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/healthcheck"} {
		w := get(h, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRoutesAreMirroredUnderAPI(t *testing.T) {
	h := newServer(t)

	for _, path := range []string{"/models", "/api/models"} {
		w := get(h, path)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"deepseek-chat"`)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestConversationsWithoutAuthConfigured(t *testing.T) {
	h := newServer(t)

	assert.Equal(t, http.StatusUnauthorized, get(h, "/conversations").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/api/conversations").Code)
}

func TestSwaggerDocument(t *testing.T) {
	w := get(newServer(t), "/api/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	info, ok := doc["info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Jan Chat API", info["title"])
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	for _, path := range []string{"/chat", "/chat/stream", "/gemini", "/models", "/conversations", "/conversations/{id}", "/conversations/{id}/history", "/conversations/{id}/messages"} {
		assert.Contains(t, paths, path)
	}
}

func TestModelsDescribeApplication(t *testing.T) {
	w := get(newServer(t), "/models")
	require.Equal(t, http.StatusOK, w.Code)

	var resp modelresponses.ModelListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AI Chatbot", resp.App.Name)
	assert.Equal(t, "A modern AI chatbot", resp.App.Description)
	assert.Equal(t, "deepseek/deepseek-r1:free", resp.DefaultModel)
	assert.NotEmpty(t, resp.Models)
}
