package conversation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainconversation "jan-chat/internal/domain/conversation"
	"jan-chat/internal/infrastructure/auth"
	"jan-chat/internal/infrastructure/database/repository/memoryrepo"
	"jan-chat/internal/interfaces/httpserver/handlers/authhandler"
	"jan-chat/internal/interfaces/httpserver/handlers/conversationhandler"
	conversationresponses "jan-chat/internal/interfaces/httpserver/responses/conversation"
	"jan-chat/internal/interfaces/httpserver/routes/conversation"
)

// tokenAsSubject accepts any token and uses it as the subject.
type tokenAsSubject struct{}

func (tokenAsSubject) Validate(_ context.Context, raw string) (*auth.PrincipalClaims, error) {
	return &auth.PrincipalClaims{Subject: raw}, nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	service := domainconversation.NewConversationService(memoryrepo.NewConversationMemoryRepository())
	route := conversation.NewConversationRoute(
		conversationhandler.NewConversationHandler(service),
		authhandler.NewAuthHandlerWithValidator(tokenAsSubject{}, zerolog.Nop()),
	)
	route.RegisterRouter(r)
	return r
}

func do(r http.Handler, method, path, body, user string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func create(t *testing.T, r http.Handler, title, user string) conversationresponses.ConversationResponse {
	t.Helper()
	w := do(r, http.MethodPost, "/conversations", fmt.Sprintf(`{"title":%q}`, title), user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[conversationresponses.ConversationEnvelope](t, w).Conversation
}

func TestConversationsRequireAuth(t *testing.T) {
	r := newRouter()
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/conversations"},
		{http.MethodPost, "/conversations"},
		{http.MethodGet, "/conversations/abc"},
		{http.MethodPatch, "/conversations/abc"},
		{http.MethodDelete, "/conversations/abc"},
		{http.MethodGet, "/conversations/abc/history"},
		{http.MethodPost, "/conversations/abc/messages"},
	} {
		w := do(r, tc.method, tc.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestConversationLifecycle(t *testing.T) {
	r := newRouter()
	conv := create(t, r, "Demo", "u1")
	assert.Equal(t, "Demo", conv.Title)
	assert.Equal(t, "u1", conv.UserID)

	w := do(r, http.MethodPost, "/conversations/"+conv.ID+"/messages", `{"role":"user","content":"Hello"}`, "u1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	msg := decode[conversationresponses.MessageEnvelope](t, w).Message
	assert.Equal(t, "user", msg.Role)
	assert.Equal(t, conv.ID, msg.ConversationID)

	w = do(r, http.MethodPost, "/conversations/"+conv.ID+"/messages", `{"role":"assistant","content":"Hi there"}`, "u1")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/conversations/"+conv.ID, "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[conversationresponses.ConversationDetailResponse](t, w)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "Hello", detail.Messages[0].Content)
	assert.Equal(t, "Hi there", detail.Messages[1].Content)

	w = do(r, http.MethodGet, "/conversations/"+conv.ID+"/history?limit=1", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[conversationresponses.MessageListResponse](t, w)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "Hi there", history.Messages[0].Content)

	w = do(r, http.MethodPatch, "/conversations/"+conv.ID, `{"title":"Renamed"}`, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decode[conversationresponses.ConversationEnvelope](t, w).Conversation.Title)

	w = do(r, http.MethodGet, "/conversations", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[conversationresponses.ConversationListResponse](t, w)
	require.Len(t, list.Conversations, 1)

	w = do(r, http.MethodDelete, "/conversations/"+conv.ID, "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = do(r, http.MethodGet, "/conversations/"+conv.ID, "", "u1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationIsolation(t *testing.T) {
	r := newRouter()
	conv := create(t, r, "private", "u1")

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/conversations/"+conv.ID, "", "u2").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/conversations/"+conv.ID+"/messages", `{"role":"user","content":"x"}`, "u2").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPatch, "/conversations/"+conv.ID, `{"title":"stolen"}`, "u2").Code)

	w := do(r, http.MethodGet, "/conversations", "", "u2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"conversations":[]}`, w.Body.String())
}

func TestConversationValidation(t *testing.T) {
	r := newRouter()
	conv := create(t, r, "validation", "u1")

	w := do(r, http.MethodPost, "/conversations", `{"title":"   "}`, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPatch, "/conversations/"+conv.ID, `{}`, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/conversations/"+conv.ID+"/messages", `{"role":"tool","content":"x"}`, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/conversations/"+conv.ID+"/messages", `{"role":"user","content":""}`, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/conversations/"+conv.ID+"/history?limit=abc", "", "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/conversations/"+conv.ID+"/history?limit=500", "", "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
