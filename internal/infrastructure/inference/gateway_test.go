package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"jan-chat/internal/domain/conversation"
	domaininference "jan-chat/internal/domain/inference"
	"jan-chat/internal/infrastructure/credentials"
	"jan-chat/internal/utils/httpclients"
	chatclient "jan-chat/internal/utils/httpclients/chat"
	"jan-chat/internal/utils/platformerrors"
)

const openRouterModel = "deepseek/deepseek-r1:free"

func keys(values map[string]string) credentials.Source {
	return credentials.NewEnvSourceWithLookup(func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	})
}

func newChatClient(url string) *chatclient.ChatCompletionClient {
	return chatclient.NewChatCompletionClient(httpclients.NewClient("TestClient"), "test", url)
}

func sampleRequest() domaininference.Request {
	return domaininference.Request{
		History: []domaininference.Turn{
			{Role: conversation.RoleSystem, Content: "ignored"},
			{Role: conversation.RoleUser, Content: "Hi"},
			{Role: conversation.RoleAssistant, Content: "Hello!"},
		},
		Message:      "How are you?",
		SystemPrompt: "You are a helpful assistant.",
		MaxTokens:    2048,
		Temperature:  0.7,
	}
}

func TestChatMessagesDropsSystemHistory(t *testing.T) {
	messages := chatMessages(sampleRequest())
	require.Len(t, messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Equal(t, "You are a helpful assistant.", messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, messages[2].Role)
	assert.Equal(t, "How are you?", messages[3].Content)
}

func TestOpenRouterGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-deepseek", r.Header.Get("Authorization"))
		assert.Equal(t, "https://chat.example.com", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "AI Chatbot", r.Header.Get("X-Title"))

		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, openRouterModel, req.Model)
		assert.Equal(t, 2048, req.MaxTokens)
		assert.Len(t, req.Messages, 4)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Doing well."}}],"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`))
	}))
	defer server.Close()

	gateway := NewOpenRouterGateway(newChatClient(server.URL), keys(map[string]string{"DEEPSEEK_API_KEY": "sk-deepseek"}),
		openRouterModel, "https://chat.example.com", "AI Chatbot")

	reply, err := gateway.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "Doing well.", reply.Content)
	assert.Equal(t, openRouterModel, reply.Model)
	assert.Equal(t, "deepseek", reply.Provider)
	require.NotNil(t, reply.Usage)
	assert.Equal(t, 13, reply.Usage.TotalTokens)
}

func TestOpenRouterRejectsOtherModelsWithoutCalling(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	gateway := NewOpenRouterGateway(newChatClient(server.URL), keys(map[string]string{"OPENROUTER_API_KEY": "sk"}), openRouterModel, "", "")
	assert.False(t, gateway.Supports("gpt-4"))

	req := sampleRequest()
	req.Model = "gpt-4"
	_, err := gateway.Generate(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeConfiguration, domaininference.Classify(err))
	assert.Zero(t, calls.Load())
}

func TestOpenRouterEmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	gateway := NewOpenRouterGateway(newChatClient(server.URL), keys(map[string]string{"OPENROUTER_API_KEY": "sk"}), openRouterModel, "", "")
	reply, err := gateway.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "No response generated.", reply.Content)
	assert.Nil(t, reply.Usage)
}

func TestOpenRouterMissingKey(t *testing.T) {
	gateway := NewOpenRouterGateway(newChatClient("http://127.0.0.1:1"), keys(nil), openRouterModel, "", "")
	_, err := gateway.Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeConfiguration, domaininference.Classify(err))
}

func TestOpenAIGatewayErrorClasses(t *testing.T) {
	tests := []struct {
		status int
		want   platformerrors.ErrorType
	}{
		{http.StatusUnauthorized, platformerrors.ErrorTypeUnauthorized},
		{http.StatusTooManyRequests, platformerrors.ErrorTypeRateLimited},
		{http.StatusInternalServerError, platformerrors.ErrorTypeExternal},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			gateway := NewOpenAIGateway(newChatClient(server.URL), keys(map[string]string{"OPENAI_API_KEY": "sk"}), "gpt-3.5-turbo")
			_, err := gateway.Generate(context.Background(), sampleRequest())
			require.Error(t, err)
			assert.Equal(t, tt.want, domaininference.Classify(err))
		})
	}
}

func TestOpenAIGatewayStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.True(t, req.Stream)

		for _, fragment := range []string{"Hel", "lo", "!"} {
			_, _ = fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", fragment)
		}
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	gateway := NewOpenAIGateway(newChatClient(server.URL), keys(map[string]string{"OPENAI_API_KEY": "sk"}), "gpt-3.5-turbo")
	assert.True(t, gateway.Supports("gpt-3.5-turbo"))

	stream, err := gateway.Stream(context.Background(), sampleRequest())
	require.NoError(t, err)
	defer stream.Close()

	var assembled string
	for stream.Next() {
		assembled += stream.Content()
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, "Hello!", assembled)
	assert.False(t, stream.Next())
}

type fakeGeminiModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGeminiModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func newGeminiGateway(fake *fakeGeminiModels, apiKeys map[string]string) *GeminiGateway {
	gateway := NewGeminiGateway(keys(apiKeys), "gemini-2.0-flash")
	gateway.newClient = func(context.Context, string) (geminiModelsClient, error) {
		return fake, nil
	}
	return gateway
}

func TestGeminiGenerate(t *testing.T) {
	fake := &fakeGeminiModels{
		resp: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "thinking", Thought: true},
					{Text: "Fine, "},
					{Text: "thanks."},
				}},
			}},
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 7, CandidatesTokenCount: 3, TotalTokenCount: 10},
		},
	}
	gateway := newGeminiGateway(fake, map[string]string{"GEMINI_API_KEY": "g-key"})

	reply, err := gateway.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "Fine, thanks.", reply.Content)
	assert.Equal(t, "gemini", reply.Provider)
	assert.Equal(t, 10, reply.Usage.TotalTokens)

	assert.Equal(t, "gemini-2.0-flash", fake.model)
	require.Len(t, fake.contents, 3)
	assert.Equal(t, genai.RoleUser, fake.contents[0].Role)
	assert.Equal(t, genai.RoleModel, fake.contents[1].Role)
	assert.Equal(t, "How are you?", fake.contents[2].Parts[0].Text)
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, int32(2048), fake.config.MaxOutputTokens)
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want platformerrors.ErrorType
	}{
		{"quota", genai.APIError{Code: http.StatusTooManyRequests, Message: "quota exceeded"}, platformerrors.ErrorTypeRateLimited},
		{"bad key", genai.APIError{Code: http.StatusBadRequest, Message: "API key not valid"}, platformerrors.ErrorTypeUnauthorized},
		{"server", genai.APIError{Code: http.StatusInternalServerError, Message: "internal"}, platformerrors.ErrorTypeExternal},
		{"transport", errors.New("connection reset"), platformerrors.ErrorTypeExternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := newGeminiGateway(&fakeGeminiModels{err: tt.err}, map[string]string{"GEMINI_API_KEY": "g-key"})
			_, err := gateway.Generate(context.Background(), sampleRequest())
			require.Error(t, err)
			assert.Equal(t, tt.want, domaininference.Classify(err))
		})
	}
}

func TestGeminiMissingKey(t *testing.T) {
	gateway := newGeminiGateway(&fakeGeminiModels{}, nil)
	_, err := gateway.Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeConfiguration, domaininference.Classify(err))
}
