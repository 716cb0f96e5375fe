package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"time"

	"resty.dev/v3"

	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/domain/inference"
	"jan-chat/internal/domain/session"
	chatrequests "jan-chat/internal/interfaces/httpserver/requests/chat"
	conversationrequests "jan-chat/internal/interfaces/httpserver/requests/conversation"
	"jan-chat/internal/interfaces/httpserver/responses"
	chatresponses "jan-chat/internal/interfaces/httpserver/responses/chat"
	conversationresponses "jan-chat/internal/interfaces/httpserver/responses/conversation"
	modelresponses "jan-chat/internal/interfaces/httpserver/responses/model"
	"jan-chat/internal/utils/httpclients"
	"jan-chat/internal/utils/platformerrors"
)

const (
	clientName    = "JanChatAPI"
	doneEvent     = "[DONE]"
	maxStreamLine = 1024 * 1024
)

// Client talks to the chat HTTP API on behalf of one signed-in user.
type Client struct {
	client  *resty.Client
	baseURL string
	token   string
	modelID string
}

var (
	_ session.ConversationStore = (*Client)(nil)
	_ session.Responder         = (*Client)(nil)
)

func New(baseURL, token, modelID string, timeout time.Duration) *Client {
	client := httpclients.NewClient(clientName)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		modelID: modelID,
	}
}

func (c *Client) ListConversations(ctx context.Context) ([]*conversation.Conversation, error) {
	var body conversationresponses.ConversationListResponse
	if err := c.do(ctx, c.request(ctx).SetResult(&body), "GET", "/conversations"); err != nil {
		return nil, err
	}
	result := make([]*conversation.Conversation, 0, len(body.Conversations))
	for _, conv := range body.Conversations {
		result = append(result, toConversation(conv))
	}
	return result, nil
}

func (c *Client) CreateConversation(ctx context.Context, title string) (*conversation.Conversation, error) {
	var body conversationresponses.ConversationEnvelope
	req := c.request(ctx).
		SetBody(conversationrequests.CreateConversationRequest{Title: title}).
		SetResult(&body)
	if err := c.do(ctx, req, "POST", "/conversations"); err != nil {
		return nil, err
	}
	return toConversation(body.Conversation), nil
}

func (c *Client) GetConversation(ctx context.Context, id string) (*conversation.ConversationWithMessages, error) {
	var body conversationresponses.ConversationDetailResponse
	if err := c.do(ctx, c.request(ctx).SetResult(&body), "GET", "/conversations/"+url.PathEscape(id)); err != nil {
		return nil, err
	}
	messages := make([]*conversation.Message, 0, len(body.Messages))
	for _, msg := range body.Messages {
		messages = append(messages, toMessage(msg))
	}
	return &conversation.ConversationWithMessages{
		Conversation: toConversation(body.Conversation),
		Messages:     messages,
	}, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, c.request(ctx), "DELETE", "/conversations/"+url.PathEscape(id))
}

func (c *Client) AddMessage(ctx context.Context, conversationID string, role conversation.Role, content string) (*conversation.Message, error) {
	var body conversationresponses.MessageEnvelope
	req := c.request(ctx).
		SetBody(conversationrequests.AddMessageRequest{Role: string(role), Content: content}).
		SetResult(&body)
	if err := c.do(ctx, req, "POST", "/conversations/"+url.PathEscape(conversationID)+"/messages"); err != nil {
		return nil, err
	}
	return toMessage(body.Message), nil
}

func (c *Client) ListModels(ctx context.Context) ([]modelresponses.ModelResponse, error) {
	var body modelresponses.ModelListResponse
	if err := c.do(ctx, c.request(ctx).SetResult(&body), "GET", "/models"); err != nil {
		return nil, err
	}
	return body.Models, nil
}

// Reply asks POST /chat for a reply. The session controller persists both turns
// itself, so no conversation id is sent.
func (c *Client) Reply(ctx context.Context, message string, history []inference.Turn) (string, error) {
	var body chatresponses.ChatResponse
	req := c.request(ctx).SetBody(c.chatRequest(message, history)).SetResult(&body)
	if err := c.do(ctx, req, "POST", "/chat"); err != nil {
		return "", err
	}
	if body.Fallback {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "model unavailable: "+body.Error, nil, "3a7c9e1b-5d2f-4b8a-9c6e-0f1a2b3c4d5e")
	}
	return body.Response, nil
}

// StreamReply reads POST /chat/stream and hands each fragment to onFragment.
// The assembled reply is returned only once [DONE] arrives.
func (c *Client) StreamReply(ctx context.Context, message string, history []inference.Turn, onFragment func(string)) (string, error) {
	resp, err := c.request(ctx).
		SetBody(c.chatRequest(message, history)).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		Post(c.baseURL + "/chat/stream")
	if err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "chat stream request failed", err, "4b8d0f2c-6e3a-4c9b-8d7f-1a2b3c4d5e6f")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "chat stream returned no body", nil, "5c9e1a3d-7f4b-4dac-9e8a-2b3c4d5e6f7a")
	}
	defer resp.RawResponse.Body.Close()

	if resp.IsError() {
		raw, _ := io.ReadAll(io.LimitReader(resp.RawResponse.Body, 4096))
		return "", statusError(ctx, resp.StatusCode(), raw)
	}

	var reply strings.Builder
	scanner := bufio.NewScanner(resp.RawResponse.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == doneEvent {
			return reply.String(), nil
		}

		var chunk chatresponses.StreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, chunk.Error, nil, "6daf2b4e-8a5c-4ebd-8f9b-3c4d5e6f7a8b")
		}
		if chunk.Content == "" {
			continue
		}
		reply.WriteString(chunk.Content)
		if onFragment != nil {
			onFragment(chunk.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "chat stream interrupted", err, "7eb03c5f-9b6d-4fce-9a0c-4d5e6f7a8b9c")
	}
	return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "chat stream ended before completion", nil, "8fc14d60-ac7e-4adf-8b1d-5e6f7a8b9c0d")
}

func (c *Client) chatRequest(message string, history []inference.Turn) chatrequests.ChatRequest {
	req := chatrequests.ChatRequest{Message: message, ModelID: c.modelID}
	for _, turn := range history {
		req.ConversationHistory = append(req.ConversationHistory, chatrequests.HistoryMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	return req
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetForceResponseContentType("application/json")
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	return req
}

func (c *Client) do(ctx context.Context, req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, method+" "+path+" failed", err, "90d25e71-bd8f-4be0-9c2e-6f7a8b9c0d1e")
	}
	if resp.IsError() {
		return statusError(ctx, resp.StatusCode(), resp.Bytes())
	}
	return nil
}

// statusError prefers the API's own error text over the raw body.
func statusError(ctx context.Context, status int, raw []byte) error {
	message := strings.TrimSpace(string(raw))
	var body responses.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		message = body.Error
	}
	perr := httpclients.StatusError(ctx, clientName, status, message, "a1e36f82-ce90-4cf1-8d3f-7a8b9c0d1e2f")
	if status == 404 {
		perr.Type = platformerrors.ErrorTypeNotFound
	}
	return perr
}

func toConversation(resp conversationresponses.ConversationResponse) *conversation.Conversation {
	return &conversation.Conversation{
		ID:        resp.ID,
		Title:     resp.Title,
		UserID:    resp.UserID,
		CreatedAt: resp.CreatedAt,
		UpdatedAt: resp.UpdatedAt,
	}
}

func toMessage(resp conversationresponses.MessageResponse) *conversation.Message {
	return &conversation.Message{
		ID:             resp.ID,
		ConversationID: resp.ConversationID,
		Role:           conversation.Role(resp.Role),
		Content:        resp.Content,
		CreatedAt:      resp.CreatedAt,
	}
}
