package postgrest

import (
	"context"
	"strconv"
	"strings"
	"time"

	"resty.dev/v3"

	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/utils/functional"
	"jan-chat/internal/utils/httpclients"
	"jan-chat/internal/utils/platformerrors"
)

type conversationRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r conversationRow) toDomain() *conversation.Conversation {
	return &conversation.Conversation{
		ID:        r.ID,
		Title:     r.Title,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type messageRow struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *messageRow) toDomain() *conversation.Message {
	return &conversation.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		Role:           conversation.Role(r.Role),
		Content:        r.Content,
		CreatedAt:      r.CreatedAt.UTC(),
	}
}

// ConversationRepository stores conversations in a Supabase style PostgREST API
// using the conversations and messages tables.
type ConversationRepository struct {
	client *resty.Client
}

var _ conversation.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository authenticates every request with the service key.
func NewConversationRepository(baseURL string, apiKey string, timeout time.Duration) *ConversationRepository {
	client := httpclients.NewClient("PostgRESTClient").
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("apikey", apiKey).SetAuthToken(apiKey)
	}
	return &ConversationRepository{client: client}
}

func (r *ConversationRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	var created []conversationRow
	resp, err := r.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(conversationRow{
			ID:        conv.ID,
			Title:     conv.Title,
			UserID:    conv.UserID,
			CreatedAt: conv.CreatedAt,
			UpdatedAt: conv.UpdatedAt,
		}).
		SetResult(&created).
		Post("/conversations")
	if err := checkResponse(ctx, resp, err, "3a0c5e81-9f2d-4b47-8c16-e7d4a2b90f53"); err != nil {
		return err
	}
	if len(created) > 0 {
		conv.CreatedAt = created[0].CreatedAt.UTC()
		conv.UpdatedAt = created[0].UpdatedAt.UTC()
	}
	return nil
}

func (r *ConversationRepository) FindByIDAndUserID(ctx context.Context, id string, userID string) (*conversation.Conversation, error) {
	var rows []conversationRow
	resp, err := r.request(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("id", "eq."+id).
		SetQueryParam("user_id", "eq."+userID).
		SetQueryParam("limit", "1").
		SetResult(&rows).
		Get("/conversations")
	if err := checkResponse(ctx, resp, err, "4b1d6f92-0a3e-4c58-9d27-f8e5b3c01a64"); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "5c2e7a03-1b4f-4d69-8e38-a9f6c4d12b75")
	}
	return rows[0].toDomain(), nil
}

func (r *ConversationRepository) ListByUserID(ctx context.Context, userID string) ([]*conversation.Conversation, error) {
	var rows []conversationRow
	resp, err := r.request(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("user_id", "eq."+userID).
		SetQueryParam("order", "updated_at.desc").
		SetResult(&rows).
		Get("/conversations")
	if err := checkResponse(ctx, resp, err, "6d3f8b14-2c5a-4e70-9f49-b0a7d5e23c86"); err != nil {
		return nil, err
	}
	return functional.Map(rows, func(row conversationRow) *conversation.Conversation {
		return row.toDomain()
	}), nil
}

func (r *ConversationRepository) UpdateTitle(ctx context.Context, id string, userID string, title string) (*conversation.Conversation, error) {
	current, err := r.FindByIDAndUserID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	rows, err := r.patchConversation(ctx, id, userID, map[string]any{
		"title":      title,
		"updated_at": conversation.NextUpdatedAt(current.UpdatedAt),
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", nil, "7e4a9c25-3d6b-4f81-8a5a-c1b8e6f34d97")
	}
	return rows[0].toDomain(), nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id string, userID string) error {
	if _, err := r.FindByIDAndUserID(ctx, id, userID); err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil
		}
		return err
	}

	resp, err := r.request(ctx).
		SetQueryParam("conversation_id", "eq."+id).
		Delete("/messages")
	if err := checkResponse(ctx, resp, err, "8f5b0d36-4e7c-4092-9b6b-d2c9f7a45e08"); err != nil {
		return err
	}

	resp, err = r.request(ctx).
		SetQueryParam("id", "eq."+id).
		SetQueryParam("user_id", "eq."+userID).
		Delete("/conversations")
	return checkResponse(ctx, resp, err, "9a6c1e47-5f8d-41a3-8c7c-e3d0a8b56f19")
}

func (r *ConversationRepository) AddMessage(ctx context.Context, userID string, msg *conversation.Message) error {
	conv, err := r.FindByIDAndUserID(ctx, msg.ConversationID, userID)
	if err != nil {
		return err
	}

	var created []messageRow
	resp, err := r.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(messageRow{
			ID:             msg.ID,
			ConversationID: msg.ConversationID,
			Role:           string(msg.Role),
			Content:        msg.Content,
			CreatedAt:      msg.CreatedAt,
		}).
		SetResult(&created).
		Post("/messages")
	if err := checkResponse(ctx, resp, err, "0b7d2f58-6a9e-42b4-9d8d-f4e1b9c67a20"); err != nil {
		return err
	}
	if len(created) > 0 {
		msg.CreatedAt = created[0].CreatedAt.UTC()
	}

	_, err = r.patchConversation(ctx, msg.ConversationID, userID, map[string]any{"updated_at": conversation.NextUpdatedAt(conv.UpdatedAt)})
	return err
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*conversation.Message, error) {
	return r.listMessages(ctx, conversationID, "created_at.asc,id.asc", 0)
}

func (r *ConversationRepository) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]*conversation.Message, error) {
	return r.listMessages(ctx, conversationID, "created_at.desc,id.desc", limit)
}

func (r *ConversationRepository) listMessages(ctx context.Context, conversationID string, order string, limit int) ([]*conversation.Message, error) {
	var rows []*messageRow
	req := r.request(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("conversation_id", "eq."+conversationID).
		SetQueryParam("order", order).
		SetResult(&rows)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := req.Get("/messages")
	if err := checkResponse(ctx, resp, err, "1c8e3a69-7b0f-43c5-8e9e-a5f2c0d78b31"); err != nil {
		return nil, err
	}
	return functional.Map(rows, (*messageRow).toDomain), nil
}

func (r *ConversationRepository) patchConversation(ctx context.Context, id string, userID string, fields map[string]any) ([]conversationRow, error) {
	var rows []conversationRow
	resp, err := r.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetQueryParam("user_id", "eq."+userID).
		SetBody(fields).
		SetResult(&rows).
		Patch("/conversations")
	if err := checkResponse(ctx, resp, err, "2d9f4b70-8c1a-44d6-9faf-b6a3d1e89c42"); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ConversationRepository) request(ctx context.Context) *resty.Request {
	return r.client.R().
		SetContext(ctx).
		SetForceResponseContentType("application/json")
}

func checkResponse(ctx context.Context, resp *resty.Response, err error, errorUUID string) error {
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "postgrest request failed", err, errorUUID)
	}
	if resp.IsError() {
		return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"postgrest request rejected: "+truncate(resp.String(), 512), nil, errorUUID,
			map[string]any{"http_status": resp.StatusCode()})
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
