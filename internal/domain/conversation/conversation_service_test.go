package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/infrastructure/database/repository/memoryrepo"
	"jan-chat/internal/utils/platformerrors"
)

func newService() *conversation.ConversationService {
	return conversation.NewConversationService(memoryrepo.NewConversationMemoryRepository())
}

func TestDemoScenario(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	conv, err := svc.CreateConversation(ctx, "Demo", "u1")
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	assert.Equal(t, "Demo", conv.Title)
	assert.Equal(t, "u1", conv.UserID)

	_, err = svc.AddMessage(ctx, conv.ID, conversation.RoleUser, "Hello", "u1")
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, conv.ID, conversation.RoleAssistant, "Hi there", "u1")
	require.NoError(t, err)

	got, err := svc.GetConversation(ctx, conv.ID, "u1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, conversation.RoleUser, got.Messages[0].Role)
	assert.Equal(t, "Hello", got.Messages[0].Content)
	assert.Equal(t, conversation.RoleAssistant, got.Messages[1].Role)
	assert.Equal(t, "Hi there", got.Messages[1].Content)
}

func TestAddMessageRoundTripsEveryRole(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	conv, err := svc.CreateConversation(ctx, "roles", "u1")
	require.NoError(t, err)

	contents := []struct {
		role    conversation.Role
		content string
	}{
		{conversation.RoleSystem, "be brief"},
		{conversation.RoleUser, "what is 2+2?"},
		{conversation.RoleAssistant, "4"},
		{conversation.RoleUser, "  padded  "},
	}
	for _, c := range contents {
		_, err := svc.AddMessage(ctx, conv.ID, c.role, c.content, "u1")
		require.NoError(t, err)
	}

	got, err := svc.GetConversation(ctx, conv.ID, "u1")
	require.NoError(t, err)
	require.Len(t, got.Messages, len(contents))
	for i, c := range contents {
		assert.Equal(t, c.role, got.Messages[i].Role)
		assert.Equal(t, c.content, got.Messages[i].Content)
		assert.Equal(t, conv.ID, got.Messages[i].ConversationID)
	}
}

func TestAddMessageValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	conv, err := svc.CreateConversation(ctx, "validation", "u1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		convID   string
		role     conversation.Role
		content  string
		owner    string
		wantType platformerrors.ErrorType
	}{
		{"unknown role", conv.ID, conversation.Role("tool"), "hi", "u1", platformerrors.ErrorTypeValidation},
		{"empty content", conv.ID, conversation.RoleUser, "   ", "u1", platformerrors.ErrorTypeValidation},
		{"missing owner", conv.ID, conversation.RoleUser, "hi", "", platformerrors.ErrorTypeValidation},
		{"foreign owner", conv.ID, conversation.RoleUser, "hi", "u2", platformerrors.ErrorTypeNotFound},
		{"unknown conversation", "missing", conversation.RoleUser, "hi", "u1", platformerrors.ErrorTypeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddMessage(ctx, tt.convID, tt.role, tt.content, tt.owner)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestCreateConversationValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	_, err := svc.CreateConversation(ctx, "  ", "u1")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	_, err = svc.CreateConversation(ctx, "title", "")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	conv, err := svc.CreateConversation(ctx, "  trimmed  ", "u1")
	require.NoError(t, err)
	assert.Equal(t, "trimmed", conv.Title)
	assert.False(t, conv.CreatedAt.IsZero())
	assert.Equal(t, conv.CreatedAt, conv.UpdatedAt)
}

func TestGetConversationHistoryOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	conv, err := svc.CreateConversation(ctx, "history", "u1")
	require.NoError(t, err)

	for i := 0; i < 15; i++ {
		_, err := svc.AddMessage(ctx, conv.ID, conversation.RoleUser, fmt.Sprintf("m%02d", i), "u1")
		require.NoError(t, err)
	}

	for _, limit := range []int{1, 3, 10, 15, 40} {
		history, err := svc.GetConversationHistory(ctx, conv.ID, "u1", limit)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(history), limit)
		for i := 1; i < len(history); i++ {
			assert.Less(t, history[i-1].Content, history[i].Content, "limit %d not ascending", limit)
		}
		if limit <= 15 {
			require.Len(t, history, limit)
			assert.Equal(t, "m14", history[len(history)-1].Content)
		}
	}

	history, err := svc.GetConversationHistory(ctx, conv.ID, "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, conversation.DefaultHistoryLimit)
	assert.Equal(t, "m05", history[0].Content)
}

func TestDeleteConversationCascadesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	conv, err := svc.CreateConversation(ctx, "to delete", "u1")
	require.NoError(t, err)
	_, err = svc.AddMessage(ctx, conv.ID, conversation.RoleUser, "hello", "u1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConversation(ctx, conv.ID, "u1"))

	_, err = svc.GetConversation(ctx, conv.ID, "u1")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	require.NoError(t, svc.DeleteConversation(ctx, conv.ID, "u1"))
	require.NoError(t, svc.DeleteConversation(ctx, "never-existed", "u1"))
}

func TestDeleteConversationOfAnotherOwnerIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	conv, err := svc.CreateConversation(ctx, "mine", "u1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConversation(ctx, conv.ID, "u2"))

	_, err = svc.GetConversation(ctx, conv.ID, "u1")
	require.NoError(t, err)
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	empty, err := svc.ListConversations(ctx, "nobody")
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := svc.CreateConversation(ctx, "first", "u1")
	require.NoError(t, err)
	second, err := svc.CreateConversation(ctx, "second", "u1")
	require.NoError(t, err)
	_, err = svc.CreateConversation(ctx, "other", "u2")
	require.NoError(t, err)

	_, err = svc.AddMessage(ctx, first.ID, conversation.RoleUser, "bump", "u1")
	require.NoError(t, err)

	list, err := svc.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)

	_, err = svc.ListConversations(ctx, "")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized))
}

func TestGetConversationOwnership(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	conv, err := svc.CreateConversation(ctx, "private", "u1")
	require.NoError(t, err)

	_, err = svc.GetConversation(ctx, conv.ID, "u2")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	got, err := svc.GetConversation(ctx, conv.ID, "u1")
	require.NoError(t, err)
	assert.NotNil(t, got.Messages)
	assert.Empty(t, got.Messages)
}

func TestUpdateConversationTitle(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	conv, err := svc.CreateConversation(ctx, "New Chat", "u1")
	require.NoError(t, err)

	updated, err := svc.UpdateConversationTitle(ctx, conv.ID, "Renamed", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.True(t, updated.UpdatedAt.After(conv.UpdatedAt) || updated.UpdatedAt.Equal(conv.UpdatedAt))

	_, err = svc.UpdateConversationTitle(ctx, conv.ID, "", "u1")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	_, err = svc.UpdateConversationTitle(ctx, conv.ID, "Stolen", "u2")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

type failingRepository struct {
	conversation.ConversationRepository
}

func (failingRepository) ListByUserID(context.Context, string) ([]*conversation.Conversation, error) {
	return nil, errors.New("connection refused")
}

func TestListConversationsBackendFailure(t *testing.T) {
	svc := conversation.NewConversationService(failingRepository{})

	_, err := svc.ListConversations(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeInternal))
	assert.ErrorContains(t, err, "connection refused")
}
