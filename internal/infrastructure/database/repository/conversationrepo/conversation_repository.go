package conversationrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"jan-chat/internal/domain/conversation"
	"jan-chat/internal/infrastructure/database/dbschema"
	"jan-chat/internal/infrastructure/database/transaction"
	"jan-chat/internal/utils/functional"
	"jan-chat/internal/utils/platformerrors"
)

type ConversationGormRepository struct {
	db *transaction.Database
}

var _ conversation.ConversationRepository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *transaction.Database) *ConversationGormRepository {
	return &ConversationGormRepository{db}
}

// Create implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	model := dbschema.NewSchemaConversation(conv)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to create conversation", err, "8e2a4c61-0f3b-4d97-b5e8-1a6c9d2f7e40")
	}
	conv.CreatedAt = model.CreatedAt.UTC()
	conv.UpdatedAt = model.UpdatedAt.UTC()
	return nil
}

// FindByIDAndUserID implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) FindByIDAndUserID(ctx context.Context, id string, userID string) (*conversation.Conversation, error) {
	row, err := repo.findRow(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return row.EtoD(), nil
}

// ListByUserID implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) ListByUserID(ctx context.Context, userID string) ([]*conversation.Conversation, error) {
	var rows []*dbschema.Conversation
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list conversations", err, "2f9d6b13-7c40-4a8e-9e15-b3d0a7c4f682")
	}
	return functional.Map(rows, func(item *dbschema.Conversation) *conversation.Conversation {
		return item.EtoD()
	}), nil
}

// UpdateTitle implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) UpdateTitle(ctx context.Context, id string, userID string, title string) (*conversation.Conversation, error) {
	var updated *conversation.Conversation
	err := repo.db.Transaction(ctx, func(ctx context.Context) error {
		row, err := repo.findRow(ctx, id, userID)
		if err != nil {
			return err
		}
		updatedAt := conversation.NextUpdatedAt(row.UpdatedAt)
		err = repo.db.GetTx(ctx).WithContext(ctx).
			Model(&dbschema.Conversation{}).
			Where("id = ?", row.ID).
			UpdateColumns(map[string]any{"title": title, "updated_at": updatedAt}).Error
		if err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to update conversation", err, "5a7e0c92-4b6d-41f3-8c2e-d9f1b3a60e57")
		}
		row.Title = title
		row.UpdatedAt = updatedAt
		updated = row.EtoD()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete implements conversation.ConversationRepository. Messages are removed explicitly
// so backends without enforced foreign keys behave the same.
func (repo *ConversationGormRepository) Delete(ctx context.Context, id string, userID string) error {
	return repo.db.Transaction(ctx, func(ctx context.Context) error {
		row, err := repo.findRow(ctx, id, userID)
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		tx := repo.db.GetTx(ctx).WithContext(ctx)
		if err := tx.Where("conversation_id = ?", row.ID).Delete(&dbschema.Message{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete messages", err, "c1e8f4a3-96d2-4b07-a5f1-7e3b2d8c0a19")
		}
		if err := tx.Where("id = ?", row.ID).Delete(&dbschema.Conversation{}).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to delete conversation", err, "d72b0e5f-3a18-4c64-9b0d-e6a4f1c82b35")
		}
		return nil
	})
}

// AddMessage implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) AddMessage(ctx context.Context, userID string, msg *conversation.Message) error {
	return repo.db.Transaction(ctx, func(ctx context.Context) error {
		row, err := repo.findRow(ctx, msg.ConversationID, userID)
		if err != nil {
			return err
		}

		tx := repo.db.GetTx(ctx).WithContext(ctx)
		model := dbschema.NewSchemaMessage(msg)
		if err := tx.Create(model).Error; err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to insert message", err, "e4a91c07-5d2b-4f86-8a3e-0c7b6d1f9e28")
		}
		err = tx.Model(&dbschema.Conversation{}).
			Where("id = ?", row.ID).
			UpdateColumn("updated_at", conversation.NextUpdatedAt(row.UpdatedAt)).Error
		if err != nil {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to touch conversation", err, "f85c2d19-6e3a-4b70-9c4f-1d8e7a2b0f63")
		}
		msg.CreatedAt = model.CreatedAt.UTC()
		return nil
	})
}

// ListMessages implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) ListMessages(ctx context.Context, conversationID string) ([]*conversation.Message, error) {
	return repo.listMessages(ctx, conversationID, "created_at ASC, id ASC", 0)
}

// ListRecentMessages implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) ListRecentMessages(ctx context.Context, conversationID string, limit int) ([]*conversation.Message, error) {
	return repo.listMessages(ctx, conversationID, "created_at DESC, id DESC", limit)
}

func (repo *ConversationGormRepository) listMessages(ctx context.Context, conversationID string, order string, limit int) ([]*conversation.Message, error) {
	var rows []*dbschema.Message
	sql := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order(order)
	if limit > 0 {
		sql = sql.Limit(limit)
	}
	if err := sql.Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to list messages", err, "0a3f7d2e-8b51-4c96-a2e7-5f4c1b9d3e08")
	}
	return functional.Map(rows, (*dbschema.Message).EtoD), nil
}

func (repo *ConversationGormRepository) findRow(ctx context.Context, id string, userID string) (*dbschema.Conversation, error) {
	var row dbschema.Conversation
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", err, "6b4d8e1a-2c97-4f30-b8d5-a9e3c0f71b24")
	}
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "failed to find conversation", err, "7c5e9f2b-3da8-4041-8e6c-b0f4d1a82c35")
	}
	return &row, nil
}
