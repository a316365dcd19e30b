package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/messaging"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMessageRepository implements messaging.MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Save creates or updates a message
func (r *GormMessageRepository) Save(ctx context.Context, msg *messaging.Message) error {
	var model models.MessageModel
	model.FromDomain(msg)
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindConversation returns messages exchanged between the two users, oldest first
func (r *GormMessageRepository) FindConversation(ctx context.Context, a, b uuid.UUID, filter shared.Filter) ([]messaging.Message, error) {
	var messageModels []models.MessageModel
	query := r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		Order("created_at ASC")

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if err := query.Find(&messageModels).Error; err != nil {
		return nil, err
	}

	msgs := make([]messaging.Message, len(messageModels))
	for i, model := range messageModels {
		msgs[i] = *model.ToDomain()
	}
	return msgs, nil
}

// MarkSeen marks all messages from sender to recipient as seen and returns
// how many rows changed
func (r *GormMessageRepository) MarkSeen(ctx context.Context, recipientID, senderID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.MessageModel{}).
		Where("to_user_id = ? AND from_user_id = ? AND seen = ?", recipientID, senderID, false).
		Update("seen", true)
	return result.RowsAffected, result.Error
}

// UnseenCountsByRecipient returns, for every user with at least one unseen
// message, how many unseen messages they have
func (r *GormMessageRepository) UnseenCountsByRecipient(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		ToUserID uuid.UUID
		Count    int64
	}
	err := r.db.WithContext(ctx).Model(&models.MessageModel{}).
		Select("to_user_id, COUNT(*) as count").
		Where("seen = ?", false).
		Group("to_user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.ToUserID] = row.Count
	}
	return counts, nil
}

// UnseenCount returns the number of unseen messages for one recipient
func (r *GormMessageRepository) UnseenCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MessageModel{}).
		Where("to_user_id = ? AND seen = ?", recipientID, false).
		Count(&count).Error
	return count, err
}
