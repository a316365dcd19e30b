package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/content"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStoryRepository implements content.StoryRepository using GORM
type GormStoryRepository struct {
	db *gorm.DB
}

// NewGormStoryRepository creates a new GormStoryRepository
func NewGormStoryRepository(db *gorm.DB) *GormStoryRepository {
	return &GormStoryRepository{db: db}
}

// FindByID finds a story by its ID
func (r *GormStoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.Story, error) {
	var model models.StoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByOwners returns unexpired stories owned by any of the given users, newest first
func (r *GormStoryRepository) FindActiveByOwners(ctx context.Context, ownerIDs []uuid.UUID, now time.Time) ([]content.Story, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	var storyModels []models.StoryModel
	err := r.db.WithContext(ctx).
		Where("owner_id IN ? AND expires_at > ?", ownerIDs, now).
		Order("created_at DESC").
		Find(&storyModels).Error
	if err != nil {
		return nil, err
	}

	stories := make([]content.Story, len(storyModels))
	for i, model := range storyModels {
		stories[i] = *model.ToDomain()
	}
	return stories, nil
}

// Save creates or updates a story
func (r *GormStoryRepository) Save(ctx context.Context, story *content.Story) error {
	var model models.StoryModel
	model.FromDomain(story)
	return r.db.WithContext(ctx).Save(&model).Error
}

// Delete removes the story. Deleting an absent story is a no-op, which keeps
// the expiry workflow idempotent across redeliveries.
func (r *GormStoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.StoryModel{}, "id = ?", id).Error
}
