package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/content"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStoryTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.StoryModel{}))
	return db
}

func TestGormStoryRepository_SaveAndFindByID(t *testing.T) {
	db := setupStoryTestDB(t)
	repo := NewGormStoryRepository(db)
	ctx := context.Background()

	story, err := content.NewStory(uuid.New(), "https://cdn.example.com/a.jpg", "sunset")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, story))

	found, err := repo.FindByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, story.MediaURL, found.MediaURL)
	assert.Equal(t, story.OwnerID, found.OwnerID)
	assert.WithinDuration(t, story.ExpiresAt, found.ExpiresAt, time.Second)
}

func TestGormStoryRepository_FindByID_NotFound(t *testing.T) {
	db := setupStoryTestDB(t)
	repo := NewGormStoryRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormStoryRepository_FindActiveByOwners(t *testing.T) {
	db := setupStoryTestDB(t)
	repo := NewGormStoryRepository(db)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	now := time.Now()

	active, err := content.NewStory(alice, "https://cdn.example.com/a.jpg", "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, active))

	expired, err := content.NewStory(alice, "https://cdn.example.com/b.jpg", "")
	require.NoError(t, err)
	expired.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, repo.Save(ctx, expired))

	other, err := content.NewStory(bob, "https://cdn.example.com/c.jpg", "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	stories, err := repo.FindActiveByOwners(ctx, []uuid.UUID{alice}, now)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, active.ID, stories[0].ID)

	stories, err = repo.FindActiveByOwners(ctx, []uuid.UUID{alice, bob}, now)
	require.NoError(t, err)
	assert.Len(t, stories, 2)

	stories, err = repo.FindActiveByOwners(ctx, nil, now)
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestGormStoryRepository_Delete(t *testing.T) {
	db := setupStoryTestDB(t)
	repo := NewGormStoryRepository(db)
	ctx := context.Background()

	story, err := content.NewStory(uuid.New(), "https://cdn.example.com/a.jpg", "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, story))

	require.NoError(t, repo.Delete(ctx, story.ID))
	_, err = repo.FindByID(ctx, story.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// Deleting an absent story is a no-op
	assert.NoError(t, repo.Delete(ctx, story.ID))
}
