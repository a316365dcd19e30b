package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
	"github.com/rainbow/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSocialTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.FollowModel{},
		&models.ConnectionModel{},
		&models.ConnectionRequestModel{},
	)
	require.NoError(t, err)

	return db
}

func TestGormFollowRepository_Create(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormFollowRepository(db)
	ctx := context.Background()

	follower := uuid.New()
	followee := uuid.New()

	err := repo.Create(ctx, social.NewFollow(follower, followee))
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, follower, followee)
	require.NoError(t, err)
	assert.True(t, exists)

	// Reverse direction is a different edge
	exists, err = repo.Exists(ctx, followee, follower)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormFollowRepository_Create_Duplicate(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormFollowRepository(db)
	ctx := context.Background()

	follow := social.NewFollow(uuid.New(), uuid.New())
	require.NoError(t, repo.Create(ctx, follow))

	err := repo.Create(ctx, follow)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormFollowRepository_Delete(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormFollowRepository(db)
	ctx := context.Background()

	follower := uuid.New()
	followee := uuid.New()
	require.NoError(t, repo.Create(ctx, social.NewFollow(follower, followee)))

	require.NoError(t, repo.Delete(ctx, follower, followee))

	exists, err := repo.Exists(ctx, follower, followee)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting again is not an error
	assert.NoError(t, repo.Delete(ctx, follower, followee))
}

func TestGormFollowRepository_FollowerAndFolloweeIDs(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormFollowRepository(db)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	require.NoError(t, repo.Create(ctx, social.NewFollow(alice, bob)))
	require.NoError(t, repo.Create(ctx, social.NewFollow(carol, bob)))
	require.NoError(t, repo.Create(ctx, social.NewFollow(alice, carol)))

	followers, err := repo.FollowerIDs(ctx, bob)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice, carol}, followers)

	followees, err := repo.FolloweeIDs(ctx, alice)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{bob, carol}, followees)

	followers, err = repo.FollowerIDs(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, followers)
}
