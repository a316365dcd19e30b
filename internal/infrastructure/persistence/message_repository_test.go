package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/messaging"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMessageTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.MessageModel{}))
	return db
}

func mustMessage(t *testing.T, from, to uuid.UUID, body string) *messaging.Message {
	t.Helper()
	msg, err := messaging.NewMessage(from, to, body)
	require.NoError(t, err)
	return msg
}

func TestGormMessageRepository_FindConversation(t *testing.T) {
	db := setupMessageTestDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	require.NoError(t, repo.Save(ctx, mustMessage(t, alice, bob, "hi")))
	require.NoError(t, repo.Save(ctx, mustMessage(t, bob, alice, "hello")))
	require.NoError(t, repo.Save(ctx, mustMessage(t, alice, carol, "elsewhere")))

	msgs, err := repo.FindConversation(ctx, alice, bob, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Body)
	assert.Equal(t, "hello", msgs[1].Body)
}

func TestGormMessageRepository_MarkSeen(t *testing.T) {
	db := setupMessageTestDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()

	require.NoError(t, repo.Save(ctx, mustMessage(t, alice, bob, "one")))
	require.NoError(t, repo.Save(ctx, mustMessage(t, alice, bob, "two")))
	require.NoError(t, repo.Save(ctx, mustMessage(t, bob, alice, "reply")))

	changed, err := repo.MarkSeen(ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	// Already seen rows are not touched again
	changed, err = repo.MarkSeen(ctx, bob, alice)
	require.NoError(t, err)
	assert.Zero(t, changed)

	count, err := repo.UnseenCount(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = repo.UnseenCount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormMessageRepository_UnseenCountsByRecipient(t *testing.T) {
	db := setupMessageTestDB(t)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	require.NoError(t, repo.Save(ctx, mustMessage(t, alice, bob, "one")))
	require.NoError(t, repo.Save(ctx, mustMessage(t, alice, bob, "two")))
	require.NoError(t, repo.Save(ctx, mustMessage(t, alice, bob, "three")))
	require.NoError(t, repo.Save(ctx, mustMessage(t, bob, carol, "hi")))

	seen := mustMessage(t, carol, alice, "read me")
	seen.Seen = true
	require.NoError(t, repo.Save(ctx, seen))

	counts, err := repo.UnseenCountsByRecipient(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), counts[bob])
	assert.Equal(t, int64(1), counts[carol])
	_, ok := counts[alice]
	assert.False(t, ok, "recipients with zero unseen messages are absent")
}
