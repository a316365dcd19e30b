package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnectionRequestRepository_CreateAndFindByPair(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormConnectionRequestRepository(db)
	ctx := context.Background()

	from := uuid.New()
	to := uuid.New()

	req, err := social.NewConnectionRequest(from, to)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, req))

	// The pair is unordered, lookup works from either side
	found, err := repo.FindByPair(ctx, to, from)
	require.NoError(t, err)
	assert.Equal(t, req.ID, found.ID)
	assert.Equal(t, from, found.FromUserID)
	assert.True(t, found.IsPending())
}

func TestGormConnectionRequestRepository_Create_DuplicatePair(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormConnectionRequestRepository(db)
	ctx := context.Background()

	from := uuid.New()
	to := uuid.New()

	req, err := social.NewConnectionRequest(from, to)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, req))

	// Same direction
	dup, err := social.NewConnectionRequest(from, to)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)

	// Opposite direction hits the same pair
	reversed, err := social.NewConnectionRequest(to, from)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, reversed), shared.ErrAlreadyExists)
}

func TestGormConnectionRequestRepository_FindPendingTo(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormConnectionRequestRepository(db)
	ctx := context.Background()

	target := uuid.New()

	first, err := social.NewConnectionRequest(uuid.New(), target)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := social.NewConnectionRequest(uuid.New(), target)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, second))

	// An accepted request is excluded
	_, err = repo.AcceptPending(ctx, first.FromUserID, target)
	require.NoError(t, err)

	pending, err := repo.FindPendingTo(ctx, target)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}

func TestGormConnectionRequestRepository_CountByFromUserSince(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormConnectionRequestRepository(db)
	ctx := context.Background()

	from := uuid.New()
	for i := 0; i < 3; i++ {
		req, err := social.NewConnectionRequest(from, uuid.New())
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, req))
	}

	count, err := repo.CountByFromUserSince(ctx, from, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = repo.CountByFromUserSince(ctx, from, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGormConnectionRequestRepository_AcceptPending(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormConnectionRequestRepository(db)
	connections := NewGormConnectionRepository(db)
	ctx := context.Background()

	from := uuid.New()
	to := uuid.New()

	req, err := social.NewConnectionRequest(from, to)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, req))

	accepted, err := repo.AcceptPending(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, social.RequestStatusAccepted, accepted.Status)
	assert.Equal(t, req.Version+1, accepted.Version)

	// The edge lands in the same transaction
	connected, err := connections.Exists(ctx, to, from)
	require.NoError(t, err)
	assert.True(t, connected)

	// A second accept finds no pending request
	_, err = repo.AcceptPending(ctx, from, to)
	assert.ErrorIs(t, err, shared.ErrRequestNotFound)
}

func TestGormConnectionRequestRepository_AcceptPending_WrongDirection(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormConnectionRequestRepository(db)
	ctx := context.Background()

	from := uuid.New()
	to := uuid.New()

	req, err := social.NewConnectionRequest(from, to)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, req))

	// Only the addressee's accept matches from->to
	_, err = repo.AcceptPending(ctx, to, from)
	assert.ErrorIs(t, err, shared.ErrRequestNotFound)
}

func TestGormConnectionRepository_PartnerIDsAndCount(t *testing.T) {
	db := setupSocialTestDB(t)
	repo := NewGormConnectionRequestRepository(db)
	connections := NewGormConnectionRepository(db)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	for _, peer := range []uuid.UUID{bob, carol} {
		req, err := social.NewConnectionRequest(alice, peer)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, req))
		_, err = repo.AcceptPending(ctx, alice, peer)
		require.NoError(t, err)
	}

	partners, err := connections.PartnerIDs(ctx, alice)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{bob, carol}, partners)

	count, err := connections.Count(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	partners, err = connections.PartnerIDs(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice}, partners)
}
