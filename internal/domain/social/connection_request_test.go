package social

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePair(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	lo, hi := NormalizePair(a, b)
	assert.Equal(t, a, lo)
	assert.Equal(t, b, hi)

	// Order of arguments must not matter
	lo2, hi2 := NormalizePair(b, a)
	assert.Equal(t, lo, lo2)
	assert.Equal(t, hi, hi2)
}

func TestNewConnectionRequest(t *testing.T) {
	from := uuid.New()
	to := uuid.New()

	req, err := NewConnectionRequest(from, to)
	require.NoError(t, err)

	assert.Equal(t, RequestStatusPending, req.Status)
	assert.Equal(t, from, req.FromUserID)
	assert.Equal(t, to, req.ToUserID)

	lo, hi := NormalizePair(from, to)
	assert.Equal(t, lo, req.PairLo)
	assert.Equal(t, hi, req.PairHi)

	events := req.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeConnectionRequestCreated, events[0].EventType())
}

func TestNewConnectionRequest_SelfTarget(t *testing.T) {
	id := uuid.New()
	_, err := NewConnectionRequest(id, id)
	assert.ErrorIs(t, err, shared.ErrSelfTarget)
}

func TestConnectionRequest_Accept(t *testing.T) {
	req, err := NewConnectionRequest(uuid.New(), uuid.New())
	require.NoError(t, err)
	req.ClearDomainEvents()

	require.NoError(t, req.Accept())
	assert.Equal(t, RequestStatusAccepted, req.Status)
	assert.Equal(t, 2, req.Version)

	events := req.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeConnectionRequestAccepted, events[0].EventType())

	// Accepting twice is not a valid transition
	err = req.Accept()
	assert.ErrorIs(t, err, shared.ErrRequestNotFound)
}

func TestConnection_Other(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	conn := NewConnection(a, b)

	assert.True(t, conn.Involves(a))
	assert.True(t, conn.Involves(b))
	assert.Equal(t, b, conn.Other(a))
	assert.Equal(t, a, conn.Other(b))
}
