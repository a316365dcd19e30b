package social

import (
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
)

// RequestStatus is the lifecycle state of a connection request.
// There is no rejected state; an unanswered request stays pending.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
)

// Rate limit for outgoing requests: at most MaxRequestsPerWindow sends within
// the trailing RequestWindow, counted per sender across all targets.
const (
	MaxRequestsPerWindow = 20
	RequestWindow        = 24 * time.Hour
)

// ConnectionRequest is a pending or accepted invitation to connect.
// At most one request exists per unordered user pair; PairLo/PairHi carry the
// normalized pair so the store can enforce that under concurrency.
type ConnectionRequest struct {
	shared.BaseAggregateRoot
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	PairLo     uuid.UUID
	PairHi     uuid.UUID
	Status     RequestStatus
}

// NewConnectionRequest creates a pending request from one user to another
func NewConnectionRequest(fromUserID, toUserID uuid.UUID) (*ConnectionRequest, error) {
	if fromUserID == toUserID {
		return nil, shared.ErrSelfTarget
	}

	lo, hi := NormalizePair(fromUserID, toUserID)
	req := &ConnectionRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FromUserID:        fromUserID,
		ToUserID:          toUserID,
		PairLo:            lo,
		PairHi:            hi,
		Status:            RequestStatusPending,
	}
	req.AddDomainEvent(NewConnectionRequestCreatedEvent(req))
	return req, nil
}

// Accept transitions the request to accepted
func (r *ConnectionRequest) Accept() error {
	if r.Status != RequestStatusPending {
		return shared.ErrRequestNotFound
	}
	r.Status = RequestStatusAccepted
	r.IncrementVersion()
	r.AddDomainEvent(NewConnectionRequestAcceptedEvent(r))
	return nil
}

// IsPending reports whether the request is still awaiting an answer
func (r *ConnectionRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}
