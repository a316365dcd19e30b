package social

import (
	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
)

// Event types published by the social context
const (
	EventTypeConnectionRequestCreated  = "social.connection_request.created"
	EventTypeConnectionRequestAccepted = "social.connection_request.accepted"
	EventTypeUserFollowed              = "social.user.followed"
)

// ConnectionRequestCreatedEvent is published when a new request is stored.
// It carries everything the reminder workflow needs to run without a lookup.
type ConnectionRequestCreatedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID `json:"request_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
}

// NewConnectionRequestCreatedEvent creates a ConnectionRequestCreatedEvent
func NewConnectionRequestCreatedEvent(req *ConnectionRequest) *ConnectionRequestCreatedEvent {
	return &ConnectionRequestCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeConnectionRequestCreated, "ConnectionRequest", req.ID),
		RequestID:  req.ID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
	}
}

// ConnectionRequestAcceptedEvent is published when a request is accepted
// and the connection edge exists.
type ConnectionRequestAcceptedEvent struct {
	shared.BaseDomainEvent
	RequestID  uuid.UUID `json:"request_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
}

// NewConnectionRequestAcceptedEvent creates a ConnectionRequestAcceptedEvent
func NewConnectionRequestAcceptedEvent(req *ConnectionRequest) *ConnectionRequestAcceptedEvent {
	return &ConnectionRequestAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeConnectionRequestAccepted, "ConnectionRequest", req.ID),
		RequestID:  req.ID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
	}
}

// UserFollowedEvent is published when a follow edge is created
type UserFollowedEvent struct {
	shared.BaseDomainEvent
	FollowerID uuid.UUID `json:"follower_id"`
	FolloweeID uuid.UUID `json:"followee_id"`
}

// NewUserFollowedEvent creates a UserFollowedEvent
func NewUserFollowedEvent(followerID, followeeID uuid.UUID) *UserFollowedEvent {
	return &UserFollowedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeUserFollowed, "Follow", followerID),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}
