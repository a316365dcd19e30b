package social

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
)

// UserRepository persists users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
	Search(ctx context.Context, input string, filter shared.Filter) ([]User, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Save(ctx context.Context, user *User) error
}

// FollowRepository persists directed follow edges
type FollowRepository interface {
	// Create inserts the edge; returns shared.ErrAlreadyExists if it is present
	Create(ctx context.Context, follow Follow) error
	// Delete removes the edge; deleting an absent edge is not an error
	Delete(ctx context.Context, followerID, followeeID uuid.UUID) error
	Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	// FollowerIDs returns users following the given user
	FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// FolloweeIDs returns users the given user follows
	FolloweeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// ConnectionRequestRepository persists connection requests
type ConnectionRequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ConnectionRequest, error)
	// FindByPair returns the single request for an unordered pair, if any
	FindByPair(ctx context.Context, a, b uuid.UUID) (*ConnectionRequest, error)
	// FindPendingTo returns pending requests addressed to the given user
	FindPendingTo(ctx context.Context, userID uuid.UUID) ([]ConnectionRequest, error)
	// CountByFromUserSince counts requests the user created after the cutoff
	CountByFromUserSince(ctx context.Context, fromUserID uuid.UUID, since time.Time) (int64, error)
	// Create inserts the request conflict-safely; a concurrent insert for the
	// same pair surfaces as shared.ErrAlreadyExists rather than a driver error
	Create(ctx context.Context, req *ConnectionRequest) error
	// AcceptPending atomically flips the pending request from->to to accepted
	// and creates the connection edge in the same transaction.
	// Returns shared.ErrRequestNotFound when no pending request matches.
	AcceptPending(ctx context.Context, fromUserID, toUserID uuid.UUID) (*ConnectionRequest, error)
}

// ConnectionRepository reads undirected connection edges
type ConnectionRepository interface {
	Exists(ctx context.Context, a, b uuid.UUID) (bool, error)
	// PartnerIDs returns the peers connected to the given user
	PartnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}
