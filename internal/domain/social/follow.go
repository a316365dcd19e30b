package social

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed edge: follower -> followee.
// The pair is the identity; there is no surrogate key.
type Follow struct {
	FollowerID uuid.UUID
	FolloweeID uuid.UUID
	CreatedAt  time.Time
}

// NewFollow creates a follow edge
func NewFollow(followerID, followeeID uuid.UUID) Follow {
	return Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now(),
	}
}
