package social

import (
	"time"

	"github.com/google/uuid"
)

// NormalizePair orders two user IDs so an unordered pair always maps to the
// same (lo, hi) key regardless of direction.
func NormalizePair(a, b uuid.UUID) (lo, hi uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}

// Connection is the undirected edge between two connected users.
// It is stored as a single row keyed (UserLo, UserHi) with UserLo < UserHi,
// so both sides of the relationship exist or neither does.
type Connection struct {
	UserLo    uuid.UUID
	UserHi    uuid.UUID
	CreatedAt time.Time
}

// NewConnection creates the undirected edge for two users
func NewConnection(a, b uuid.UUID) Connection {
	lo, hi := NormalizePair(a, b)
	return Connection{
		UserLo:    lo,
		UserHi:    hi,
		CreatedAt: time.Now(),
	}
}

// Involves reports whether the edge touches the given user
func (c Connection) Involves(userID uuid.UUID) bool {
	return c.UserLo == userID || c.UserHi == userID
}

// Other returns the peer of the given user on this edge
func (c Connection) Other(userID uuid.UUID) uuid.UUID {
	if c.UserLo == userID {
		return c.UserHi
	}
	return c.UserLo
}
