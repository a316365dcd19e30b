package content

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StoryRepository persists stories
type StoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Story, error)
	// FindActiveByOwners returns unexpired stories owned by any of the given
	// users, newest first
	FindActiveByOwners(ctx context.Context, ownerIDs []uuid.UUID, now time.Time) ([]Story, error)
	Save(ctx context.Context, story *Story) error
	// Delete removes the story; deleting an absent story is not an error
	Delete(ctx context.Context, id uuid.UUID) error
}
