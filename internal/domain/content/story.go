package content

import (
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
)

// StoryTTL is how long a story stays visible after creation.
const StoryTTL = 24 * time.Hour

// Story is an ephemeral piece of content. ExpiresAt is fixed at creation;
// the expiry workflow deletes the row once that instant passes.
type Story struct {
	shared.BaseAggregateRoot
	OwnerID   uuid.UUID
	MediaURL  string
	Caption   string
	ExpiresAt time.Time
}

// NewStory creates a story owned by the given user
func NewStory(ownerID uuid.UUID, mediaURL, caption string) (*Story, error) {
	if mediaURL == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Media URL cannot be empty")
	}

	base := shared.NewBaseAggregateRoot()
	story := &Story{
		BaseAggregateRoot: base,
		OwnerID:           ownerID,
		MediaURL:          mediaURL,
		Caption:           caption,
		ExpiresAt:         base.CreatedAt.Add(StoryTTL),
	}
	story.AddDomainEvent(NewStoryPostedEvent(story))
	return story, nil
}

// IsExpired reports whether the story has passed its expiry instant
func (s *Story) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
