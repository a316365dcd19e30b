package content

import (
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
)

// EventTypeStoryPosted is published when a story is stored
const EventTypeStoryPosted = "content.story.posted"

// StoryPostedEvent carries the expiry instant so the expiry workflow can
// schedule its wake-up without a lookup.
type StoryPostedEvent struct {
	shared.BaseDomainEvent
	StoryID   uuid.UUID `json:"story_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewStoryPostedEvent creates a StoryPostedEvent
func NewStoryPostedEvent(story *Story) *StoryPostedEvent {
	return &StoryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStoryPosted, "Story", story.ID),
		StoryID:         story.ID,
		OwnerID:         story.OwnerID,
		ExpiresAt:       story.ExpiresAt,
	}
}
