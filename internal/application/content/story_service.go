package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/content"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
	"go.uber.org/zap"
)

// StoryResponse is the API representation of a story
type StoryResponse struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	MediaURL  string    `json:"media_url"`
	Caption   string    `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToStoryResponse converts a domain Story to a StoryResponse
func ToStoryResponse(s *content.Story) StoryResponse {
	return StoryResponse{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		MediaURL:  s.MediaURL,
		Caption:   s.Caption,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

// PostStoryRequest creates a story
type PostStoryRequest struct {
	MediaURL string `json:"media_url" binding:"required,url,max=2048"`
	Caption  string `json:"caption" binding:"max=2048"`
}

// StoryService handles ephemeral stories. Expiry is not enforced on write:
// a scheduled task deletes each story once its 24 hours pass, and reads
// filter on expires_at in the meantime.
type StoryService struct {
	storyRepo      content.StoryRepository
	followRepo     social.FollowRepository
	connectionRepo social.ConnectionRepository
	publisher      shared.EventPublisher
	clock          shared.Clock
	logger         *zap.Logger
}

// NewStoryService creates a new StoryService
func NewStoryService(
	storyRepo content.StoryRepository,
	followRepo social.FollowRepository,
	connectionRepo social.ConnectionRepository,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		storyRepo:      storyRepo,
		followRepo:     followRepo,
		connectionRepo: connectionRepo,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
	}
}

// PostStory stores a story expiring 24 hours after creation
func (s *StoryService) PostStory(ctx context.Context, ownerID uuid.UUID, req PostStoryRequest) (*StoryResponse, error) {
	story, err := content.NewStory(ownerID, req.MediaURL, req.Caption)
	if err != nil {
		return nil, err
	}

	if err := s.storyRepo.Save(ctx, story); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, story.GetDomainEvents()...); err != nil {
		s.logger.Error("failed to publish story events", zap.Error(err))
	}
	story.ClearDomainEvents()

	s.logger.Info("story posted",
		zap.String("story_id", story.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Time("expires_at", story.ExpiresAt),
	)

	response := ToStoryResponse(story)
	return &response, nil
}

// ListFeed returns the unexpired stories from the caller's network: people
// they follow, their connections and themselves. Newest first.
func (s *StoryService) ListFeed(ctx context.Context, userID uuid.UUID) ([]StoryResponse, error) {
	followees, err := s.followRepo.FolloweeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	partners, err := s.connectionRepo.PartnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]struct{}{userID: {}}
	owners := []uuid.UUID{userID}
	for _, id := range append(followees, partners...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		owners = append(owners, id)
	}

	stories, err := s.storyRepo.FindActiveByOwners(ctx, owners, s.clock.Now())
	if err != nil {
		return nil, err
	}

	responses := make([]StoryResponse, 0, len(stories))
	for i := range stories {
		responses = append(responses, ToStoryResponse(&stories[i]))
	}
	return responses, nil
}
