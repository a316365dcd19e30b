package content

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/content"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockStoryRepository struct {
	mock.Mock
}

func (m *MockStoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.Story, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.Story), args.Error(1)
}

func (m *MockStoryRepository) FindActiveByOwners(ctx context.Context, ownerIDs []uuid.UUID, now time.Time) ([]content.Story, error) {
	args := m.Called(ctx, ownerIDs, now)
	return args.Get(0).([]content.Story), args.Error(1)
}

func (m *MockStoryRepository) Save(ctx context.Context, story *content.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

func (m *MockStoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockFollowRepository struct {
	mock.Mock
}

func (m *MockFollowRepository) Create(ctx context.Context, follow social.Follow) error {
	args := m.Called(ctx, follow)
	return args.Error(0)
}

func (m *MockFollowRepository) Delete(ctx context.Context, followerID, followeeID uuid.UUID) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *MockFollowRepository) Exists(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowRepository) FollowerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockFollowRepository) FolloweeIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) Exists(ctx context.Context, a, b uuid.UUID) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *MockConnectionRepository) PartnerIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockConnectionRepository) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func newStoryService(stories *MockStoryRepository, follows *MockFollowRepository, conns *MockConnectionRepository, publisher *MockEventPublisher) *StoryService {
	clock := shared.NewManualClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	return NewStoryService(stories, follows, conns, publisher, clock, zap.NewNop())
}

func TestStoryService_PostStory(t *testing.T) {
	stories := new(MockStoryRepository)
	publisher := new(MockEventPublisher)
	svc := newStoryService(stories, new(MockFollowRepository), new(MockConnectionRepository), publisher)
	owner := uuid.New()

	stories.On("Save", mock.Anything, mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		return len(events) == 1 && events[0].EventType() == content.EventTypeStoryPosted
	})).Return(nil)

	resp, err := svc.PostStory(context.Background(), owner, PostStoryRequest{
		MediaURL: "https://cdn.example.com/pic.jpg",
		Caption:  "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, owner, resp.OwnerID)
	assert.Equal(t, resp.CreatedAt.Add(24*time.Hour), resp.ExpiresAt)
	publisher.AssertExpectations(t)
}

func TestStoryService_PostStory_EmptyMediaURL(t *testing.T) {
	svc := newStoryService(new(MockStoryRepository), new(MockFollowRepository), new(MockConnectionRepository), new(MockEventPublisher))

	_, err := svc.PostStory(context.Background(), uuid.New(), PostStoryRequest{})
	assert.Error(t, err)
}

func TestStoryService_ListFeed_DeduplicatesOwners(t *testing.T) {
	stories := new(MockStoryRepository)
	follows := new(MockFollowRepository)
	conns := new(MockConnectionRepository)
	svc := newStoryService(stories, follows, conns, new(MockEventPublisher))

	me := uuid.New()
	friend := uuid.New() // both followed and connected

	follows.On("FolloweeIDs", mock.Anything, me).Return([]uuid.UUID{friend}, nil)
	conns.On("PartnerIDs", mock.Anything, me).Return([]uuid.UUID{friend}, nil)
	stories.On("FindActiveByOwners", mock.Anything, []uuid.UUID{me, friend}, mock.Anything).
		Return([]content.Story{}, nil)

	feed, err := svc.ListFeed(context.Background(), me)
	require.NoError(t, err)
	assert.Empty(t, feed)
	stories.AssertExpectations(t)
}
