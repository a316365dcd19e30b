package social

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
	"go.uber.org/zap"
)

// ConnectionService manages the relationship graph: directed follows and the
// mutual connection workflow.
type ConnectionService struct {
	userRepo       social.UserRepository
	followRepo     social.FollowRepository
	connectionRepo social.ConnectionRepository
	requestRepo    social.ConnectionRequestRepository
	publisher      shared.EventPublisher
	clock          shared.Clock
	logger         *zap.Logger
}

// NewConnectionService creates a new ConnectionService
func NewConnectionService(
	userRepo social.UserRepository,
	followRepo social.FollowRepository,
	connectionRepo social.ConnectionRepository,
	requestRepo social.ConnectionRequestRepository,
	publisher shared.EventPublisher,
	clock shared.Clock,
	logger *zap.Logger,
) *ConnectionService {
	return &ConnectionService{
		userRepo:       userRepo,
		followRepo:     followRepo,
		connectionRepo: connectionRepo,
		requestRepo:    requestRepo,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
	}
}

// Follow creates the directed edge actor -> target
func (s *ConnectionService) Follow(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return shared.ErrSelfTarget
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return err
	}

	if err := s.followRepo.Create(ctx, social.NewFollow(actorID, targetID)); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return shared.ErrAlreadyFollowing
		}
		return err
	}

	s.publish(ctx, social.NewUserFollowedEvent(actorID, targetID))
	return nil
}

// Unfollow removes the directed edge. Removing an absent edge succeeds, so
// retries are safe.
func (s *ConnectionService) Unfollow(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return shared.ErrSelfTarget
	}
	return s.followRepo.Delete(ctx, actorID, targetID)
}

// SendConnectionRequest asks target to connect. At most one request exists
// per unordered pair: a reverse-direction resend surfaces the existing
// pending request instead of creating a second one.
func (s *ConnectionService) SendConnectionRequest(ctx context.Context, actorID, targetID uuid.UUID) (*SendRequestResult, error) {
	if actorID == targetID {
		return nil, shared.ErrSelfTarget
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sent, err := s.requestRepo.CountByFromUserSince(ctx, actorID, now.Add(-social.RequestWindow))
	if err != nil {
		return nil, err
	}
	if sent >= social.MaxRequestsPerWindow {
		return nil, shared.ErrRateLimited
	}

	existing, err := s.requestRepo.FindByPair(ctx, actorID, targetID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return s.existingRequestResult(existing)
	}

	req, err := social.NewConnectionRequest(actorID, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost the race for the pair; surface whatever won
			winner, findErr := s.requestRepo.FindByPair(ctx, actorID, targetID)
			if findErr != nil {
				return nil, findErr
			}
			return s.existingRequestResult(winner)
		}
		return nil, err
	}

	s.publish(ctx, req.GetDomainEvents()...)
	req.ClearDomainEvents()

	s.logger.Info("connection request sent",
		zap.String("request_id", req.ID.String()),
		zap.String("from_user_id", actorID.String()),
		zap.String("to_user_id", targetID.String()),
	)
	return &SendRequestResult{Outcome: OutcomeCreated, RequestID: req.ID}, nil
}

// existingRequestResult maps an existing pair record to the send outcome
func (s *ConnectionService) existingRequestResult(req *social.ConnectionRequest) (*SendRequestResult, error) {
	if req.Status == social.RequestStatusAccepted {
		return nil, shared.ErrAlreadyConnected
	}
	return &SendRequestResult{Outcome: OutcomePending, RequestID: req.ID}, nil
}

// AcceptConnectionRequest accepts the pending request requester -> actor.
// The status flip and the connection edge commit in one transaction; a
// concurrent duplicate accept gets REQUEST_NOT_FOUND.
func (s *ConnectionService) AcceptConnectionRequest(ctx context.Context, actorID, requesterID uuid.UUID) error {
	if actorID == requesterID {
		return shared.ErrSelfTarget
	}

	req, err := s.requestRepo.AcceptPending(ctx, requesterID, actorID)
	if err != nil {
		return err
	}

	s.publish(ctx, social.NewConnectionRequestAcceptedEvent(req))

	s.logger.Info("connection request accepted",
		zap.String("request_id", req.ID.String()),
		zap.String("from_user_id", requesterID.String()),
		zap.String("to_user_id", actorID.String()),
	)
	return nil
}

// ListConnections assembles the relationship picture for one user with
// profiles joined in.
func (s *ConnectionService) ListConnections(ctx context.Context, userID uuid.UUID) (*ConnectionsOverview, error) {
	partnerIDs, err := s.connectionRepo.PartnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	followerIDs, err := s.followRepo.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	followingIDs, err := s.followRepo.FolloweeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.requestRepo.FindPendingTo(ctx, userID)
	if err != nil {
		return nil, err
	}

	overview := &ConnectionsOverview{
		PendingRequests: make([]ConnectionRequestResponse, 0, len(pending)),
	}

	if overview.Connections, err = s.loadProfiles(ctx, partnerIDs); err != nil {
		return nil, err
	}
	if overview.Followers, err = s.loadProfiles(ctx, followerIDs); err != nil {
		return nil, err
	}
	if overview.Following, err = s.loadProfiles(ctx, followingIDs); err != nil {
		return nil, err
	}

	requesterIDs := make([]uuid.UUID, 0, len(pending))
	for i := range pending {
		requesterIDs = append(requesterIDs, pending[i].FromUserID)
	}
	requesters, err := s.profilesByID(ctx, requesterIDs)
	if err != nil {
		return nil, err
	}
	for i := range pending {
		from, ok := requesters[pending[i].FromUserID]
		if !ok {
			continue
		}
		overview.PendingRequests = append(overview.PendingRequests, ConnectionRequestResponse{
			RequestID: pending[i].ID,
			From:      from,
			CreatedAt: pending[i].CreatedAt,
		})
	}

	return overview, nil
}

func (s *ConnectionService) loadProfiles(ctx context.Context, ids []uuid.UUID) ([]UserResponse, error) {
	if len(ids) == 0 {
		return []UserResponse{}, nil
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses, nil
}

func (s *ConnectionService) profilesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]UserResponse, error) {
	profiles, err := s.loadProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]UserResponse, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return byID, nil
}

func (s *ConnectionService) requireUser(ctx context.Context, id uuid.UUID) error {
	exists, err := s.userRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return shared.ErrNotFound
	}
	return nil
}

// publish delivers events best-effort; the state change already committed
func (s *ConnectionService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish domain events", zap.Error(err))
	}
}
