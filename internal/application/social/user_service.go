package social

import (
	"context"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
)

// UserService handles user profile operations
type UserService struct {
	userRepo social.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo social.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates a user record for a verified identity
func (s *UserService) Register(ctx context.Context, userID uuid.UUID, req RegisterUserRequest) (*UserResponse, error) {
	user, err := social.NewUser(req.Username, req.FullName)
	if err != nil {
		return nil, err
	}
	// The identity provider owns the user id; the profile row reuses it
	user.ID = userID

	if existing, err := s.userRepo.FindByUsername(ctx, user.Username); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Username is already taken")
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	response := ToUserResponse(user)
	return &response, nil
}

// GetByID retrieves one user's public profile
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := ToUserResponse(user)
	return &response, nil
}

// UpdateProfile updates the caller's profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.UpdateProfile(req.FullName, req.Bio, req.Location); err != nil {
		return nil, err
	}
	if req.AvatarURL != "" {
		user.SetAvatarURL(req.AvatarURL)
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	response := ToUserResponse(user)
	return &response, nil
}

// Discover searches users by username or full name
func (s *UserService) Discover(ctx context.Context, req DiscoverRequest) ([]UserResponse, error) {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 && req.PageSize <= 100 {
		filter.PageSize = req.PageSize
	}

	users, err := s.userRepo.Search(ctx, req.Input, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, ToUserResponse(&users[i]))
	}
	return responses, nil
}
