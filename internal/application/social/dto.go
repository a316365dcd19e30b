package social

import (
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/social"
)

// UserResponse is the public profile representation
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Bio       string    `json:"bio,omitempty"`
	Location  string    `json:"location,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse converts a domain User to a UserResponse
func ToUserResponse(u *social.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Bio:       u.Bio,
		Location:  u.Location,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// RegisterUserRequest creates a user record
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	FullName string `json:"full_name" binding:"required,max=255"`
}

// UpdateProfileRequest updates the mutable profile fields
type UpdateProfileRequest struct {
	FullName  string `json:"full_name" binding:"required,max=255"`
	Bio       string `json:"bio" binding:"max=1024"`
	Location  string `json:"location" binding:"max=255"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url,max=2048"`
}

// DiscoverRequest searches users by username or name
type DiscoverRequest struct {
	Input    string `json:"input" binding:"required,min=1,max=255"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// RequestOutcome distinguishes a fresh request from an idempotent resend
type RequestOutcome string

const (
	OutcomeCreated RequestOutcome = "created"
	OutcomePending RequestOutcome = "pending"
)

// SendRequestResult is the outcome of SendConnectionRequest
type SendRequestResult struct {
	Outcome   RequestOutcome `json:"status"`
	RequestID uuid.UUID      `json:"request_id"`
}

// ConnectionRequestResponse is an inbound pending request joined with the
// requester's profile
type ConnectionRequestResponse struct {
	RequestID uuid.UUID    `json:"request_id"`
	From      UserResponse `json:"from"`
	CreatedAt time.Time    `json:"created_at"`
}

// ConnectionsOverview is the full relationship picture for one user
type ConnectionsOverview struct {
	Connections     []UserResponse              `json:"connections"`
	Followers       []UserResponse              `json:"followers"`
	Following       []UserResponse              `json:"following"`
	PendingRequests []ConnectionRequestResponse `json:"pending_requests"`
}
