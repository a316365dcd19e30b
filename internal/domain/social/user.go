package social

import (
	"strings"

	"github.com/rainbow/backend/internal/domain/shared"
)

// User is a member of the network. Profiles are public; there is no
// credential material here, identity arrives via a verified token.
type User struct {
	shared.BaseAggregateRoot
	Username  string
	FullName  string
	Bio       string
	Location  string
	AvatarURL string
}

// NewUser creates a new user with the given username and full name
func NewUser(username, fullName string) (*User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Username cannot be empty")
	}
	if fullName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Full name cannot be empty")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		FullName:          fullName,
	}, nil
}

// UpdateProfile updates the mutable profile fields
func (u *User) UpdateProfile(fullName, bio, location string) error {
	if fullName == "" {
		return shared.NewDomainError("INVALID_INPUT", "Full name cannot be empty")
	}
	u.FullName = fullName
	u.Bio = bio
	u.Location = location
	return nil
}

// SetAvatarURL sets the avatar URL
func (u *User) SetAvatarURL(url string) {
	u.AvatarURL = url
}
