package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/social"
)

// UserModel is the persistence model for users
type UserModel struct {
	AggregateModel
	Username  string `gorm:"size:64;not null;uniqueIndex"`
	FullName  string `gorm:"size:255;not null"`
	Bio       string `gorm:"size:1024"`
	Location  string `gorm:"size:255"`
	AvatarURL string `gorm:"size:2048"`
}

// TableName returns the table name for UserModel
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User
func (m *UserModel) ToDomain() *social.User {
	user := &social.User{
		Username:  m.Username,
		FullName:  m.FullName,
		Bio:       m.Bio,
		Location:  m.Location,
		AvatarURL: m.AvatarURL,
	}
	m.PopulateAggregateRoot(&user.BaseAggregateRoot)
	return user
}

// FromDomain populates UserModel from domain User
func (m *UserModel) FromDomain(u *social.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.FullName = u.FullName
	m.Bio = u.Bio
	m.Location = u.Location
	m.AvatarURL = u.AvatarURL
}

// FollowModel is the persistence model for directed follow edges.
// The (follower, followee) pair is the primary key.
type FollowModel struct {
	FollowerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	FolloweeID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for FollowModel
func (FollowModel) TableName() string {
	return "follows"
}

// ToDomain converts FollowModel to domain Follow
func (m *FollowModel) ToDomain() social.Follow {
	return social.Follow{
		FollowerID: m.FollowerID,
		FolloweeID: m.FolloweeID,
		CreatedAt:  m.CreatedAt,
	}
}

// FromDomain populates FollowModel from domain Follow
func (m *FollowModel) FromDomain(f social.Follow) {
	m.FollowerID = f.FollowerID
	m.FolloweeID = f.FolloweeID
	m.CreatedAt = f.CreatedAt
}

// ConnectionModel is the persistence model for undirected connection edges.
// user_lo < user_hi by construction, one row per connected pair.
type ConnectionModel struct {
	UserLo    uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserHi    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for ConnectionModel
func (ConnectionModel) TableName() string {
	return "user_connections"
}

// ToDomain converts ConnectionModel to domain Connection
func (m *ConnectionModel) ToDomain() social.Connection {
	return social.Connection{
		UserLo:    m.UserLo,
		UserHi:    m.UserHi,
		CreatedAt: m.CreatedAt,
	}
}

// FromDomain populates ConnectionModel from domain Connection
func (m *ConnectionModel) FromDomain(c social.Connection) {
	m.UserLo = c.UserLo
	m.UserHi = c.UserHi
	m.CreatedAt = c.CreatedAt
}

// ConnectionRequestModel is the persistence model for connection requests.
// The unique index on (pair_lo, pair_hi) enforces one request per pair under
// concurrent sends.
type ConnectionRequestModel struct {
	AggregateModel
	FromUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	ToUserID   uuid.UUID `gorm:"type:uuid;not null;index"`
	PairLo     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_connection_requests_pair"`
	PairHi     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_connection_requests_pair"`
	Status     string    `gorm:"size:16;not null;index"`
}

// TableName returns the table name for ConnectionRequestModel
func (ConnectionRequestModel) TableName() string {
	return "connection_requests"
}

// ToDomain converts ConnectionRequestModel to domain ConnectionRequest
func (m *ConnectionRequestModel) ToDomain() *social.ConnectionRequest {
	req := &social.ConnectionRequest{
		FromUserID: m.FromUserID,
		ToUserID:   m.ToUserID,
		PairLo:     m.PairLo,
		PairHi:     m.PairHi,
		Status:     social.RequestStatus(m.Status),
	}
	m.PopulateAggregateRoot(&req.BaseAggregateRoot)
	return req
}

// FromDomain populates ConnectionRequestModel from domain ConnectionRequest
func (m *ConnectionRequestModel) FromDomain(r *social.ConnectionRequest) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.FromUserID = r.FromUserID
	m.ToUserID = r.ToUserID
	m.PairLo = r.PairLo
	m.PairHi = r.PairHi
	m.Status = string(r.Status)
}
