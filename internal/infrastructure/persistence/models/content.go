package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/content"
)

// StoryModel is the persistence model for stories
type StoryModel struct {
	AggregateModel
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	MediaURL  string    `gorm:"size:2048;not null"`
	Caption   string    `gorm:"size:2048"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for StoryModel
func (StoryModel) TableName() string {
	return "stories"
}

// ToDomain converts StoryModel to domain Story
func (m *StoryModel) ToDomain() *content.Story {
	story := &content.Story{
		OwnerID:   m.OwnerID,
		MediaURL:  m.MediaURL,
		Caption:   m.Caption,
		ExpiresAt: m.ExpiresAt,
	}
	m.PopulateAggregateRoot(&story.BaseAggregateRoot)
	return story
}

// FromDomain populates StoryModel from domain Story
func (m *StoryModel) FromDomain(s *content.Story) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.OwnerID = s.OwnerID
	m.MediaURL = s.MediaURL
	m.Caption = s.Caption
	m.ExpiresAt = s.ExpiresAt
}
