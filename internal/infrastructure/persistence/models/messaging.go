package models

import (
	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/messaging"
)

// MessageModel is the persistence model for direct messages
type MessageModel struct {
	BaseModel
	FromUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	ToUserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_unseen"`
	Body       string    `gorm:"type:text;not null"`
	Seen       bool      `gorm:"not null;default:false;index:idx_messages_unseen"`
}

// TableName returns the table name for MessageModel
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to domain Message
func (m *MessageModel) ToDomain() *messaging.Message {
	return &messaging.Message{
		BaseEntity: m.BaseModel.ToDomain(),
		FromUserID: m.FromUserID,
		ToUserID:   m.ToUserID,
		Body:       m.Body,
		Seen:       m.Seen,
	}
}

// FromDomain populates MessageModel from domain Message
func (m *MessageModel) FromDomain(msg *messaging.Message) {
	m.FromDomainBaseEntity(msg.BaseEntity)
	m.FromUserID = msg.FromUserID
	m.ToUserID = msg.ToUserID
	m.Body = msg.Body
	m.Seen = msg.Seen
}
