package messaging

import (
	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
)

// Message is a direct message between two users. Seen flips once when the
// recipient marks the conversation read; the daily digest counts unseen rows.
type Message struct {
	shared.BaseEntity
	FromUserID uuid.UUID
	ToUserID   uuid.UUID
	Body       string
	Seen       bool
}

// NewMessage creates a message from one user to another
func NewMessage(fromUserID, toUserID uuid.UUID, body string) (*Message, error) {
	if fromUserID == toUserID {
		return nil, shared.ErrSelfTarget
	}
	if body == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Message body cannot be empty")
	}

	return &Message{
		BaseEntity: shared.NewBaseEntity(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Body:       body,
	}, nil
}
