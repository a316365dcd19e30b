package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/shared"
)

// MessageRepository persists direct messages
type MessageRepository interface {
	Save(ctx context.Context, msg *Message) error
	// FindConversation returns messages exchanged between the two users,
	// oldest first
	FindConversation(ctx context.Context, a, b uuid.UUID, filter shared.Filter) ([]Message, error)
	// MarkSeen marks all messages from sender to recipient as seen and
	// returns how many rows changed
	MarkSeen(ctx context.Context, recipientID, senderID uuid.UUID) (int64, error)
	// UnseenCountsByRecipient returns, for every user with at least one
	// unseen message, how many unseen messages they have
	UnseenCountsByRecipient(ctx context.Context) (map[uuid.UUID]int64, error)
	// UnseenCount returns the number of unseen messages for one recipient
	UnseenCount(ctx context.Context, recipientID uuid.UUID) (int64, error)
}
