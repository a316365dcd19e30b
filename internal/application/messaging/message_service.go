package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rainbow/backend/internal/domain/messaging"
	"github.com/rainbow/backend/internal/domain/shared"
	"github.com/rainbow/backend/internal/domain/social"
	"go.uber.org/zap"
)

// MessageResponse is the API representation of a direct message
type MessageResponse struct {
	ID         uuid.UUID `json:"id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	Body       string    `json:"body"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToMessageResponse converts a domain Message to a MessageResponse
func ToMessageResponse(m *messaging.Message) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		FromUserID: m.FromUserID,
		ToUserID:   m.ToUserID,
		Body:       m.Body,
		Seen:       m.Seen,
		CreatedAt:  m.CreatedAt,
	}
}

// SendMessageRequest sends a direct message
type SendMessageRequest struct {
	ToUserID uuid.UUID `json:"to_user_id" binding:"required"`
	Body     string    `json:"body" binding:"required,max=4096"`
}

// MessageService handles direct messages between connected users
type MessageService struct {
	messageRepo    messaging.MessageRepository
	connectionRepo social.ConnectionRepository
	logger         *zap.Logger
}

// NewMessageService creates a new MessageService
func NewMessageService(
	messageRepo messaging.MessageRepository,
	connectionRepo social.ConnectionRepository,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messageRepo:    messageRepo,
		connectionRepo: connectionRepo,
		logger:         logger,
	}
}

// Send delivers a message to a connected user. Messaging requires the mutual
// connection edge, not just a follow.
func (s *MessageService) Send(ctx context.Context, fromUserID uuid.UUID, req SendMessageRequest) (*MessageResponse, error) {
	msg, err := messaging.NewMessage(fromUserID, req.ToUserID, req.Body)
	if err != nil {
		return nil, err
	}

	connected, err := s.connectionRepo.Exists(ctx, fromUserID, req.ToUserID)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, shared.NewDomainError("FORBIDDEN", "Messages require a connection")
	}

	if err := s.messageRepo.Save(ctx, msg); err != nil {
		return nil, err
	}

	response := ToMessageResponse(msg)
	return &response, nil
}

// Conversation returns the messages exchanged with one user, oldest first
func (s *MessageService) Conversation(ctx context.Context, userID, otherID uuid.UUID, page, pageSize int) ([]MessageResponse, error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 && pageSize <= 200 {
		filter.PageSize = pageSize
	}

	messages, err := s.messageRepo.FindConversation(ctx, userID, otherID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, ToMessageResponse(&messages[i]))
	}
	return responses, nil
}

// MarkSeen marks every message from the sender to the caller as seen and
// returns how many changed
func (s *MessageService) MarkSeen(ctx context.Context, recipientID, senderID uuid.UUID) (int64, error) {
	return s.messageRepo.MarkSeen(ctx, recipientID, senderID)
}

// UnseenCount returns the caller's unseen message count
func (s *MessageService) UnseenCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.messageRepo.UnseenCount(ctx, userID)
}
