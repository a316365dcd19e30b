package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	messagingapp "github.com/rainbow/backend/internal/application/messaging"
	"github.com/rainbow/backend/internal/interfaces/http/dto"
)

// MessageHandler handles direct message endpoints
type MessageHandler struct {
	BaseHandler
	messageService *messagingapp.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageService *messagingapp.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// RegisterRoutes registers the message routes
func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	messages := rg.Group("/messages")
	{
		messages.POST("", h.Send)
		messages.GET("/unseen/count", h.UnseenCount)
		messages.POST("/seen", h.MarkSeen)
		messages.GET("/:userId", h.Conversation)
	}
}

// Send delivers a message to a connected user
func (h *MessageHandler) Send(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req messagingapp.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	msg, err := h.messageService.Send(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, msg)
}

// Conversation returns the message history with another user, oldest first
func (h *MessageHandler) Conversation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	otherID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var page dto.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		h.BindError(c, err)
		return
	}
	page.Normalize(50, 200)

	messages, err := h.messageService.Conversation(c.Request.Context(), userID, otherID, page.Page, page.PageSize)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, messages)
}

// MarkSeen marks all messages from the given sender as seen
func (h *MessageHandler) MarkSeen(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req TargetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	updated, err := h.messageService.MarkSeen(c.Request.Context(), userID, req.UserID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"updated": updated})
}

// UnseenCount returns the caller's number of unseen messages
func (h *MessageHandler) UnseenCount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	count, err := h.messageService.UnseenCount(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"count": count})
}
