package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	socialapp "github.com/rainbow/backend/internal/application/social"
	"github.com/rainbow/backend/internal/interfaces/http/dto"
)

// ConnectionHandler handles follow edges and the connection request workflow
type ConnectionHandler struct {
	BaseHandler
	connectionService *socialapp.ConnectionService
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(connectionService *socialapp.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// RegisterRoutes registers the connection routes
func (h *ConnectionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.POST("/follow", h.Follow)
		users.POST("/unfollow", h.Unfollow)
	}

	connections := rg.Group("/connections")
	{
		connections.GET("", h.List)
		connections.POST("/requests", h.SendRequest)
		connections.POST("/accept", h.Accept)
	}
}

// TargetUserRequest names the other user of a social operation
type TargetUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// Follow creates a follow edge from the caller to the target
func (h *ConnectionHandler) Follow(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req TargetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.connectionService.Follow(c.Request.Context(), actorID, req.UserID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Unfollow removes the caller's follow edge to the target
func (h *ConnectionHandler) Unfollow(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req TargetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.connectionService.Unfollow(c.Request.Context(), actorID, req.UserID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// SendRequest sends a connection request to the target. A fresh request
// returns 201; resending while the pair's request is still pending returns
// 200 with the existing request.
func (h *ConnectionHandler) SendRequest(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req TargetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.connectionService.SendConnectionRequest(c.Request.Context(), actorID, req.UserID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if result.Outcome == socialapp.OutcomeCreated {
		h.Created(c, result)
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// Accept accepts the pending request from the given requester
func (h *ConnectionHandler) Accept(c *gin.Context) {
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req TargetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.connectionService.AcceptConnectionRequest(c.Request.Context(), actorID, req.UserID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// List returns the caller's connections, followers, following and pending
// inbound requests in one overview
func (h *ConnectionHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	overview, err := h.connectionService.ListConnections(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, overview)
}
