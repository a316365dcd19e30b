package handler

import (
	"github.com/gin-gonic/gin"
	contentapp "github.com/rainbow/backend/internal/application/content"
)

// StoryHandler handles ephemeral story endpoints
type StoryHandler struct {
	BaseHandler
	storyService *contentapp.StoryService
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(storyService *contentapp.StoryService) *StoryHandler {
	return &StoryHandler{storyService: storyService}
}

// RegisterRoutes registers the story routes
func (h *StoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stories := rg.Group("/stories")
	{
		stories.POST("", h.Post)
		stories.GET("/feed", h.Feed)
	}
}

// Post publishes a story visible for 24 hours
func (h *StoryHandler) Post(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req contentapp.PostStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	story, err := h.storyService.PostStory(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, story)
}

// Feed returns the active stories of the caller, the people they follow
// and their connections
func (h *StoryHandler) Feed(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	stories, err := h.storyService.ListFeed(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stories)
}
