package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitwithme/sitwithme/internal/middleware"
	"github.com/sitwithme/sitwithme/internal/policy"
	"github.com/sitwithme/sitwithme/internal/service"
)

type InteractionHandler struct {
	interactionService *service.InteractionService
	policy             *policy.Policy
}

func NewInteractionHandler(interactionService *service.InteractionService, accessPolicy *policy.Policy) *InteractionHandler {
	return &InteractionHandler{
		interactionService: interactionService,
		policy:             accessPolicy,
	}
}

type AddCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// ToggleLike flips the caller's like on a post. The response carries the new
// server-side state so optimistic clients can reconcile.
// POST /api/posts/:id/like
func (h *InteractionHandler) ToggleLike(c *gin.Context) {
	user, err := h.policy.RequireAuthenticated(middleware.ClaimsFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	liked, count, err := h.interactionService.ToggleLike(user.ID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"liked":      liked,
		"like_count": count,
	})
}

// AddComment posts a comment on behalf of the caller.
// POST /api/posts/:id/comments
func (h *InteractionHandler) AddComment(c *gin.Context) {
	user, err := h.policy.RequireAuthenticated(middleware.ClaimsFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An absent content field is the same failure as a blank one.
		respondError(c, service.ErrCommentEmpty)
		return
	}

	comment, err := h.interactionService.AddComment(user.ID, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "comment added",
		"comment": gin.H{
			"id":         comment.ID,
			"content":    comment.Content,
			"created_at": comment.CreatedAt,
		},
	})
}
