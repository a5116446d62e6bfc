package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitwithme/sitwithme/internal/middleware"
	"github.com/sitwithme/sitwithme/internal/policy"
	"github.com/sitwithme/sitwithme/internal/service"
	"github.com/sitwithme/sitwithme/pkg/logger"
	"go.uber.org/zap"
)

type PostHandler struct {
	postService *service.PostService
	policy      *policy.Policy
}

func NewPostHandler(postService *service.PostService, accessPolicy *policy.Policy) *PostHandler {
	return &PostHandler{
		postService: postService,
		policy:      accessPolicy,
	}
}

type CreatePostRequest struct {
	Title    string `json:"title" binding:"required"`
	Subtitle string `json:"subtitle"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

// GetFeed returns published posts newest first with like counts.
// GET /api/posts
func (h *PostHandler) GetFeed(c *gin.Context) {
	feed, err := h.postService.GetFeed()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts": feed,
		"count": len(feed),
	})
}

// GetArchive returns published posts grouped by month for the timeline.
// GET /api/posts/archive
func (h *PostHandler) GetArchive(c *gin.Context) {
	groups, err := h.postService.GetArchive()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"months": groups,
	})
}

// GetBySlug returns one post with author, like state, comments, and the next
// older post for navigation. Anonymous readers get liked_by_me=false.
// GET /api/posts/:slug
func (h *PostHandler) GetBySlug(c *gin.Context) {
	currentUserID := ""
	if claims := middleware.ClaimsFrom(c); claims != nil {
		currentUserID = claims.UserID
	}

	detail, err := h.postService.GetBySlug(c.Param("slug"), currentUserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Create authors a new post. Admin only; the post is published immediately
// and the response carries the derived slug for client-side navigation.
// POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	user, err := h.policy.RequireAdmin(middleware.ClaimsFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return
	}

	logger.Log.Info("Admin creating post",
		zap.String("admin_id", user.ID),
		zap.String("title", req.Title),
	)

	post, err := h.postService.CreatePost(user.ID, req.Title, req.Subtitle, req.Content, req.ImageURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "post created",
		"post": gin.H{
			"id":   post.ID,
			"slug": post.Slug,
		},
	})
}
