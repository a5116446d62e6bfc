package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitwithme/sitwithme/internal/policy"
	"github.com/sitwithme/sitwithme/internal/service"
)

// respondError maps domain errors onto HTTP statuses:
// not-authenticated 401, forbidden 403, not-found 404, conflicts 409,
// validation 400, anything else 500 with the detail withheld.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, policy.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, policy.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrSlugConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrCommentEmpty),
		errors.Is(err, service.ErrCommentTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
