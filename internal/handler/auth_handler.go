package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sitwithme/sitwithme/internal/middleware"
	"github.com/sitwithme/sitwithme/internal/policy"
	"github.com/sitwithme/sitwithme/internal/service"
	"github.com/sitwithme/sitwithme/pkg/logger"
	"go.uber.org/zap"
)

const tokenCookieMaxAge = 7 * 24 * 60 * 60 // 7 days in seconds

type AuthHandler struct {
	authService  *service.AuthService
	policy       *policy.Policy
	isProduction bool
}

func NewAuthHandler(authService *service.AuthService, accessPolicy *policy.Policy, isProduction bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		policy:       accessPolicy,
		isProduction: isProduction,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a member account.
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Registration request parsing failed",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return
	}

	logger.Log.Info("User registration attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	user, token, err := h.authService.Register(req.Name, req.Email, req.Password)
	if err != nil {
		logger.Log.Warn("Registration failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)

		statusCode := http.StatusBadRequest
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			statusCode = http.StatusConflict
		}

		c.JSON(statusCode, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.setTokenCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "registered successfully",
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Login verifies credentials and starts a session.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Login request parsing failed",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body",
		})
		return
	}

	user, token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		logger.Log.Warn("Login failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)

		// Unknown email and wrong password answer identically.
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": service.ErrInvalidCredentials.Error(),
		})
		return
	}

	h.setTokenCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Logout clears the session cookie.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", "", -1, "/", "", h.isProduction, true)

	c.JSON(http.StatusOK, gin.H{
		"message": "logged out",
	})
}

// Me returns the calling user's identity and role.
// GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.policy.RequireAuthenticated(middleware.ClaimsFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode) // CSRF protection
	c.SetCookie(
		"token",
		token,
		tokenCookieMaxAge,
		"/",
		"",
		h.isProduction, // secure (HTTPS-only in production)
		true,           // httpOnly
	)
}
