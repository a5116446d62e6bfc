package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sitwithme/sitwithme/internal/utils"
)

// ClaimsKey is the gin context key the middleware stores session claims under.
const ClaimsKey = "claims"

// tokenFromRequest pulls the session token from the Authorization header or,
// failing that, the HttpOnly cookie set at login.
func tokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != authHeader {
			return token
		}
		return ""
	}

	cookie, err := c.Cookie("token")
	if err != nil {
		return ""
	}
	return cookie
}

// AuthMiddleware rejects requests without a valid session token.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches claims when a valid token is present but
// lets anonymous requests through. Public pages use it to personalize output
// (e.g. "liked by me") without gating reads.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString != "" {
			if claims, err := utils.ValidateToken(tokenString, jwtSecret); err == nil {
				c.Set(ClaimsKey, claims)
			}
		}
		c.Next()
	}
}

// ClaimsFrom returns the session claims stored by the auth middleware, or nil
// for anonymous requests.
func ClaimsFrom(c *gin.Context) *utils.Claims {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*utils.Claims)
	if !ok {
		return nil
	}
	return claims
}
