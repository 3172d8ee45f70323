package middleware

import (
	"net/http"
	"strings"

	"ishrakaat/config"
	"ishrakaat/internal/auth"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer token and sets UserID, Email and
// AdminLevel in the request context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("admin_level", claims.AdminLevel)
		c.Set("claims", claims)
		c.Next()
	}
}

// AuthOptional attaches the user identity when a valid bearer token is
// present but lets anonymous requests through. Used for guest-friendly
// endpoints such as waqf interest submissions.
func AuthOptional(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := auth.ParseAccessToken(cfg, parts[1]); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("email", claims.Email)
				c.Set("admin_level", claims.AdminLevel)
				c.Set("claims", claims)
			}
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user ID from context (must be used after AuthRequired).
func GetUserID(c *gin.Context) uint {
	v, _ := c.Get("user_id")
	if v == nil {
		return 0
	}
	return v.(uint)
}

// GetAdminLevel returns the authenticated user's admin level, NONE for
// ordinary members.
func GetAdminLevel(c *gin.Context) string {
	v, _ := c.Get("admin_level")
	if v == nil {
		return ""
	}
	return v.(string)
}
