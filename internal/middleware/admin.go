package middleware

import (
	"net/http"

	"ishrakaat/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated user holds any admin level.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !domain.IsAdminLevel(GetAdminLevel(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// AdminLevelRequired restricts a route to specific levels, e.g. campaign
// management for STATE and NATIONAL only.
func AdminLevelRequired(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		level := GetAdminLevel(c)
		for _, a := range allowed {
			if level == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient admin level"})
	}
}
