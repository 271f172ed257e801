package utils

import "github.com/gin-gonic/gin"

// GetUserAgent returns the User-Agent header or "Unknown"
func GetUserAgent(c *gin.Context) string {
	ua := c.Request.UserAgent()
	if ua == "" {
		return "Unknown"
	}
	return ua
}
