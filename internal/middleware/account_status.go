package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/sirupsen/logrus"
)

// UserLookup loads an account by id
type UserLookup interface {
	GetUserByID(id uuid.UUID) (*models.User, error)
}

// RequireActiveAccount rejects suspended accounts whose access token has not
// expired yet. Must be used after AuthMiddleware.
func RequireActiveAccount(users UserLookup, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User context not found",
				"code":    "MISSING_USER_CONTEXT",
			})
			return
		}

		user, err := users.GetUserByID(userCtx.UserID)
		if err != nil {
			logger.WithError(err).WithField("user_id", userCtx.UserID).Error("Failed to load account for status check")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "Failed to verify account",
			})
			return
		}

		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Account no longer exists",
				"code":    "INVALID_TOKEN",
			})
			return
		}

		if user.Status == models.UserStatusSuspended {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "account_suspended",
				"message": "Your account has been suspended",
				"code":    "ACCOUNT_SUSPENDED",
			})
			return
		}

		c.Next()
	}
}
