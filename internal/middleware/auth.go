package middleware

import (
	"course_sync/internal/repository"
	"course_sync/internal/util"
	"course_sync/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireUser 本地未登录时返回 401，登录用户放入上下文
func RequireUser(users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.Current(c.Request.Context())
		if err != nil {
			logger.Log.Error("Failed to load current user", zap.Error(err))
			util.HandleError(c, err)
			c.Abort()
			return
		}
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		util.SetUserInContext(c, user)
		c.Next()
	}
}
