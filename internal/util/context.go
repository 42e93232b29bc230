package util

import (
	"course_sync/internal/model"

	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

func SetUserInContext(c *gin.Context, user *model.User) {
	c.Set(userContextKey, user)
}

func GetUserFromContext(c *gin.Context) *model.User {
	user, exists := c.Get(userContextKey)
	if !exists {
		return nil
	}
	u, ok := user.(*model.User)
	if !ok {
		return nil
	}
	return u
}
