package controller

import (
	"course_sync/internal/repository"
	"course_sync/internal/util"
	"course_sync/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthController struct {
	Store repository.KVStore
}

func NewHealthController(store repository.KVStore) *HealthController {
	return &HealthController{Store: store}
}

// @Summary 健康检查
// @Description 检查本地存储是否可用
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	if err := c.Store.Ping(ctx.Request.Context()); err != nil {
		logger.Log.Warn("Health check failed", zap.Error(err))
		util.Error(ctx, http.StatusServiceUnavailable, "Local store unavailable")
		return
	}

	util.Success(ctx, gin.H{
		"status": "ok",
		"components": gin.H{
			"store": "up",
		},
	})
}
