package controller

import (
	"course_sync/internal/service"
	"course_sync/internal/util"
	"course_sync/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SyncController 手动触发同步，调用方等待同步结束
type SyncController struct {
	Sync *service.SyncService
}

func NewSyncController(syncService *service.SyncService) *SyncController {
	return &SyncController{Sync: syncService}
}

// @Summary 立即同步
// @Tags 同步
// @Produce json
// @Success 200 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /api/sync [post]
func (c *SyncController) SyncAll(ctx *gin.Context) {
	if user := util.GetUserFromContext(ctx); user != nil {
		logger.Log.Info("Manual sync requested", zap.String("username", user.Username))
	}

	report, err := c.Sync.SyncAll(ctx.Request.Context())
	if err != nil {
		if report != nil && len(report.Errors) > 0 {
			util.ErrorWithData(ctx, http.StatusBadGateway, "sync finished with errors", report)
			return
		}
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// @Summary 同步单门课程
// @Tags 同步
// @Produce json
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/sync/{courseId} [post]
func (c *SyncController) SyncCourse(ctx *gin.Context) {
	result, err := c.Sync.SyncProgress(ctx.Request.Context(), ctx.Param("courseId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
