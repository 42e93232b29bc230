package controller

import (
	"course_sync/internal/progress"
	"course_sync/internal/repository"
	"course_sync/internal/service"
	"course_sync/internal/util"
	"course_sync/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProgressController struct {
	Progress     *repository.ProgressRepository
	Catalog      *service.CatalogService
	Completion   *service.CompletionService
	Certificates *service.CertificateService
}

func NewProgressController(
	progressRepo *repository.ProgressRepository,
	catalog *service.CatalogService,
	completion *service.CompletionService,
	certificates *service.CertificateService,
) *ProgressController {
	return &ProgressController{
		Progress:     progressRepo,
		Catalog:      catalog,
		Completion:   completion,
		Certificates: certificates,
	}
}

// CompleteSectionRequest score 为答对题数
type CompleteSectionRequest struct {
	Score          *int `json:"score" binding:"required,min=0"`
	TotalQuestions *int `json:"totalQuestions" binding:"required,min=0"`
}

// @Summary 课程进度
// @Description 本地进度；课程信息可用时附带汇总
// @Tags 进度
// @Produce json
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/progress/{courseId} [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	courseID := ctx.Param("courseId")
	p, err := c.Progress.Get(ctx.Request.Context(), courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	resp := gin.H{"progress": p}
	course, err := c.Catalog.GetCourse(ctx.Request.Context(), courseID)
	if err != nil {
		logger.Log.Debug("Course unavailable, returning progress only", zap.String("courseId", courseID), zap.Error(err))
	} else {
		resp["summary"] = progress.Summarize(p, course)
	}
	util.Success(ctx, resp)
}

// @Summary 完成小节
// @Description 保存小节成绩，课程完成时标记完成时间，后台同步到服务端
// @Tags 进度
// @Accept json
// @Produce json
// @Param courseId path string true "课程ID"
// @Param sectionId path string true "小节ID"
// @Param body body CompleteSectionRequest true "成绩"
// @Success 200 {object} util.Response
// @Router /api/progress/{courseId}/sections/{sectionId}/complete [post]
func (c *ProgressController) CompleteSection(ctx *gin.Context) {
	var req CompleteSectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Completion.CompleteSection(ctx.Request.Context(),
		ctx.Param("courseId"), ctx.Param("sectionId"), *req.Score, *req.TotalQuestions)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 清空本地进度
// @Description 删除所有课程进度、证书及其归档，不影响选课和登录状态
// @Tags 进度
// @Success 200 {object} util.Response
// @Router /api/progress [delete]
func (c *ProgressController) ClearAll(ctx *gin.Context) {
	if err := c.Certificates.ClearAll(ctx.Request.Context()); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
