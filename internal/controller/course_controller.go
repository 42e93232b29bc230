package controller

import (
	"course_sync/internal/progress"
	"course_sync/internal/repository"
	"course_sync/internal/service"
	"course_sync/internal/util"

	"github.com/gin-gonic/gin"
)

// CourseController 课程目录和选课
type CourseController struct {
	Catalog  *service.CatalogService
	Progress *repository.ProgressRepository
	Sync     *service.SyncService
}

func NewCourseController(catalog *service.CatalogService, progressRepo *repository.ProgressRepository, syncService *service.SyncService) *CourseController {
	return &CourseController{Catalog: catalog, Progress: progressRepo, Sync: syncService}
}

// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	courses, err := c.Catalog.ListCourses(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// @Summary 已选课程
// @Tags 课程
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/courses/enrolled [get]
func (c *CourseController) EnrolledCourses(ctx *gin.Context) {
	courses, err := c.Catalog.EnrolledCourses(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// @Summary 课程详情
// @Description 返回课程及本地学习进度汇总
// @Tags 课程
// @Produce json
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	courseID := ctx.Param("courseId")
	course, err := c.Catalog.GetCourse(ctx.Request.Context(), courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	p, err := c.Progress.Get(ctx.Request.Context(), courseID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"course":  course,
		"summary": progress.Summarize(p, course),
	})
}

// @Summary 选课
// @Tags 课程
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/enrollment [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	courseID := ctx.Param("courseId")
	if err := c.Catalog.Enroll(ctx.Request.Context(), courseID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	// 拉取该课程在其他设备上的进度
	c.Sync.SyncInBackground(courseID)
	util.Success(ctx, gin.H{"courseId": courseID, "enrolled": true})
}

// @Summary 退课
// @Tags 课程
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{courseId}/enrollment [delete]
func (c *CourseController) Unenroll(ctx *gin.Context) {
	courseID := ctx.Param("courseId")
	if err := c.Catalog.Unenroll(ctx.Request.Context(), courseID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"courseId": courseID, "enrolled": false})
}
