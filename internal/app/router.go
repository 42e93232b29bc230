package app

import (
	"course_sync/internal/middleware"
	"course_sync/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	router.GET("/health", c.health.HealthCheck)
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")

	// 1. 会话
	session := api.Group("/session")
	{
		session.POST("/login", c.session.Login)
		session.POST("/logout", c.session.Logout)
		session.GET("", c.session.Current)
	}

	// 2. 课程与选课，匿名可用
	courses := api.Group("/courses")
	{
		courses.GET("", c.course.ListCourses)
		courses.GET("/enrolled", c.course.EnrolledCourses)
		courses.GET("/:courseId", c.course.GetCourse)
		courses.POST("/:courseId/enrollment", c.course.Enroll)
		courses.DELETE("/:courseId/enrollment", c.course.Unenroll)
	}

	// 3. 本地进度和证书，未登录时只保存在本地
	progress := api.Group("/progress")
	{
		progress.GET("/:courseId", c.progress.GetProgress)
		progress.POST("/:courseId/sections/:sectionId/complete", c.progress.CompleteSection)
		progress.DELETE("", c.progress.ClearAll)
	}

	certificates := api.Group("/certificates")
	{
		certificates.GET("", c.certificate.List)
		certificates.POST("/:courseId", c.certificate.Issue)
		certificates.GET("/:courseId", c.certificate.Get)
		certificates.POST("/:courseId/export", c.certificate.Export)
	}

	// 4. 手动同步需要登录
	syncGroup := api.Group("/sync")
	syncGroup.Use(middleware.RequireUser(repos.user))
	{
		syncGroup.POST("", c.sync.SyncAll)
		syncGroup.POST("/:courseId", c.sync.SyncCourse)
	}
}
