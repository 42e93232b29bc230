package controller

import (
	"course_sync/internal/service"
	"course_sync/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	Certificates *service.CertificateService
}

func NewCertificateController(certificates *service.CertificateService) *CertificateController {
	return &CertificateController{Certificates: certificates}
}

// @Summary 证书列表
// @Tags 证书
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/certificates [get]
func (c *CertificateController) List(ctx *gin.Context) {
	certs, err := c.Certificates.List(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// @Summary 签发证书
// @Description 课程未通过时返回 409，客户端应回到课程页
// @Tags 证书
// @Produce json
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Success 201 {object} util.Response
// @Router /api/certificates/{courseId} [post]
func (c *CertificateController) Issue(ctx *gin.Context) {
	courseID := ctx.Param("courseId")
	result, err := c.Certificates.Issue(ctx.Request.Context(), courseID)
	if errors.Is(err, util.ErrCourseNotPassed) {
		util.ErrorWithData(ctx, http.StatusConflict, "course not passed yet", service.Navigation{
			Target:   service.NavigateCourse,
			CourseID: courseID,
		})
		return
	}
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	if result.Created {
		util.Created(ctx, result)
		return
	}
	util.Success(ctx, result)
}

// @Summary 查看证书
// @Tags 证书
// @Produce json
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/certificates/{courseId} [get]
func (c *CertificateController) Get(ctx *gin.Context) {
	cert, err := c.Certificates.Get(ctx.Request.Context(), ctx.Param("courseId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, cert)
}

// @Summary 导出证书
// @Description 写入归档存储（本地 / MinIO / OSS）并返回地址
// @Tags 证书
// @Produce json
// @Param courseId path string true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/certificates/{courseId}/export [post]
func (c *CertificateController) Export(ctx *gin.Context) {
	url, err := c.Certificates.Export(ctx.Request.Context(), ctx.Param("courseId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url})
}
