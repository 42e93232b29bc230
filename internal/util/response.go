package util

import (
	"course_sync/pkg/logger"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "no user signed in")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// HandleError 将领域错误映射为 HTTP 响应
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoUser):
		Unauthorized(c)
	case errors.Is(err, ErrCourseNotFound), errors.Is(err, ErrSectionNotFound), errors.Is(err, ErrCertificateNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidScore):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrCourseNotPassed):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrRemote):
		logger.Log.Warn("Remote request failed", zap.Error(err))
		Error(c, http.StatusBadGateway, "backend unavailable, please retry")
	case errors.Is(err, ErrStorage):
		logger.Log.Error("Local storage failure", zap.Error(err))
		Error(c, http.StatusInternalServerError, "failed to load local state")
	default:
		LogInternalError(c, err)
	}
}
