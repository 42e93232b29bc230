package controller

import (
	"course_sync/internal/service"
	"course_sync/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	UserService *service.UserService
}

func NewSessionController(userService *service.UserService) *SessionController {
	return &SessionController{UserService: userService}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
}

// @Summary 登录
// @Description 以用户名登录，返回前会完成一次全量同步
// @Tags 会话
// @Accept json
// @Produce json
// @Param body body LoginRequest true "用户名"
// @Success 200 {object} util.Response
// @Router /api/session/login [post]
func (c *SessionController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.UserService.Login(ctx.Request.Context(), req.Username)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 登出
// @Tags 会话
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/session/logout [post]
func (c *SessionController) Logout(ctx *gin.Context) {
	if err := c.UserService.Logout(ctx.Request.Context()); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 当前用户
// @Tags 会话
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/session [get]
func (c *SessionController) Current(ctx *gin.Context) {
	user, err := c.UserService.Current(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, user)
}
