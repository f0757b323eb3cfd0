package handler

import (
	"github.com/gin-gonic/gin"

	"bugtracker/internal/api/middleware"
	"bugtracker/internal/dto"
	"bugtracker/internal/service"
	"bugtracker/pkg/responses"
	"bugtracker/pkg/utils"
)

type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
}

func NewAuthHandler(authService service.AuthService, userService service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.authService.Login(&req, c.ClientIP())
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// Refresh 刷新Token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// GetMe 当前登录用户信息
func (h *AuthHandler) GetMe(c *gin.Context) {
	actor := middleware.GetActor(c)
	if actor == nil {
		responses.ErrorWithCode(c, 401, "未登录")
		return
	}

	user, err := h.userService.GetUser(actor.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"user": user})
}

// RotateAPIKey 签发或轮换自己的API Key
func (h *AuthHandler) RotateAPIKey(c *gin.Context) {
	actor := middleware.GetActor(c)

	key, err := h.userService.RotateAPIKey(actor, actor.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, &dto.APIKeyResponse{APIKey: key})
}
