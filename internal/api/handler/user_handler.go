package handler

import (
	"github.com/gin-gonic/gin"

	"bugtracker/internal/api/middleware"
	"bugtracker/internal/dto"
	"bugtracker/internal/service"
	"bugtracker/pkg/responses"
	"bugtracker/pkg/utils"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Register 注册用户, 唯一不要求API Key的端点
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	user, err := h.userService.Register(&req, c.ClientIP())
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"success": true, "id": user.ID})
}

// Get 按id查询用户
func (h *UserHandler) Get(c *gin.Context) {
	var query dto.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	user, err := h.userService.GetUser(query.UserID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"user": user})
}

// List 全量用户列表, 仅Admin
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.ListUsers(middleware.GetActor(c))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"users": users})
}
