package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"bugtracker/internal/api/middleware"
	"bugtracker/internal/dto"
	"bugtracker/internal/service"
	"bugtracker/pkg/responses"
	"bugtracker/pkg/utils"
)

type MemberHandler struct {
	membershipService service.MembershipService
}

func NewMemberHandler(membershipService service.MembershipService) *MemberHandler {
	return &MemberHandler{
		membershipService: membershipService,
	}
}

// List 项目成员列表
func (h *MemberHandler) List(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	members, err := h.membershipService.ListMembers(middleware.GetActor(c), projectID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"members": members})
}

// Add 按用户名添加成员, 角色缺省为developer
func (h *MemberHandler) Add(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req dto.MemberAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	member, err := h.membershipService.AddMember(middleware.GetActor(c), projectID, &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"member": member})
}

// Remove 移除成员, root必须先转让
func (h *MemberHandler) Remove(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.membershipService.RemoveMember(middleware.GetActor(c), projectID, userID); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"success": true})
}

// ChangeRole 变更成员角色, 目标角色为root时走root转让
func (h *MemberHandler) ChangeRole(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req dto.MemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	member, err := h.membershipService.ChangeRole(middleware.GetActor(c), projectID, userID, req.Role)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"member": member})
}

// parseUserID 解析路径里的用户id, 非法时写400响应
func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || id < 1 {
		responses.ErrorWithCode(c, 400, "无效的用户id")
		return 0, false
	}
	return id, true
}
