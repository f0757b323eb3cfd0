package handler

import (
	"github.com/gin-gonic/gin"

	"bugtracker/internal/api/middleware"
	"bugtracker/internal/dto"
	"bugtracker/internal/service"
	"bugtracker/pkg/responses"
	"bugtracker/pkg/utils"
)

type IssueHandler struct {
	issueService service.IssueService
}

func NewIssueHandler(issueService service.IssueService) *IssueHandler {
	return &IssueHandler{
		issueService: issueService,
	}
}

// Create 创建issue, 返回分配的追踪号
func (h *IssueHandler) Create(c *gin.Context) {
	var req dto.CreateIssueRequest
	if err := c.ShouldBind(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.issueService.Create(middleware.GetActor(c), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// Get 按追踪号查询issue
func (h *IssueHandler) Get(c *gin.Context) {
	var query dto.IssueQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	issue, err := h.issueService.GetByTag(middleware.GetActor(c), query.Tag)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"issue": issue})
}

// List 列表查询
// project_id给定时按项目(成员可见), 缺省时全量(仅Admin)
func (h *IssueHandler) List(c *gin.Context) {
	var query dto.IssueListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	actor := middleware.GetActor(c)

	var issues []*dto.IssueResponse
	var err error
	if query.ProjectID != nil {
		issues, err = h.issueService.ListForProject(actor, *query.ProjectID)
	} else {
		issues, err = h.issueService.ListAll(actor)
	}
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"issues": issues})
}

// ListMine 当前用户被指派的issue
func (h *IssueHandler) ListMine(c *gin.Context) {
	actor := middleware.GetActor(c)
	issues, err := h.issueService.ListForUser(actor, actor.ID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"issues": issues})
}

// Change 修改issue, 只更新出现的字段
func (h *IssueHandler) Change(c *gin.Context) {
	tag := c.Param("tag")

	var req dto.ChangeIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	issue, err := h.issueService.Change(middleware.GetActor(c), tag, &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"issue": issue})
}

// AddAssignee 指派成员
func (h *IssueHandler) AddAssignee(c *gin.Context) {
	tag := c.Param("tag")

	var req dto.AssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.issueService.AddAssignee(middleware.GetActor(c), tag, req.UserID); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"success": true})
}

// RemoveAssignee 取消指派
func (h *IssueHandler) RemoveAssignee(c *gin.Context) {
	tag := c.Param("tag")

	var req dto.AssigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.issueService.RemoveAssignee(middleware.GetActor(c), tag, req.UserID); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"success": true})
}
