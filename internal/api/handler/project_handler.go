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

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// Create 创建项目, 创建者自动成为root
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.projectService.Create(middleware.GetActor(c), &req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// Get 按id查询项目, 含优先级和子系统标签
func (h *ProjectHandler) Get(c *gin.Context) {
	var query dto.ProjectQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	project, err := h.projectService.GetByID(middleware.GetActor(c), query.ProjectID)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"project": project})
}

// List 全量项目列表, 仅Admin
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.ListAll(middleware.GetActor(c))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"projects": projects})
}

// ListMine 当前用户可见的项目列表
func (h *ProjectHandler) ListMine(c *gin.Context) {
	projects, err := h.projectService.ListVisible(middleware.GetActor(c))
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"projects": projects})
}

// AddPriorities 追加优先级标签
func (h *ProjectHandler) AddPriorities(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req dto.LabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.projectService.AddPriorities(middleware.GetActor(c), projectID, req.Names); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"success": true})
}

// AddSubsystems 追加子系统标签
func (h *ProjectHandler) AddSubsystems(c *gin.Context) {
	projectID, ok := parseProjectID(c)
	if !ok {
		return
	}

	var req dto.LabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.projectService.AddSubsystems(middleware.GetActor(c), projectID, req.Names); err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, gin.H{"success": true})
}

// parseProjectID 解析路径里的项目id, 非法时写400响应
func parseProjectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("project_id"), 10, 64)
	if err != nil || id < 1 {
		responses.ErrorWithCode(c, 400, "无效的项目id")
		return 0, false
	}
	return id, true
}
