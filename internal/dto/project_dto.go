package dto

// CreateProjectRequest 创建项目请求
// ShortTag 不填时按项目名截断规则生成
type CreateProjectRequest struct {
	ProjectName string  `json:"project_name" form:"project_name" binding:"required,min=1,max=100"`
	Description *string `json:"description" form:"description" binding:"omitempty,max=2000"`
	ShortTag    *string `json:"short_tag" form:"short_tag" binding:"omitempty,min=1,max=16"`
}

// ProjectQuery 按id查询项目
type ProjectQuery struct {
	ProjectID int64 `form:"project_id" binding:"required,min=1"`
}

// CreateProjectResponse 创建项目响应
type CreateProjectResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

// ProjectResponse 项目响应
type ProjectResponse struct {
	ID          int64    `json:"id"`
	ProjectName string   `json:"project_name"`
	ShortTag    string   `json:"short_tag"`
	Description *string  `json:"description"`
	CreatedAt   string   `json:"created_at"`
	Priorities  []string `json:"priorities,omitempty"`
	Subsystems  []string `json:"subsystems,omitempty"`
}

// LabelsRequest 追加优先级/子系统标签的请求
type LabelsRequest struct {
	Names []string `json:"names" binding:"required,min=1,dive,required,max=100"`
}
