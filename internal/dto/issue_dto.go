package dto

// CreateIssueRequest 创建issue请求
// priority必须属于项目的优先级集合, state必须在固定词表内
type CreateIssueRequest struct {
	ProjectID        int64    `json:"project_id" form:"project_id" binding:"required,min=1"`
	Summary          string   `json:"summary" form:"summary" binding:"required,max=255"`
	Priority         string   `json:"priority" form:"priority" binding:"required,max=50"`
	State            string   `json:"state" form:"state" binding:"required,max=32"`
	Description      string   `json:"description" form:"description" binding:"omitempty,max=10000"`
	StepsToReproduce string   `json:"steps_to_reproduce" form:"steps_to_reproduce" binding:"omitempty,max=10000"`
	Attachments      []string `json:"attachments" form:"attachments" binding:"omitempty,dive,max=500"`
}

// ChangeIssueRequest 修改issue请求, 只更新出现的字段
// 追踪号/所属项目/创建时间不可变
type ChangeIssueRequest struct {
	Summary          *string   `json:"summary" binding:"omitempty,max=255"`
	Priority         *string   `json:"priority" binding:"omitempty,max=50"`
	State            *string   `json:"state" binding:"omitempty,max=32"`
	Description      *string   `json:"description" binding:"omitempty,max=10000"`
	StepsToReproduce *string   `json:"steps_to_reproduce" binding:"omitempty,max=10000"`
	Attachments      *[]string `json:"attachments" binding:"omitempty,dive,max=500"`
}

// IssueQuery 按追踪号查询issue
type IssueQuery struct {
	Tag string `form:"tag" binding:"required"`
}

// IssueListQuery issue列表查询, project_id缺省时表示全量列表(仅admin)
type IssueListQuery struct {
	ProjectID *int64 `form:"project_id" binding:"omitempty,min=1"`
}

// CreateIssueResponse 创建issue响应
type CreateIssueResponse struct {
	Success bool   `json:"success"`
	Tag     string `json:"tag"`
}

// IssueResponse issue响应
type IssueResponse struct {
	ID               int64           `json:"id"`
	Tag              string          `json:"tag"`
	ProjectID        int64           `json:"project_id"`
	Summary          string          `json:"summary"`
	Priority         string          `json:"priority"`
	State            string          `json:"state"`
	Description      string          `json:"description"`
	StepsToReproduce string          `json:"steps_to_reproduce"`
	Attachments      []string        `json:"attachments,omitempty"`
	Assignees        []*UserResponse `json:"assignees,omitempty"`
	CreatedAt        string          `json:"created_at"`
}

// AssigneeRequest 指派/取消指派请求
type AssigneeRequest struct {
	UserID int64 `json:"user_id" binding:"required,min=1"`
}
