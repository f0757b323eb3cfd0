package dto

// MemberAddRequest 添加项目成员请求, 按用户名添加(与管理界面一致)
type MemberAddRequest struct {
	Username string  `json:"username" binding:"required"`
	Role     *string `json:"role" binding:"omitempty,oneof=manager developer"`
}

// MemberRoleRequest 更新成员角色请求
type MemberRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=root manager developer"`
}

// MemberResponse 项目成员响应
type MemberResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	JoinedAt string `json:"joined_at"`
}
