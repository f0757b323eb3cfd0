package dto

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" form:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=72"`
}

// UserResponse 用户响应
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserQuery 按id查询用户
type UserQuery struct {
	UserID int64 `form:"user_id" binding:"required,min=1"`
}

// APIKeyResponse 签发/轮换API Key的响应
type APIKeyResponse struct {
	APIKey string `json:"api_key"`
}
