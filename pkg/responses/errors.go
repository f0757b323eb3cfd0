package responses

import "fmt"

// 错误码, 与HTTP状态码对齐
const (
	CodeSuccess       = 200
	CodeBadRequest    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeConflict      = 409
	CodeInternalError = 500
	CodeDatabaseError = 501
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HTTPStatus 错误码到HTTP状态码的映射
// 400 缺少/非法参数, 401 API key缺失或未知, 403 已认证但无权限,
// 404 资源不存在, 409 创建时唯一性冲突, 其余一律500
func HTTPStatus(code int) int {
	switch code {
	case CodeBadRequest, CodeUnauthorized, CodeForbidden, CodeNotFound, CodeConflict:
		return code
	default:
		return 500
	}
}

// 预定义错误
var (
	ErrBadRequest    = New(CodeBadRequest, "请求参数错误")
	ErrUnauthorized  = New(CodeUnauthorized, "未授权")
	ErrForbidden     = New(CodeForbidden, "禁止访问")
	ErrNotFound      = New(CodeNotFound, "资源不存在")
	ErrConflict      = New(CodeConflict, "资源冲突")
	ErrInternalError = New(CodeInternalError, "内部服务器错误")
	ErrDatabaseError = New(CodeDatabaseError, "数据库错误")

	// 具体业务错误
	ErrInvalidParams      = New(CodeBadRequest, "请求参数错误")
	ErrInvalidCredentials = New(CodeUnauthorized, "用户名或密码错误")
	ErrInvalidAPIKey      = New(CodeUnauthorized, "API Key缺失或无效")
	ErrInvalidToken       = New(CodeUnauthorized, "无效的Token")
	ErrTokenExpired       = New(CodeUnauthorized, "Token已过期")
	ErrUserNotFound       = New(CodeNotFound, "用户不存在")
	ErrProjectNotFound    = New(CodeNotFound, "项目不存在")
	ErrIssueNotFound      = New(CodeNotFound, "Issue不存在")
	ErrRecordNotFound     = New(CodeNotFound, "记录不存在")
	ErrRecordExists       = New(CodeConflict, "记录已存在")
	ErrNotMember          = New(CodeForbidden, "不是项目成员")
	ErrAdminOnly          = New(CodeForbidden, "仅管理员可以执行该操作")
	ErrRootRemoval        = New(CodeForbidden, "root必须先转让才能移除")
)
