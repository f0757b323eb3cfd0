package constants

// 站点级角色
const (
	SiteRoleUser  = "User"
	SiteRoleAdmin = "Admin"
)

// 项目内角色
const (
	ProjectRoleRoot      = "root"
	ProjectRoleManager   = "manager"
	ProjectRoleDeveloper = "developer"
)

// ProjectRoles 全部合法的项目角色
var ProjectRoles = []string{ProjectRoleRoot, ProjectRoleManager, ProjectRoleDeveloper}

// ProjectManageRoles 可以管理项目属性和成员的角色
var ProjectManageRoles = []string{ProjectRoleRoot, ProjectRoleManager}

// Issue 状态, 固定词表, 不做状态机约束
const (
	IssueStateUnresolved    = "Unresolved"
	IssueStateInProgress    = "In progress"
	IssueStateFixed         = "Fixed"
	IssueStateNotBug        = "Not bug"
	IssueStateCantReproduce = "Cant reproduce"
	IssueStateRejected      = "Rejected"
)

// IssueStates 全部合法的 Issue 状态
var IssueStates = []string{
	IssueStateUnresolved,
	IssueStateInProgress,
	IssueStateFixed,
	IssueStateNotBug,
	IssueStateCantReproduce,
	IssueStateRejected,
}

// DefaultPriorities 项目创建时生成的默认优先级
var DefaultPriorities = []string{"Critical", "Major", "Minor", "Normal"}

// API Key 相关
const (
	APIKeyLength   = 24
	APIKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	APIKeyParam    = "API_KEY"
	// APIKeyNone 客户端未填 key 时常见的字面量, 按缺失处理
	APIKeyNone = "None"
)

// 短标签规则: 项目名不足5个字符时取全名, 否则取前4个字符
const ShortTagPrefixLen = 4

// JWT 相关
const (
	JWTTypeAccess  = "access"
	JWTTypeRefresh = "refresh"
)

// HTTP Header
const (
	HeaderAuthorization = "Authorization"
	HeaderBearerPrefix  = "Bearer "
)
