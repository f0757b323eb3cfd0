package model

const ProjectTableName = "projects"
const ProjectMemberTableName = "project_members"
const ProjectPriorityTableName = "project_priorities"
const ProjectSubsystemTableName = "project_subsystems"

// Project 项目模型
// ShortTag 是issue追踪号的前缀, 全局唯一
type Project struct {
	BaseModel
	Name        string  `gorm:"size:100;not null;uniqueIndex" json:"project_name"`
	ShortTag    string  `gorm:"size:16;not null;uniqueIndex" json:"short_tag"`
	Description *string `gorm:"type:text" json:"description"`
}

func (Project) TableName() string {
	return ProjectTableName
}

// ProjectMember 项目成员, 每个项目任何时刻恰好有一个root
// CreatedAt 即加入时间
type ProjectMember struct {
	BaseModel
	ProjectID int64  `gorm:"column:project_id;not null;uniqueIndex:idx_project_user" json:"project_id"`
	UserID    int64  `gorm:"column:user_id;not null;uniqueIndex:idx_project_user" json:"user_id"`
	Role      string `gorm:"size:20;not null;default:'developer'" json:"role"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ProjectMember) TableName() string {
	return ProjectMemberTableName
}

// ProjectPriority 项目的优先级标签, 创建项目时生成默认集合
type ProjectPriority struct {
	BaseModel
	ProjectID int64  `gorm:"not null;index" json:"project_id"`
	Name      string `gorm:"size:50;not null" json:"name"`
	Position  int    `gorm:"not null;default:0" json:"position"` // 显示顺序
}

func (ProjectPriority) TableName() string {
	return ProjectPriorityTableName
}

// ProjectSubsystem 项目的子系统标签, 自由文本, 可选
type ProjectSubsystem struct {
	BaseModel
	ProjectID int64  `gorm:"not null;index" json:"project_id"`
	Name      string `gorm:"size:100;not null" json:"name"`
}

func (ProjectSubsystem) TableName() string {
	return ProjectSubsystemTableName
}
