package model

import (
	"gorm.io/datatypes"
)

const IssueTableName = "issues"
const IssueAssigneeTableName = "issue_assignees"

// Issue 缺陷/任务模型
// TrackingTag 形如 {project.short_tag}-{N}, N在项目内从1开始连续递增;
// (project_id, tracking_tag) 上的唯一索引用来封住并发创建时的编号竞争
type Issue struct {
	BaseModel
	ProjectID        int64          `gorm:"column:project_id;not null;uniqueIndex:idx_project_tag" json:"project_id"`
	TrackingTag      string         `gorm:"size:32;not null;uniqueIndex:idx_project_tag" json:"tag"`
	Summary          string         `gorm:"size:255;not null" json:"summary"`
	Priority         string         `gorm:"size:50;not null;index" json:"priority"` // 必须属于项目的优先级集合
	State            string         `gorm:"size:32;not null" json:"state"`
	Description      string         `gorm:"type:text" json:"description"`
	StepsToReproduce string         `gorm:"type:text" json:"steps_to_reproduce"`
	Attachments      datatypes.JSON `gorm:"type:json" json:"attachments,omitempty"` // 附件链接数组

	Project   *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignees []IssueAssignee `gorm:"foreignKey:IssueID;references:ID" json:"assignees,omitempty"`
}

func (Issue) TableName() string {
	return IssueTableName
}

// IssueAssignee 指派关系, 创建者在创建issue时自动成为第一个被指派人
type IssueAssignee struct {
	BaseModel
	IssueID int64 `gorm:"column:issue_id;not null;uniqueIndex:idx_issue_user" json:"issue_id"`
	UserID  int64 `gorm:"column:user_id;not null;uniqueIndex:idx_issue_user" json:"user_id"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (IssueAssignee) TableName() string {
	return IssueAssigneeTableName
}
