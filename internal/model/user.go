package model

import (
	"time"

	"bugtracker/pkg/constants"
)

const UserTableName = "users"

// User 用户模型
// APIKey 在第一次签发前为空(NULL), 签发后全局唯一
type User struct {
	BaseModel
	Username    string     `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Password    string     `gorm:"size:255;not null" json:"-"` // bcrypt哈希, 不返回到前端
	SiteRole    string     `gorm:"size:20;not null;default:'User'" json:"role"` // User 或 Admin
	APIKey      *string    `gorm:"size:24;uniqueIndex" json:"-"`
	RegIP       string     `gorm:"size:64" json:"-"` // 注册时的IP
	LastIP      string     `gorm:"size:64" json:"-"` // 最近一次登录的IP
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Memberships []ProjectMember `gorm:"foreignKey:UserID;references:ID" json:"memberships,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return UserTableName
}

// IsAdmin 是否站点管理员
func (u *User) IsAdmin() bool {
	return u.SiteRole == constants.SiteRoleAdmin
}
