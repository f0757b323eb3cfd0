package repository

import (
	"errors"

	"gorm.io/gorm"

	"bugtracker/internal/model"
	"bugtracker/pkg/constants"
	pkgErrors "bugtracker/pkg/responses"
)

type MembershipRepository interface {
	WithTx(tx *gorm.DB) MembershipRepository
	Create(member *model.ProjectMember) error
	FindByProjectAndUser(projectID, userID int64) (*model.ProjectMember, error)
	FindRoot(projectID int64) (*model.ProjectMember, error)
	ListByProject(projectID int64) ([]*model.ProjectMember, error)
	ListByUser(userID int64) ([]*model.ProjectMember, error)
	UpdateRole(id int64, role string) error
	Delete(id int64) error
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// WithTx 返回绑定到事务的仓库, root转让的降级+晋升必须同事务
func (r *membershipRepository) WithTx(tx *gorm.DB) MembershipRepository {
	return &membershipRepository{db: tx}
}

func (r *membershipRepository) Create(member *model.ProjectMember) error {
	if err := r.db.Create(member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "添加项目成员失败", err)
	}
	return nil
}

func (r *membershipRepository) FindByProjectAndUser(projectID, userID int64) (*model.ProjectMember, error) {
	var member model.ProjectMember
	err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目成员失败", err)
	}
	return &member, nil
}

// FindRoot 查项目当前的root成员, 不存在说明数据已经违反单root不变量
func (r *membershipRepository) FindRoot(projectID int64) (*model.ProjectMember, error) {
	var member model.ProjectMember
	err := r.db.Where("project_id = ? AND role = ?", projectID, constants.ProjectRoleRoot).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目root失败", err)
	}
	return &member, nil
}

func (r *membershipRepository) ListByProject(projectID int64) ([]*model.ProjectMember, error) {
	var members []*model.ProjectMember
	if err := r.db.Where("project_id = ?", projectID).
		Preload("User").
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目成员失败", err)
	}
	return members, nil
}

func (r *membershipRepository) ListByUser(userID int64) ([]*model.ProjectMember, error) {
	var members []*model.ProjectMember
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户的项目成员关系失败", err)
	}
	return members, nil
}

func (r *membershipRepository) UpdateRole(id int64, role string) error {
	if err := r.db.Model(&model.ProjectMember{}).Where("id = ?", id).
		Update("role", role).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新成员角色失败", err)
	}
	return nil
}

func (r *membershipRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.ProjectMember{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "移除项目成员失败", err)
	}
	return nil
}
