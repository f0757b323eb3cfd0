package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bugtracker/internal/model"
	pkgErrors "bugtracker/pkg/responses"
)

type IssueRepository interface {
	WithTx(tx *gorm.DB) IssueRepository
	Create(issue *model.Issue) error
	Update(issue *model.Issue) error
	FindByTag(tag string) (*model.Issue, error)
	CountByProject(projectID int64) (int64, error)
	ListByProject(projectID int64) ([]*model.Issue, error)
	ListByAssignee(userID int64) ([]*model.Issue, error)
	ListAll() ([]*model.Issue, error)
	AddAssignee(issueID, userID int64) error
	RemoveAssignee(issueID, userID int64) error
}

type issueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

// WithTx 返回绑定到事务的仓库, 编号分配的count+insert必须同事务
func (r *issueRepository) WithTx(tx *gorm.DB) IssueRepository {
	return &issueRepository{db: tx}
}

// Create 插入issue, (project_id, tracking_tag)唯一索引冲突时返回ErrRecordExists,
// 由服务层重新取号重试
func (r *issueRepository) Create(issue *model.Issue) error {
	if err := r.db.Create(issue).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建issue失败", err)
	}
	return nil
}

// Update 只写issue本体, 指派关系走AddAssignee/RemoveAssignee
func (r *issueRepository) Update(issue *model.Issue) error {
	if err := r.db.Omit(clause.Associations).Save(issue).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新issue失败", err)
	}
	return nil
}

func (r *issueRepository) FindByTag(tag string) (*model.Issue, error) {
	var issue model.Issue
	err := r.db.Where("tracking_tag = ?", tag).
		Preload("Assignees").
		Preload("Assignees.User").
		First(&issue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询issue失败", err)
	}
	return &issue, nil
}

func (r *issueRepository) CountByProject(projectID int64) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Issue{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计项目issue失败", err)
	}
	return count, nil
}

func (r *issueRepository) ListByProject(projectID int64) ([]*model.Issue, error) {
	var issues []*model.Issue
	if err := r.db.Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&issues).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目issue失败", err)
	}
	return issues, nil
}

func (r *issueRepository) ListByAssignee(userID int64) ([]*model.Issue, error) {
	var issues []*model.Issue
	if err := r.db.
		Joins("JOIN issue_assignees ON issue_assignees.issue_id = issues.id").
		Where("issue_assignees.user_id = ?", userID).
		Order("issues.id ASC").
		Find(&issues).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户issue失败", err)
	}
	return issues, nil
}

func (r *issueRepository) ListAll() ([]*model.Issue, error) {
	var issues []*model.Issue
	if err := r.db.Order("id ASC").Find(&issues).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询issue列表失败", err)
	}
	return issues, nil
}

func (r *issueRepository) AddAssignee(issueID, userID int64) error {
	assignee := &model.IssueAssignee{IssueID: issueID, UserID: userID}
	if err := r.db.Create(assignee).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "添加指派人失败", err)
	}
	return nil
}

func (r *issueRepository) RemoveAssignee(issueID, userID int64) error {
	result := r.db.Where("issue_id = ? AND user_id = ?", issueID, userID).
		Delete(&model.IssueAssignee{})
	if result.Error != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "移除指派人失败", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgErrors.ErrRecordNotFound
	}
	return nil
}
