package repository

import (
	"errors"

	"gorm.io/gorm"

	"bugtracker/internal/model"
	pkgErrors "bugtracker/pkg/responses"
)

type ProjectRepository interface {
	WithTx(tx *gorm.DB) ProjectRepository
	Create(project *model.Project) error
	FindByID(id int64) (*model.Project, error)
	FindByName(name string) (*model.Project, error)
	FindByShortTag(tag string) (*model.Project, error)
	ListAll() ([]*model.Project, error)
	ListByIDs(ids []int64) ([]*model.Project, error)
	AddPriorities(projectID int64, names []string) error
	ListPriorities(projectID int64) ([]*model.ProjectPriority, error)
	AddSubsystems(projectID int64, names []string) error
	ListSubsystems(projectID int64) ([]*model.ProjectSubsystem, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// WithTx 返回绑定到事务的仓库, 项目创建需要和root成员及默认优先级同事务
func (r *projectRepository) WithTx(tx *gorm.DB) ProjectRepository {
	return &projectRepository{db: tx}
}

func (r *projectRepository) Create(project *model.Project) error {
	if err := r.db.Create(project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return pkgErrors.ErrRecordExists
		}
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建项目失败", err)
	}
	return nil
}

func (r *projectRepository) FindByID(id int64) (*model.Project, error) {
	var project model.Project
	err := r.db.First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目失败", err)
	}
	return &project, nil
}

func (r *projectRepository) FindByName(name string) (*model.Project, error) {
	var project model.Project
	err := r.db.Where("name = ?", name).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目失败", err)
	}
	return &project, nil
}

func (r *projectRepository) FindByShortTag(tag string) (*model.Project, error) {
	var project model.Project
	err := r.db.Where("short_tag = ?", tag).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目失败", err)
	}
	return &project, nil
}

func (r *projectRepository) ListAll() ([]*model.Project, error) {
	var projects []*model.Project
	if err := r.db.Order("id ASC").Find(&projects).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目列表失败", err)
	}
	return projects, nil
}

func (r *projectRepository) ListByIDs(ids []int64) ([]*model.Project, error) {
	if len(ids) == 0 {
		return []*model.Project{}, nil
	}
	var projects []*model.Project
	if err := r.db.Where("id IN ?", ids).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询项目列表失败", err)
	}
	return projects, nil
}

// AddPriorities 追加优先级标签, 不去重(与标签的自由文本语义一致, 去重由调用方负责)
func (r *projectRepository) AddPriorities(projectID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	var maxPos int
	r.db.Model(&model.ProjectPriority{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPos)

	priorities := make([]*model.ProjectPriority, 0, len(names))
	for i, name := range names {
		priorities = append(priorities, &model.ProjectPriority{
			ProjectID: projectID,
			Name:      name,
			Position:  maxPos + i + 1,
		})
	}
	if err := r.db.Create(&priorities).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建优先级标签失败", err)
	}
	return nil
}

func (r *projectRepository) ListPriorities(projectID int64) ([]*model.ProjectPriority, error) {
	var priorities []*model.ProjectPriority
	if err := r.db.Where("project_id = ?", projectID).
		Order("position ASC").Find(&priorities).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询优先级标签失败", err)
	}
	return priorities, nil
}

func (r *projectRepository) AddSubsystems(projectID int64, names []string) error {
	if len(names) == 0 {
		return nil
	}
	subsystems := make([]*model.ProjectSubsystem, 0, len(names))
	for _, name := range names {
		subsystems = append(subsystems, &model.ProjectSubsystem{
			ProjectID: projectID,
			Name:      name,
		})
	}
	if err := r.db.Create(&subsystems).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建子系统标签失败", err)
	}
	return nil
}

func (r *projectRepository) ListSubsystems(projectID int64) ([]*model.ProjectSubsystem, error) {
	var subsystems []*model.ProjectSubsystem
	if err := r.db.Where("project_id = ?", projectID).
		Order("id ASC").Find(&subsystems).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询子系统标签失败", err)
	}
	return subsystems, nil
}
