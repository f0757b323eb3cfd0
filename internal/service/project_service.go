package service

import (
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bugtracker/internal/dto"
	"bugtracker/internal/model"
	"bugtracker/internal/pkg/logger"
	"bugtracker/internal/repository"
	"bugtracker/pkg/constants"
	pkgErrors "bugtracker/pkg/responses"
)

// ProjectService 项目注册表
// 创建者自动成为项目root, 与root成员和默认优先级在同一事务里落库
type ProjectService interface {
	Create(actor *model.User, req *dto.CreateProjectRequest) (*dto.CreateProjectResponse, error)
	GetByID(actor *model.User, projectID int64) (*dto.ProjectResponse, error)
	ListVisible(actor *model.User) ([]*dto.ProjectResponse, error)
	ListAll(actor *model.User) ([]*dto.ProjectResponse, error)
	AddPriorities(actor *model.User, projectID int64, names []string) error
	AddSubsystems(actor *model.User, projectID int64, names []string) error
}

type projectService struct {
	db             *gorm.DB
	projectRepo    repository.ProjectRepository
	membershipRepo repository.MembershipRepository
	authz          AuthorizationService
}

func NewProjectService(db *gorm.DB, projectRepo repository.ProjectRepository,
	membershipRepo repository.MembershipRepository, authz AuthorizationService) ProjectService {
	return &projectService{
		db:             db,
		projectRepo:    projectRepo,
		membershipRepo: membershipRepo,
		authz:          authz,
	}
}

// resolveShortTag 项目名不足5个字符时整个作为前缀, 否则取前4个字符
func resolveShortTag(name string) string {
	runes := []rune(name)
	if len(runes) < constants.ShortTagPrefixLen+1 {
		return name
	}
	return string(runes[:constants.ShortTagPrefixLen])
}

func (s *projectService) Create(actor *model.User, req *dto.CreateProjectRequest) (*dto.CreateProjectResponse, error) {
	shortTag := resolveShortTag(req.ProjectName)
	if req.ShortTag != nil && *req.ShortTag != "" {
		shortTag = *req.ShortTag
	}

	// 名称和前缀冲突先查一遍, 并发下还有唯一索引兜底
	if _, err := s.projectRepo.FindByName(req.ProjectName); err == nil {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, "项目名已存在")
	} else if !errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.projectRepo.FindByShortTag(shortTag); err == nil {
		return nil, pkgErrors.New(pkgErrors.CodeConflict, "项目前缀已存在")
	} else if !errors.Is(err, pkgErrors.ErrRecordNotFound) {
		return nil, err
	}

	project := &model.Project{
		Name:        req.ProjectName,
		ShortTag:    shortTag,
		Description: req.Description,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		txProjects := s.projectRepo.WithTx(tx)
		txMembers := s.membershipRepo.WithTx(tx)

		if err := txProjects.Create(project); err != nil {
			return err
		}
		if err := txMembers.Create(&model.ProjectMember{
			ProjectID: project.ID,
			UserID:    actor.ID,
			Role:      constants.ProjectRoleRoot,
		}); err != nil {
			return err
		}
		return txProjects.AddPriorities(project.ID, constants.DefaultPriorities)
	})
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordExists) {
			return nil, pkgErrors.New(pkgErrors.CodeConflict, "项目名或前缀已存在")
		}
		return nil, err
	}

	logger.Info("项目创建成功",
		zap.String("project_name", project.Name),
		zap.String("short_tag", project.ShortTag),
		zap.String("actor", actor.Username))

	return &dto.CreateProjectResponse{Success: true, ID: project.ID}, nil
}

func (s *projectService) GetByID(actor *model.User, projectID int64) (*dto.ProjectResponse, error) {
	// 未知项目一律404, 在成员判定之前
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrProjectNotFound
		}
		return nil, err
	}

	ok, err := s.authz.CanAccessProject(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgErrors.ErrNotMember
	}

	resp := toProjectResponse(project)

	priorities, err := s.projectRepo.ListPriorities(projectID)
	if err != nil {
		return nil, err
	}
	resp.Priorities = lo.Map(priorities, func(p *model.ProjectPriority, _ int) string { return p.Name })

	subsystems, err := s.projectRepo.ListSubsystems(projectID)
	if err != nil {
		return nil, err
	}
	resp.Subsystems = lo.Map(subsystems, func(s *model.ProjectSubsystem, _ int) string { return s.Name })

	return resp, nil
}

// ListVisible 管理员可见全部项目, 普通用户只可见自己参与的项目
func (s *projectService) ListVisible(actor *model.User) ([]*dto.ProjectResponse, error) {
	var projects []*model.Project
	var err error

	if actor.IsAdmin() {
		projects, err = s.projectRepo.ListAll()
	} else {
		var memberships []*model.ProjectMember
		memberships, err = s.membershipRepo.ListByUser(actor.ID)
		if err == nil {
			ids := lo.Map(memberships, func(m *model.ProjectMember, _ int) int64 { return m.ProjectID })
			projects, err = s.projectRepo.ListByIDs(ids)
		}
	}
	if err != nil {
		return nil, err
	}

	return lo.Map(projects, func(p *model.Project, _ int) *dto.ProjectResponse {
		return toProjectResponse(p)
	}), nil
}

// ListAll 全量项目列表, 仅站点Admin
func (s *projectService) ListAll(actor *model.User) ([]*dto.ProjectResponse, error) {
	if !actor.IsAdmin() {
		return nil, pkgErrors.ErrAdminOnly
	}
	projects, err := s.projectRepo.ListAll()
	if err != nil {
		return nil, err
	}
	return lo.Map(projects, func(p *model.Project, _ int) *dto.ProjectResponse {
		return toProjectResponse(p)
	}), nil
}

func (s *projectService) AddPriorities(actor *model.User, projectID int64, names []string) error {
	if err := s.requireManage(actor, projectID); err != nil {
		return err
	}
	return s.projectRepo.AddPriorities(projectID, names)
}

func (s *projectService) AddSubsystems(actor *model.User, projectID int64, names []string) error {
	if err := s.requireManage(actor, projectID); err != nil {
		return err
	}
	return s.projectRepo.AddSubsystems(projectID, names)
}

func (s *projectService) requireManage(actor *model.User, projectID int64) error {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return pkgErrors.ErrProjectNotFound
		}
		return err
	}
	ok, err := s.authz.CanManageProject(actor, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgErrors.ErrForbidden
	}
	return nil
}

func toProjectResponse(p *model.Project) *dto.ProjectResponse {
	return &dto.ProjectResponse{
		ID:          p.ID,
		ProjectName: p.Name,
		ShortTag:    p.ShortTag,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
