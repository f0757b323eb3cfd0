package service

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bugtracker/internal/dto"
	"bugtracker/internal/model"
	"bugtracker/internal/pkg/logger"
	"bugtracker/internal/repository"
	"bugtracker/pkg/constants"
	pkgErrors "bugtracker/pkg/responses"
)

// MembershipService 项目成员管理
// root转让走事务: 老root降级为manager, 目标晋升为root, 保证项目始终恰好一个root
type MembershipService interface {
	AddMember(actor *model.User, projectID int64, req *dto.MemberAddRequest) (*dto.MemberResponse, error)
	RemoveMember(actor *model.User, projectID, targetUserID int64) error
	ChangeRole(actor *model.User, projectID, targetUserID int64, newRole string) (*dto.MemberResponse, error)
	ListMembers(actor *model.User, projectID int64) ([]*dto.MemberResponse, error)
}

type membershipService struct {
	db             *gorm.DB
	userRepo       repository.UserRepository
	projectRepo    repository.ProjectRepository
	membershipRepo repository.MembershipRepository
	authz          AuthorizationService
}

func NewMembershipService(db *gorm.DB, userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository, membershipRepo repository.MembershipRepository,
	authz AuthorizationService) MembershipService {
	return &membershipService{
		db:             db,
		userRepo:       userRepo,
		projectRepo:    projectRepo,
		membershipRepo: membershipRepo,
		authz:          authz,
	}
}

// requireProject 未知项目一律404, 在权限判定之前
func (s *membershipService) requireProject(projectID int64) error {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return pkgErrors.ErrProjectNotFound
		}
		return err
	}
	return nil
}

func (s *membershipService) AddMember(actor *model.User, projectID int64, req *dto.MemberAddRequest) (*dto.MemberResponse, error) {
	if err := s.requireProject(projectID); err != nil {
		return nil, err
	}

	ok, err := s.authz.CanManageProject(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgErrors.ErrForbidden
	}

	target, err := s.userRepo.FindByUsername(req.Username)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return nil, pkgErrors.ErrUserNotFound
		}
		return nil, err
	}

	role := constants.ProjectRoleDeveloper
	if req.Role != nil {
		role = *req.Role
	}

	member := &model.ProjectMember{
		ProjectID: projectID,
		UserID:    target.ID,
		Role:      role,
	}
	if err := s.membershipRepo.Create(member); err != nil {
		return nil, err
	}

	logger.Info("添加项目成员",
		zap.Int64("project_id", projectID),
		zap.String("username", target.Username),
		zap.String("role", role),
		zap.String("actor", actor.Username))

	member.User = target
	return toMemberResponse(member), nil
}

func (s *membershipService) RemoveMember(actor *model.User, projectID, targetUserID int64) error {
	if err := s.requireProject(projectID); err != nil {
		return err
	}

	target, err := s.membershipRepo.FindByProjectAndUser(projectID, targetUserID)
	if err != nil {
		return err
	}

	ok, err := s.authz.CanRemoveMember(actor, target)
	if err != nil {
		return err
	}
	if !ok {
		if target.Role == constants.ProjectRoleRoot {
			return pkgErrors.ErrRootRemoval
		}
		return pkgErrors.ErrForbidden
	}

	if err := s.membershipRepo.Delete(target.ID); err != nil {
		return err
	}

	logger.Info("移除项目成员",
		zap.Int64("project_id", projectID),
		zap.Int64("user_id", targetUserID),
		zap.String("actor", actor.Username))
	return nil
}

func (s *membershipService) ChangeRole(actor *model.User, projectID, targetUserID int64, newRole string) (*dto.MemberResponse, error) {
	if err := s.requireProject(projectID); err != nil {
		return nil, err
	}

	target, err := s.membershipRepo.FindByProjectAndUser(projectID, targetUserID)
	if err != nil {
		return nil, err
	}

	// 现任root只能通过转让被替换, 不允许直接改角色
	if target.Role == constants.ProjectRoleRoot {
		return nil, pkgErrors.New(pkgErrors.CodeForbidden, "root角色只能通过转让变更")
	}

	ok, err := s.authz.CanChangeRoleTo(actor, projectID, newRole)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgErrors.ErrForbidden
	}

	if newRole == constants.ProjectRoleRoot {
		if err := s.transferRoot(projectID, target.ID); err != nil {
			return nil, err
		}
		logger.Info("root转让",
			zap.Int64("project_id", projectID),
			zap.Int64("new_root_user_id", targetUserID),
			zap.String("actor", actor.Username))
	} else {
		if err := s.membershipRepo.UpdateRole(target.ID, newRole); err != nil {
			return nil, err
		}
	}

	updated, err := s.membershipRepo.FindByProjectAndUser(projectID, targetUserID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(targetUserID)
	if err != nil {
		return nil, err
	}
	updated.User = user
	return toMemberResponse(updated), nil
}

// transferRoot 同一事务里降级老root并晋升目标成员
func (s *membershipService) transferRoot(projectID, targetMemberID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		txRepo := s.membershipRepo.WithTx(tx)

		oldRoot, err := txRepo.FindRoot(projectID)
		if err != nil {
			return err
		}
		if err := txRepo.UpdateRole(oldRoot.ID, constants.ProjectRoleManager); err != nil {
			return err
		}
		return txRepo.UpdateRole(targetMemberID, constants.ProjectRoleRoot)
	})
}

func (s *membershipService) ListMembers(actor *model.User, projectID int64) ([]*dto.MemberResponse, error) {
	if err := s.requireProject(projectID); err != nil {
		return nil, err
	}

	ok, err := s.authz.CanAccessProject(actor, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgErrors.ErrNotMember
	}

	members, err := s.membershipRepo.ListByProject(projectID)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.MemberResponse, 0, len(members))
	for _, m := range members {
		result = append(result, toMemberResponse(m))
	}
	return result, nil
}

func toMemberResponse(m *model.ProjectMember) *dto.MemberResponse {
	resp := &dto.MemberResponse{
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: m.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if m.User != nil {
		resp.Username = m.User.Username
	}
	return resp
}
