package service

import (
	"errors"

	"github.com/samber/lo"

	"bugtracker/internal/model"
	"bugtracker/internal/repository"
	"bugtracker/pkg/constants"
	pkgErrors "bugtracker/pkg/responses"
)

// AuthorizationService 统一的访问控制判定层
// 所有HTTP/API入口的成员与角色检查必须走这里, 不允许在handler里散落判断
//
// 规则(书面约定, 解决历史代码里admin判定不一致的问题):
//  1. 站点Admin绕过一切成员与角色门槛
//  2. 但Admin并不隐含是项目root: root转让仍然要降级真正的root,
//     移除当前root对任何人都是Forbidden
type AuthorizationService interface {
	RoleOf(projectID, userID int64) (string, error)
	IsMember(projectID, userID int64) (bool, error)
	CanAccessProject(actor *model.User, projectID int64) (bool, error)
	CanManageProject(actor *model.User, projectID int64) (bool, error)
	CanChangeRoleTo(actor *model.User, projectID int64, newRole string) (bool, error)
	CanRemoveMember(actor *model.User, target *model.ProjectMember) (bool, error)
	CanViewUserProfile(viewer *model.User, targetID int64) bool
}

type authorizationService struct {
	membershipRepo repository.MembershipRepository
}

// NewAuthorizationService 创建AuthorizationService
func NewAuthorizationService(membershipRepo repository.MembershipRepository) AuthorizationService {
	return &authorizationService{membershipRepo: membershipRepo}
}

// RoleOf 查用户在项目内的角色, 非成员返回空串
func (s *authorizationService) RoleOf(projectID, userID int64) (string, error) {
	member, err := s.membershipRepo.FindByProjectAndUser(projectID, userID)
	if err != nil {
		if errors.Is(err, pkgErrors.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return member.Role, nil
}

func (s *authorizationService) IsMember(projectID, userID int64) (bool, error) {
	role, err := s.RoleOf(projectID, userID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}

// CanAccessProject 成员或站点Admin
func (s *authorizationService) CanAccessProject(actor *model.User, projectID int64) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	return s.IsMember(projectID, actor.ID)
}

// CanManageProject root/manager或站点Admin
func (s *authorizationService) CanManageProject(actor *model.User, projectID int64) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	role, err := s.RoleOf(projectID, actor.ID)
	if err != nil {
		return false, err
	}
	return lo.Contains(constants.ProjectManageRoles, role), nil
}

// CanChangeRoleTo 设为root只有root本人(或Admin)可以;
// 设为manager/developer放宽到root/manager(或Admin)
func (s *authorizationService) CanChangeRoleTo(actor *model.User, projectID int64, newRole string) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	role, err := s.RoleOf(projectID, actor.ID)
	if err != nil {
		return false, err
	}
	if newRole == constants.ProjectRoleRoot {
		return role == constants.ProjectRoleRoot, nil
	}
	return lo.Contains(constants.ProjectManageRoles, role), nil
}

// CanRemoveMember 当前root对任何人都不可移除(先转让), 其余成员由root/manager/Admin移除
func (s *authorizationService) CanRemoveMember(actor *model.User, target *model.ProjectMember) (bool, error) {
	if target.Role == constants.ProjectRoleRoot {
		return false, nil
	}
	// 不允许把自己移出项目, 和管理界面行为保持一致
	if actor.ID == target.UserID {
		return false, nil
	}
	return s.CanManageProject(actor, target.ProjectID)
}

// CanViewUserProfile 本人或站点Admin
func (s *authorizationService) CanViewUserProfile(viewer *model.User, targetID int64) bool {
	return viewer.ID == targetID || viewer.IsAdmin()
}
