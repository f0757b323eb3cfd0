package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugtracker/internal/dto"
	"bugtracker/internal/model"
	"bugtracker/pkg/constants"
	pkgErrors "bugtracker/pkg/responses"
)

func addDeveloper(t *testing.T, env *testEnv, actor *model.User, projectID int64, username string) {
	t.Helper()
	_, err := env.memberships.AddMember(actor, projectID, &dto.MemberAddRequest{Username: username})
	require.NoError(t, err)
}

// countRoots 数项目里的root数量, 任何时刻必须恰好为1
func countRoots(t *testing.T, env *testEnv, projectID int64) int {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(&model.ProjectMember{}).
		Where("project_id = ? AND role = ?", projectID, constants.ProjectRoleRoot).
		Count(&count).Error)
	return int(count)
}

func TestAddMember(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")
	projectID := env.createProject(t, alice, "Alpha")

	member, err := env.memberships.AddMember(alice, projectID, &dto.MemberAddRequest{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob", member.Username)
	assert.Equal(t, constants.ProjectRoleDeveloper, member.Role)

	// 重复添加409
	_, err = env.memberships.AddMember(alice, projectID, &dto.MemberAddRequest{Username: "bob"})
	assert.ErrorIs(t, err, pkgErrors.ErrRecordExists)

	// 未知用户404
	_, err = env.memberships.AddMember(alice, projectID, &dto.MemberAddRequest{Username: "nobody"})
	assert.ErrorIs(t, err, pkgErrors.ErrUserNotFound)

	// 未知项目404
	_, err = env.memberships.AddMember(alice, 99999, &dto.MemberAddRequest{Username: "bob"})
	assert.ErrorIs(t, err, pkgErrors.ErrProjectNotFound)
}

func TestAddMemberRequiresManageRole(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	dev := env.register(t, "dev")
	env.register(t, "carol")
	admin := env.registerAdmin(t, "boss")
	projectID := env.createProject(t, alice, "Alpha")
	addDeveloper(t, env, alice, projectID, "dev")

	// developer不能加人
	_, err := env.memberships.AddMember(dev, projectID, &dto.MemberAddRequest{Username: "carol"})
	assert.ErrorIs(t, err, pkgErrors.ErrForbidden)

	// Admin越过成员身份直接管理
	_, err = env.memberships.AddMember(admin, projectID, &dto.MemberAddRequest{Username: "carol"})
	assert.NoError(t, err)
}

func TestRootTransfer(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	projectID := env.createProject(t, alice, "Alpha")
	addDeveloper(t, env, alice, projectID, "bob")

	member, err := env.memberships.ChangeRole(alice, projectID, bob.ID, constants.ProjectRoleRoot)
	require.NoError(t, err)
	assert.Equal(t, constants.ProjectRoleRoot, member.Role)

	// 老root降级为manager, 全程恰好一个root
	role, err := env.authz.RoleOf(projectID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ProjectRoleManager, role)
	assert.Equal(t, 1, countRoots(t, env, projectID))

	// 现在alice只是manager, 不能再提拔root
	carol := env.register(t, "carol")
	addDeveloper(t, env, bob, projectID, "carol")
	_, err = env.memberships.ChangeRole(alice, projectID, carol.ID, constants.ProjectRoleRoot)
	assert.ErrorIs(t, err, pkgErrors.ErrForbidden)
	assert.Equal(t, 1, countRoots(t, env, projectID))
}

func TestChangeRoleOnRootForbidden(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")
	admin := env.registerAdmin(t, "boss")
	projectID := env.createProject(t, alice, "Alpha")

	// 对现任root直接改角色不允许, Admin也一样
	for _, actor := range []*model.User{alice, admin} {
		_, err := env.memberships.ChangeRole(actor, projectID, alice.ID, constants.ProjectRoleDeveloper)
		require.Error(t, err)
		var appErr *pkgErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, pkgErrors.CodeForbidden, appErr.Code)
	}
	assert.Equal(t, 1, countRoots(t, env, projectID))
}

func TestManagerCanPromoteToManagerButNotRoot(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")
	projectID := env.createProject(t, alice, "Alpha")
	addDeveloper(t, env, alice, projectID, "bob")
	addDeveloper(t, env, alice, projectID, "carol")

	_, err := env.memberships.ChangeRole(alice, projectID, bob.ID, constants.ProjectRoleManager)
	require.NoError(t, err)

	// manager可以提拔manager
	_, err = env.memberships.ChangeRole(bob, projectID, carol.ID, constants.ProjectRoleManager)
	require.NoError(t, err)

	// 但只有root能提拔root
	_, err = env.memberships.ChangeRole(bob, projectID, carol.ID, constants.ProjectRoleRoot)
	assert.ErrorIs(t, err, pkgErrors.ErrForbidden)
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	projectID := env.createProject(t, alice, "Alpha")
	addDeveloper(t, env, alice, projectID, "bob")

	require.NoError(t, env.memberships.RemoveMember(alice, projectID, bob.ID))

	// 再移除404
	err := env.memberships.RemoveMember(alice, projectID, bob.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)
}

func TestRemoveRootForbidden(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	admin := env.registerAdmin(t, "boss")
	projectID := env.createProject(t, alice, "Alpha")

	// root必须先转让, 本人/Admin都不能直接移除
	err := env.memberships.RemoveMember(alice, projectID, alice.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrRootRemoval)
	err = env.memberships.RemoveMember(admin, projectID, alice.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrRootRemoval)

	// 成员关系未被动过
	assert.Equal(t, 1, countRoots(t, env, projectID))
	members, err := env.memberships.ListMembers(alice, projectID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestListMembersRequiresAccess(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	mallory := env.register(t, "mallory")
	projectID := env.createProject(t, alice, "Alpha")

	_, err := env.memberships.ListMembers(mallory, projectID)
	assert.ErrorIs(t, err, pkgErrors.ErrNotMember)

	_, err = env.memberships.ListMembers(alice, 99999)
	assert.ErrorIs(t, err, pkgErrors.ErrProjectNotFound)
}
