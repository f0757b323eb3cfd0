package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugtracker/internal/dto"
	"bugtracker/pkg/constants"
)

func TestRoleOf(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	mallory := env.register(t, "mallory")
	projectID := env.createProject(t, alice, "Alpha")

	role, err := env.authz.RoleOf(projectID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ProjectRoleRoot, role)

	// 非成员角色为空串
	role, err = env.authz.RoleOf(projectID, mallory.ID)
	require.NoError(t, err)
	assert.Equal(t, "", role)
}

func TestAdminBypassesMembershipGates(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	admin := env.registerAdmin(t, "boss")
	projectID := env.createProject(t, alice, "Alpha")

	// Admin不是成员, 但访问和管理判定都放行
	isMember, err := env.authz.IsMember(projectID, admin.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	ok, err := env.authz.CanAccessProject(admin, projectID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.authz.CanManageProject(admin, projectID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.authz.CanChangeRoleTo(admin, projectID, constants.ProjectRoleRoot)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeveloperHasNoManageRights(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	dev := env.register(t, "dev")
	projectID := env.createProject(t, alice, "Alpha")

	_, err := env.memberships.AddMember(alice, projectID, &dto.MemberAddRequest{Username: "dev"})
	require.NoError(t, err)

	ok, err := env.authz.CanAccessProject(dev, projectID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.authz.CanManageProject(dev, projectID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = env.authz.CanChangeRoleTo(dev, projectID, constants.ProjectRoleManager)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerCannotPromoteRoot(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	projectID := env.createProject(t, alice, "Alpha")

	_, err := env.memberships.AddMember(alice, projectID, &dto.MemberAddRequest{Username: "bob"})
	require.NoError(t, err)
	_, err = env.memberships.ChangeRole(alice, projectID, bob.ID, constants.ProjectRoleManager)
	require.NoError(t, err)

	ok, err := env.authz.CanChangeRoleTo(bob, projectID, constants.ProjectRoleManager)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.authz.CanChangeRoleTo(bob, projectID, constants.ProjectRoleRoot)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanViewUserProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	admin := env.registerAdmin(t, "boss")

	assert.True(t, env.authz.CanViewUserProfile(alice, alice.ID))
	assert.False(t, env.authz.CanViewUserProfile(alice, bob.ID))
	assert.True(t, env.authz.CanViewUserProfile(admin, bob.ID))
}
