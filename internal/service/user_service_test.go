package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugtracker/internal/dto"
	"bugtracker/pkg/constants"
	pkgErrors "bugtracker/pkg/responses"
)

func TestRegisterThenAuthenticate(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.users.Register(&dto.RegisterRequest{
		Username: "alice",
		Password: "secret123",
	}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, constants.SiteRoleUser, resp.Role)

	user, err := env.users.Authenticate("alice", "secret123", "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, resp.ID, user.ID)

	// 明文密码绝不落库
	stored, err := env.userRepo.FindByUsername("alice")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.Password)
	assert.Equal(t, "10.0.0.2", stored.LastIP)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	_, err := env.users.Authenticate("alice", "wrong-password", "10.0.0.1")
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidCredentials)

	_, err = env.users.Authenticate("nobody", "secret123", "10.0.0.1")
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidCredentials)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	_, err := env.users.Register(&dto.RegisterRequest{
		Username: "alice",
		Password: "another-pass",
	}, "10.0.0.1")
	require.Error(t, err)

	var appErr *pkgErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgErrors.CodeConflict, appErr.Code)
}

func TestRotateAPIKey(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	key, err := env.users.RotateAPIKey(alice, alice.ID)
	require.NoError(t, err)
	assert.Len(t, key, constants.APIKeyLength)
	for _, c := range key {
		assert.True(t, c >= 'A' && c <= 'Z', "key必须只含大写字母: %q", key)
	}

	// 再次轮换后旧key失效
	newKey, err := env.users.RotateAPIKey(alice, alice.ID)
	require.NoError(t, err)
	assert.NotEqual(t, key, newKey)

	_, err = env.users.ResolveByAPIKey(key)
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidAPIKey)

	resolved, err := env.users.ResolveByAPIKey(newKey)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, resolved.ID)
}

func TestRotateAPIKeyOnlySelf(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	_, err := env.users.RotateAPIKey(alice, bob.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrForbidden)

	// Admin也不能代操作别人的key
	admin := env.registerAdmin(t, "root-admin")
	_, err = env.users.RotateAPIKey(admin, bob.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrForbidden)

	_, err = env.users.RotateAPIKey(alice, 99999)
	assert.ErrorIs(t, err, pkgErrors.ErrUserNotFound)
}

// 在已经有一批key的库里反复轮换, 不允许出现重复
func TestRotateAPIKeyNeverCollides(t *testing.T) {
	env := newTestEnv(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		u := env.register(t, "user-"+string(rune('a'+i)))
		key, err := env.users.RotateAPIKey(u, u.ID)
		require.NoError(t, err)
		assert.False(t, seen[key], "key重复: %s", key)
		seen[key] = true
	}

	alice := env.register(t, "alice")
	for i := 0; i < 50; i++ {
		key, err := env.users.RotateAPIKey(alice, alice.ID)
		require.NoError(t, err)
		assert.False(t, seen[key], "key重复: %s", key)
		seen[key] = true
	}
}

func TestResolveByAPIKeyRejectsMissing(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	_, err := env.users.ResolveByAPIKey("")
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidAPIKey)

	// 字面量"None"按缺失处理
	_, err = env.users.ResolveByAPIKey("None")
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidAPIKey)

	_, err = env.users.ResolveByAPIKey("UNREGISTEREDKEYAAAAAAAAA")
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidAPIKey)
}

func TestListUsersAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	env.register(t, "bob")
	admin := env.registerAdmin(t, "boss")

	_, err := env.users.ListUsers(alice)
	assert.ErrorIs(t, err, pkgErrors.ErrAdminOnly)

	users, err := env.users.ListUsers(admin)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}
