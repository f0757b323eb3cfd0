package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bugtracker/internal/dto"
	"bugtracker/internal/model"
	"bugtracker/pkg/constants"
	pkgErrors "bugtracker/pkg/responses"
)

func newIssueRequest(projectID int64, summary string) *dto.CreateIssueRequest {
	return &dto.CreateIssueRequest{
		ProjectID: projectID,
		Summary:   summary,
		Priority:  "Major",
		State:     constants.IssueStateUnresolved,
	}
}

func TestCreateIssueSequentialTags(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	projectID := env.createProject(t, alice, "Trackertron")

	first, err := env.issues.Create(alice, newIssueRequest(projectID, "first"))
	require.NoError(t, err)
	assert.Equal(t, "Trac-1", first.Tag)

	second, err := env.issues.Create(alice, newIssueRequest(projectID, "second"))
	require.NoError(t, err)
	assert.Equal(t, "Trac-2", second.Tag)

	// 创建者自动成为第一个被指派人
	issue, err := env.issues.GetByTag(alice, "Trac-1")
	require.NoError(t, err)
	require.Len(t, issue.Assignees, 1)
	assert.Equal(t, alice.ID, issue.Assignees[0].ID)
}

// 项目内追踪号必须是从1开始的连续无重复序列, 并发创建也一样
func TestConcurrentIssueCreationNoDuplicateTags(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	projectID := env.createProject(t, alice, "Trackertron")

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.issues.Create(alice, newIssueRequest(projectID, fmt.Sprintf("issue-%d", i)))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "并发创建第%d个失败", i)
	}

	issues, err := env.issues.ListForProject(alice, projectID)
	require.NoError(t, err)
	require.Len(t, issues, n)

	seen := make(map[string]bool)
	for _, issue := range issues {
		assert.False(t, seen[issue.Tag], "tag重复: %s", issue.Tag)
		seen[issue.Tag] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("Trac-%d", i)], "缺少Trac-%d", i)
	}
}

func TestCreateIssueValidation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	mallory := env.register(t, "mallory")
	projectID := env.createProject(t, alice, "Trackertron")

	var appErr *pkgErrors.AppError

	// 非法状态400
	req := newIssueRequest(projectID, "bad state")
	req.State = "Done"
	_, err := env.issues.Create(alice, req)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgErrors.CodeBadRequest, appErr.Code)

	// 优先级必须属于项目的优先级集合
	req = newIssueRequest(projectID, "bad priority")
	req.Priority = "Blocker"
	_, err = env.issues.Create(alice, req)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgErrors.CodeBadRequest, appErr.Code)

	// 未知项目404在权限判定之前
	_, err = env.issues.Create(mallory, newIssueRequest(99999, "nope"))
	assert.ErrorIs(t, err, pkgErrors.ErrProjectNotFound)

	// 非成员403
	_, err = env.issues.Create(mallory, newIssueRequest(projectID, "nope"))
	assert.ErrorIs(t, err, pkgErrors.ErrNotMember)
}

func TestChangeIssue(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	projectID := env.createProject(t, alice, "Trackertron")

	created, err := env.issues.Create(alice, newIssueRequest(projectID, "original"))
	require.NoError(t, err)

	// 只更新出现的字段
	state := constants.IssueStateFixed
	updated, err := env.issues.Change(alice, created.Tag, &dto.ChangeIssueRequest{State: &state})
	require.NoError(t, err)
	assert.Equal(t, constants.IssueStateFixed, updated.State)
	assert.Equal(t, "original", updated.Summary)
	assert.Equal(t, "Major", updated.Priority)

	// 追踪号不可变
	assert.Equal(t, created.Tag, updated.Tag)

	// 非法值拒绝
	bad := "Done"
	_, err = env.issues.Change(alice, created.Tag, &dto.ChangeIssueRequest{State: &bad})
	var appErr *pkgErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgErrors.CodeBadRequest, appErr.Code)

	_, err = env.issues.Change(alice, "Trac-999", &dto.ChangeIssueRequest{State: &state})
	assert.ErrorIs(t, err, pkgErrors.ErrIssueNotFound)
}

func TestIssueAttachments(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	projectID := env.createProject(t, alice, "Trackertron")

	req := newIssueRequest(projectID, "with links")
	req.Attachments = []string{"https://example.com/a.png", "https://example.com/b.log"}
	created, err := env.issues.Create(alice, req)
	require.NoError(t, err)

	issue, err := env.issues.GetByTag(alice, created.Tag)
	require.NoError(t, err)
	assert.Equal(t, req.Attachments, issue.Attachments)
}

func TestIssueAccessControl(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	mallory := env.register(t, "mallory")
	admin := env.registerAdmin(t, "boss")
	projectID := env.createProject(t, alice, "Trackertron")

	created, err := env.issues.Create(alice, newIssueRequest(projectID, "secret"))
	require.NoError(t, err)

	_, err = env.issues.GetByTag(mallory, created.Tag)
	assert.ErrorIs(t, err, pkgErrors.ErrNotMember)

	_, err = env.issues.GetByTag(admin, created.Tag)
	assert.NoError(t, err)

	_, err = env.issues.ListForProject(mallory, projectID)
	assert.ErrorIs(t, err, pkgErrors.ErrNotMember)

	// 全量列表仅Admin
	_, err = env.issues.ListAll(mallory)
	assert.ErrorIs(t, err, pkgErrors.ErrAdminOnly)
	all, err := env.issues.ListAll(admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIssueAssignees(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")
	projectID := env.createProject(t, alice, "Trackertron")
	_, err := env.memberships.AddMember(alice, projectID, &dto.MemberAddRequest{Username: "bob"})
	require.NoError(t, err)

	created, err := env.issues.Create(alice, newIssueRequest(projectID, "shared work"))
	require.NoError(t, err)

	require.NoError(t, env.issues.AddAssignee(alice, created.Tag, bob.ID))

	// 非项目成员不能被指派
	err = env.issues.AddAssignee(alice, created.Tag, carol.ID)
	var appErr *pkgErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgErrors.CodeBadRequest, appErr.Code)

	issue, err := env.issues.GetByTag(alice, created.Tag)
	require.NoError(t, err)
	assert.Len(t, issue.Assignees, 2)

	// bob名下的issue列表
	mine, err := env.issues.ListForUser(bob, bob.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	// 他人名下的列表只有本人或Admin可见
	_, err = env.issues.ListForUser(bob, alice.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrForbidden)

	require.NoError(t, env.issues.RemoveAssignee(alice, created.Tag, bob.ID))
	err = env.issues.RemoveAssignee(alice, created.Tag, bob.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)
}

func TestTagsScopedPerProject(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	alphaID := env.createProject(t, alice, "Alpha")
	bugsID := env.createProject(t, alice, "Bugs")

	a, err := env.issues.Create(alice, newIssueRequest(alphaID, "a"))
	require.NoError(t, err)
	b, err := env.issues.Create(alice, newIssueRequest(bugsID, "b"))
	require.NoError(t, err)

	// 各项目独立计数, "Bugs"不足5个字符所以整名作前缀
	assert.Equal(t, "Alph-1", a.Tag)
	assert.Equal(t, "Bugs-1", b.Tag)

	var count int64
	require.NoError(t, env.db.Model(&model.Issue{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}
