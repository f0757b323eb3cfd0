package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bugtracker/internal/dto"
	"bugtracker/internal/model"
	"bugtracker/internal/pkg/database"
	"bugtracker/internal/repository"
	"bugtracker/pkg/constants"
)

// newTestDB 每个测试一个独立的内存库
// 单连接串行化事务, 内存库也不会因为连接池多连接而拿到空库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

type testEnv struct {
	db *gorm.DB

	userRepo       repository.UserRepository
	projectRepo    repository.ProjectRepository
	membershipRepo repository.MembershipRepository
	issueRepo      repository.IssueRepository

	authz       AuthorizationService
	users       UserService
	projects    ProjectService
	memberships MembershipService
	issues      IssueService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	issueRepo := repository.NewIssueRepository(db)

	authz := NewAuthorizationService(membershipRepo)
	users := NewUserService(userRepo)

	return &testEnv{
		db:             db,
		userRepo:       userRepo,
		projectRepo:    projectRepo,
		membershipRepo: membershipRepo,
		issueRepo:      issueRepo,
		authz:          authz,
		users:          users,
		projects:       NewProjectService(db, projectRepo, membershipRepo, authz),
		memberships:    NewMembershipService(db, userRepo, projectRepo, membershipRepo, authz),
		issues:         NewIssueService(db, userRepo, projectRepo, issueRepo, authz),
	}
}

func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	_, err := e.users.Register(&dto.RegisterRequest{
		Username: username,
		Password: "secret123",
	}, "127.0.0.1")
	require.NoError(t, err)

	user, err := e.userRepo.FindByUsername(username)
	require.NoError(t, err)
	return user
}

func (e *testEnv) registerAdmin(t *testing.T, username string) *model.User {
	t.Helper()
	user := e.register(t, username)
	require.NoError(t, e.db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("site_role", constants.SiteRoleAdmin).Error)
	user.SiteRole = constants.SiteRoleAdmin
	return user
}

func (e *testEnv) createProject(t *testing.T, owner *model.User, name string) int64 {
	t.Helper()
	resp, err := e.projects.Create(owner, &dto.CreateProjectRequest{ProjectName: name})
	require.NoError(t, err)
	return resp.ID
}
