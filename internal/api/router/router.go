package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bugtracker/internal/api/handler"
	"bugtracker/internal/api/middleware"
	"bugtracker/internal/pkg/config"
	"bugtracker/internal/repository"
	"bugtracker/internal/service"
)

// Setup 设置路由
func Setup(cfg *config.Config) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 获取数据库连接
	db := cfg.DB.(*gorm.DB)

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	issueRepo := repository.NewIssueRepository(db)

	// 初始化Service
	authz := service.NewAuthorizationService(membershipRepo)
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(&cfg.Auth, userService)
	projectService := service.NewProjectService(db, projectRepo, membershipRepo, authz)
	membershipService := service.NewMembershipService(db, userRepo, projectRepo, membershipRepo, authz)
	issueService := service.NewIssueService(db, userRepo, projectRepo, issueRepo, authz)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	projectHandler := handler.NewProjectHandler(projectService)
	memberHandler := handler.NewMemberHandler(membershipService)
	issueHandler := handler.NewIssueHandler(issueService)

	// 兼容REST API, API_KEY参数认证
	v08 := r.Group("/api/v0.8.0")
	{
		// 注册无需API Key
		v08.POST("/user", userHandler.Register)

		keyed := v08.Group("")
		keyed.Use(middleware.APIKeyMiddleware(userService))
		{
			keyed.GET("/user", userHandler.Get)
			keyed.GET("/users", userHandler.List)

			keyed.POST("/project", projectHandler.Create)
			keyed.GET("/project", projectHandler.Get)
			keyed.GET("/projects", projectHandler.List)

			keyed.POST("/issue", issueHandler.Create)
			keyed.GET("/issue", issueHandler.Get)
			keyed.GET("/issues", issueHandler.List)
		}
	}

	// 管理界面API, JWT认证
	v1 := r.Group("/api/v1")
	{
		// 认证相关(无需token)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// 需要认证的路由
		authed := v1.Group("")
		authed.Use(middleware.JWTMiddleware(userService))
		{
			authed.GET("/auth/me", authHandler.GetMe)
			authed.POST("/auth/api_key", authHandler.RotateAPIKey)

			// 项目管理
			groupProject := authed.Group("/project")
			groupProjects := authed.Group("/projects")
			{
				groupProject.POST("", projectHandler.Create)
				groupProjects.GET("", projectHandler.ListMine)
				groupProject.GET("", projectHandler.Get)

				groupProject.POST("/:project_id/priorities", projectHandler.AddPriorities)
				groupProject.POST("/:project_id/subsystems", projectHandler.AddSubsystems)

				// 成员管理
				groupProject.GET("/:project_id/members", memberHandler.List)
				groupProject.POST("/:project_id/members", memberHandler.Add)
				groupProject.PUT("/:project_id/members/:user_id/role", memberHandler.ChangeRole)
				groupProject.DELETE("/:project_id/members/:user_id", memberHandler.Remove)
			}

			// Issue管理
			groupIssue := authed.Group("/issue")
			groupIssues := authed.Group("/issues")
			{
				groupIssue.POST("", issueHandler.Create)
				groupIssue.GET("", issueHandler.Get)
				groupIssues.GET("", issueHandler.List)
				groupIssues.GET("/mine", issueHandler.ListMine)

				groupIssue.PUT("/:tag", issueHandler.Change)
				groupIssue.POST("/:tag/assignees", issueHandler.AddAssignee)
				groupIssue.DELETE("/:tag/assignees", issueHandler.RemoveAssignee)
			}
		}
	}

	return r
}
