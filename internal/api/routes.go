package api

import (
	"github.com/gin-gonic/gin"

	"careercraft/internal/api/middleware"
	"careercraft/internal/auth"
	"careercraft/internal/database"
)

// Handlers 汇总所有路由处理器。
type Handlers struct {
	Auth         *AuthHandler
	Jobs         *JobHandler
	Applications *ApplicationHandler
	Stats        *StatsHandler
	Admin        *AdminHandler
}

// RegisterRoutes 在 /api 下注册业务路由，每条路由只注册一次。
func RegisterRoutes(router *gin.Engine, authService *auth.AuthService, h Handlers) {
	authenticated := middleware.AuthMiddleware(authService)
	passwordGate := middleware.RequirePasswordChangeCompletedMiddleware()

	employer := middleware.RequireRoles(database.RoleEmployer)
	student := middleware.RequireRoles(database.RoleStudent)

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		// 资料与改密不经过改密闸门，被强制改密的账号仍可访问。
		authGroup.GET("/profile", authenticated, h.Auth.Profile)
		authGroup.PUT("/profile", authenticated, h.Auth.UpdateProfile)
		authGroup.POST("/change-password", authenticated, h.Auth.ChangePassword)
	}

	protected := api.Group("", authenticated, passwordGate)

	jobs := protected.Group("/jobs")
	{
		jobs.POST("", employer, h.Jobs.PostJob)
		jobs.GET("", h.Jobs.ListJobs)
		jobs.GET("/employer", employer, h.Jobs.ListEmployerJobs)
		jobs.PATCH("/:id/active", employer, h.Jobs.SetJobActive)
	}

	applications := protected.Group("/applications")
	{
		applications.POST("", student, h.Applications.Apply)
		applications.GET("/student", student, h.Applications.ListForStudent)
		applications.GET("/job/:jobId", employer, h.Applications.ListForJob)
		applications.PATCH("/:id/status", employer, h.Applications.UpdateStatus)
		applications.GET("/:id/resume", middleware.RequireRoles(database.RoleStudent, database.RoleEmployer), h.Applications.ResumeLink)
	}

	stats := protected.Group("/stats")
	{
		stats.GET("/employer", employer, h.Stats.Employer)
		stats.GET("/student", student, h.Stats.Student)
	}

	admin := protected.Group("/admin", middleware.RequireRoles(database.RoleAdmin))
	{
		admin.GET("/users", h.Admin.Users)
		admin.GET("/jobs", h.Admin.Jobs)
		admin.GET("/applications", h.Admin.Applications)
		admin.GET("/notifications", h.Admin.Notifications)
		admin.GET("/stats", h.Admin.Stats)
	}
}
