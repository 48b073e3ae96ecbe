package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"careercraft/internal/database"
	"careercraft/internal/service"
)

// AdminHandler 提供管理员只读视图。
type AdminHandler struct {
	admin *service.AdminService
	jobs  *service.JobService
	stats *service.StatsService
}

func NewAdminHandler(admin *service.AdminService, jobs *service.JobService, stats *service.StatsService) *AdminHandler {
	return &AdminHandler{admin: admin, jobs: jobs, stats: stats}
}

func (h *AdminHandler) Users(c *gin.Context) {
	users, err := h.admin.ListAccounts(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AdminHandler) Jobs(c *gin.Context) {
	jobs, err := h.jobs.ListJobs(c.Request.Context(), database.RoleAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *AdminHandler) Applications(c *gin.Context) {
	applications, err := h.admin.ListApplications(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

func (h *AdminHandler) Notifications(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		badRequest(c, "limit must be a number")
		return
	}
	notifications, err := h.admin.ListNotifications(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Platform(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
