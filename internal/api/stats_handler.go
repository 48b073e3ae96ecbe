package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careercraft/internal/service"
)

// StatsHandler 返回雇主与学生的看板统计。
type StatsHandler struct {
	stats *service.StatsService
}

func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func (h *StatsHandler) Employer(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	stats, err := h.stats.Employer(c.Request.Context(), principal.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) Student(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	stats, err := h.stats.Student(c.Request.Context(), principal.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
