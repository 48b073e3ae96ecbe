package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careercraft/internal/service"
)

// JobHandler 处理职位相关接口。
type JobHandler struct {
	jobs *service.JobService
}

func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// PostJob 雇主发布职位。
func (h *JobHandler) PostJob(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req service.JobInput
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.jobs.PostJob(c.Request.Context(), principal.AccountID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"job": job})
}

// ListJobs 返回对当前角色可见的职位。
func (h *JobHandler) ListJobs(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	jobs, err := h.jobs.ListJobs(c.Request.Context(), principal.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// ListEmployerJobs 返回雇主自己的职位与投递计数。
func (h *JobHandler) ListEmployerJobs(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	jobs, err := h.jobs.ListEmployerJobs(c.Request.Context(), principal.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

type setActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

// SetJobActive 上线或下线职位。
func (h *JobHandler) SetJobActive(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	jobID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IsActive == nil {
		badRequest(c, "isActive is required")
		return
	}
	job, err := h.jobs.SetJobActive(c.Request.Context(), principal.AccountID, jobID, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}
