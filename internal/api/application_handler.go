package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"careercraft/internal/resume"
	"careercraft/internal/service"
)

// ApplicationHandler 处理投递相关接口。
type ApplicationHandler struct {
	applications   *service.ApplicationService
	maxUploadBytes int64
}

func NewApplicationHandler(applications *service.ApplicationService, maxUploadBytes int64) *ApplicationHandler {
	if maxUploadBytes <= 0 || maxUploadBytes > resume.MaxSize {
		maxUploadBytes = resume.MaxSize
	}
	return &ApplicationHandler{applications: applications, maxUploadBytes: maxUploadBytes}
}

type applyJSONRequest struct {
	JobID       uint   `json:"jobId"`
	CoverLetter string `json:"coverLetter"`
}

// Apply 学生投递职位。multipart 表单字段为 jobId、coverLetter，简历文件字段为 resume；
// 不带简历时也可直接提交 JSON。
func (h *ApplicationHandler) Apply(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}

	var input service.ApplyInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		// 预留表单字段的空间，文件本身的上限由 resume.Store 校验。
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+64*1024)

		if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				badRequest(c, "resume file is too large")
				return
			}
			badRequest(c, "invalid multipart form")
			return
		}

		jobID, err := strconv.ParseUint(strings.TrimSpace(c.PostForm("jobId")), 10, 64)
		if err != nil || jobID == 0 {
			badRequest(c, "jobId is required")
			return
		}
		input.JobID = uint(jobID)
		input.CoverLetter = c.PostForm("coverLetter")

		header, err := c.FormFile("resume")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			badRequest(c, "invalid resume upload")
			return
		default:
			file, err := header.Open()
			if err != nil {
				badRequest(c, "invalid resume upload")
				return
			}
			defer file.Close()
			input.Resume = &resume.Upload{Filename: header.Filename, Size: header.Size, Content: file}
		}
	} else {
		var req applyJSONRequest
		if !bindJSON(c, &req) {
			return
		}
		input.JobID = req.JobID
		input.CoverLetter = req.CoverLetter
	}

	application, err := h.applications.Apply(c.Request.Context(), principal.AccountID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "application submitted",
		"application": service.NewApplicationView(*application),
	})
}

// ListForStudent 返回学生自己的投递。
func (h *ApplicationHandler) ListForStudent(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	applications, err := h.applications.ListForStudent(c.Request.Context(), principal.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

// ListForJob 返回雇主名下某职位的投递。
func (h *ApplicationHandler) ListForJob(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	jobID, ok := uintParam(c, "jobId")
	if !ok {
		return
	}
	applications, err := h.applications.ListForJob(c.Request.Context(), principal.AccountID, jobID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

// UpdateStatus 雇主变更投递状态。
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	applicationID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req service.StatusInput
	if !bindJSON(c, &req) {
		return
	}
	application, err := h.applications.UpdateStatus(c.Request.Context(), principal.AccountID, applicationID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "application status updated",
		"application": service.NewApplicationView(*application),
	})
}

// ResumeLink 返回简历的限时下载链接。
func (h *ApplicationHandler) ResumeLink(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	applicationID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	url, err := h.applications.ResumeLink(c.Request.Context(), principal, applicationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(resume.LinkTTL.Seconds())})
}
