package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"careercraft/internal/apperr"
	"careercraft/internal/auth"
	"careercraft/internal/database"
	"careercraft/internal/metrics"
	"careercraft/internal/notify"
	"careercraft/internal/resume"
	"careercraft/internal/telemetry"
)

const maxCoverLetterRunes = 10000

// ResumeStore is implemented by *resume.Store.
type ResumeStore interface {
	Save(ctx context.Context, studentID uint, upload resume.Upload) (string, error)
	Discard(ctx context.Context, key string) error
	Link(ctx context.Context, key string) (string, error)
}

// ApplyInput 是一次投递；Resume 为空表示不附简历。
type ApplyInput struct {
	JobID       uint
	CoverLetter string
	Resume      *resume.Upload
}

// StatusInput 是雇主更新投递状态的请求。Notes 为空时保留原备注。
type StatusInput struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// ApplicationService 实现投递流程：学生投递，雇主审核。
type ApplicationService struct {
	db       *gorm.DB
	resumes  ResumeStore
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewApplicationService(db *gorm.DB, resumes ResumeStore, notifier notify.Notifier, logger *slog.Logger) *ApplicationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplicationService{db: db, resumes: resumes, notifier: orDiscard(notifier), logger: logger, now: time.Now}
}

// Apply 为学生创建一条 pending 投递。同一学生对同一职位只能投递一次，
// 并发重复提交由 (job_id, student_id) 唯一索引兜底。
func (s *ApplicationService) Apply(ctx context.Context, studentID uint, in ApplyInput) (_ *database.Application, err error) {
	ctx, span := telemetry.Start(ctx, "application.apply",
		attribute.Int64("job_id", int64(in.JobID)),
		attribute.Int64("student_id", int64(studentID)),
	)
	defer func() { telemetry.End(span, err) }()

	if in.JobID == 0 {
		return nil, apperr.InvalidInput("jobId is required")
	}
	coverLetter := optionalText(in.CoverLetter)
	if coverLetter != nil && utf8.RuneCountInString(*coverLetter) > maxCoverLetterRunes {
		return nil, apperr.InvalidInput("coverLetter is too long")
	}

	var job database.Job
	if err := s.db.WithContext(ctx).First(&job, in.JobID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.InvalidInput("job not found")
		}
		return nil, apperr.Unexpected("failed to load job", err)
	}
	if !job.IsActive {
		return nil, apperr.InvalidInput("job is not accepting applications")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&database.Application{}).
		Where("job_id = ? AND student_id = ?", in.JobID, studentID).
		Count(&existing).Error; err != nil {
		return nil, apperr.Unexpected("failed to check existing application", err)
	}
	if existing > 0 {
		return nil, apperr.Conflict("you have already applied for this job")
	}

	var resumeKey *string
	if in.Resume != nil {
		if s.resumes == nil {
			return nil, apperr.Unexpected("resume storage unavailable", nil)
		}
		key, err := s.resumes.Save(ctx, studentID, *in.Resume)
		if err != nil {
			return nil, err
		}
		resumeKey = &key
	}

	application := database.Application{
		JobID:       in.JobID,
		StudentID:   studentID,
		ResumeKey:   resumeKey,
		CoverLetter: coverLetter,
		Status:      database.ApplicationPending,
		AppliedAt:   s.now(),
	}
	if err := s.db.WithContext(ctx).Omit("Job", "Student").Create(&application).Error; err != nil {
		s.discardResume(ctx, resumeKey)
		if isDuplicateKey(err) {
			return nil, apperr.Conflict("you have already applied for this job")
		}
		return nil, apperr.Unexpected("failed to create application", err)
	}

	s.logger.InfoContext(ctx, "application submitted",
		slog.Uint64("application_id", uint64(application.ID)),
		slog.Uint64("job_id", uint64(in.JobID)),
		slog.Uint64("student_id", uint64(studentID)),
	)
	return &application, nil
}

func (s *ApplicationService) discardResume(ctx context.Context, key *string) {
	if key == nil || s.resumes == nil {
		return
	}
	if err := s.resumes.Discard(context.WithoutCancel(ctx), *key); err != nil {
		s.logger.WarnContext(ctx, "discard orphaned resume failed",
			slog.String("resume_key", *key),
			slog.Any("error", err),
		)
	}
}

// ListForStudent 返回学生自己的投递，新投递在前。
func (s *ApplicationService) ListForStudent(ctx context.Context, studentID uint) ([]StudentApplicationView, error) {
	var applications []database.Application
	if err := s.db.WithContext(ctx).
		Preload("Job.Employer").
		Where("student_id = ?", studentID).
		Order("applied_at DESC, id DESC").
		Find(&applications).Error; err != nil {
		return nil, apperr.Unexpected("failed to list applications", err)
	}

	views := make([]StudentApplicationView, 0, len(applications))
	for _, a := range applications {
		views = append(views, StudentApplicationView{
			ApplicationView: NewApplicationView(a),
			JobTitle:        a.Job.Title,
			JobLocation:     a.Job.Location,
			EmployerName:    a.Job.Employer.DisplayName(),
		})
	}
	return views, nil
}

// ListForJob 返回雇主名下某职位的投递及申请人资料。
func (s *ApplicationService) ListForJob(ctx context.Context, employerID, jobID uint) ([]ApplicantView, error) {
	if _, err := loadOwnedJob(ctx, s.db, employerID, jobID); err != nil {
		return nil, err
	}

	var applications []database.Application
	if err := s.db.WithContext(ctx).
		Preload("Student").
		Where("job_id = ?", jobID).
		Order("applied_at DESC, id DESC").
		Find(&applications).Error; err != nil {
		return nil, apperr.Unexpected("failed to list applications", err)
	}

	views := make([]ApplicantView, 0, len(applications))
	for _, a := range applications {
		views = append(views, ApplicantView{
			ApplicationView: NewApplicationView(a),
			FirstName:       a.Student.FirstName,
			LastName:        a.Student.LastName,
			Email:           a.Student.Email,
			Phone:           a.Student.Phone,
			College:         a.Student.College,
			Course:          a.Student.Course,
			GraduationYear:  a.Student.GraduationYear,
		})
	}
	return views, nil
}

// UpdateStatus 由职位所属雇主变更投递状态。accepted 与 rejected 为终态；
// 重复提交相同状态视为幂等并刷新时间戳。
func (s *ApplicationService) UpdateStatus(ctx context.Context, employerID, applicationID uint, in StatusInput) (_ *database.Application, err error) {
	ctx, span := telemetry.Start(ctx, "application.update_status",
		attribute.Int64("application_id", int64(applicationID)),
		attribute.String("status", in.Status),
	)
	defer func() { telemetry.End(span, err) }()

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if !isApplicationStatus(status) {
		return nil, apperr.InvalidInput("status must be one of: pending, accepted, rejected")
	}

	var application database.Application
	if err := s.db.WithContext(ctx).
		Joins("Job").
		Preload("Student").
		First(&application, applicationID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("application not found")
		}
		return nil, apperr.Unexpected("failed to load application", err)
	}
	if application.Job.EmployerID != employerID {
		return nil, apperr.Forbidden("you do not own the job for this application")
	}

	previous := application.Status
	if isTerminal(previous) && status != previous {
		return nil, apperr.InvalidInput("application status is final")
	}

	now := s.now()
	values := map[string]any{
		"status":            status,
		"status_updated_at": now,
	}
	if in.Notes != nil {
		values["employer_notes"] = trimPtr(in.Notes)
	}

	// 条件更新：并发的另一次状态变更不会被静默覆盖。
	result := s.db.WithContext(ctx).Model(&database.Application{}).
		Where("id = ? AND status IN ?", application.ID, []string{previous, status}).
		Updates(values)
	if result.Error != nil {
		return nil, apperr.Unexpected("failed to update application status", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.Conflict("application status changed concurrently, reload and retry")
	}

	application.Status = status
	application.StatusUpdatedAt = &now
	if in.Notes != nil {
		application.EmployerNotes = trimPtr(in.Notes)
	}

	s.logger.InfoContext(ctx, "application status updated",
		slog.Uint64("application_id", uint64(application.ID)),
		slog.String("from", previous),
		slog.String("to", status),
	)

	if status != previous {
		metrics.ObserveStatusChange(status)
		notes := ""
		if application.EmployerNotes != nil {
			notes = *application.EmployerNotes
		}
		s.notifier.Notify(ctx, notify.StatusMessage(application.Student, application.Job.Title, status, notes))
	}
	return &application, nil
}

// ResumeLink 为投递的学生本人或职位所属雇主生成简历下载链接。
func (s *ApplicationService) ResumeLink(ctx context.Context, viewer auth.Identity, applicationID uint) (string, error) {
	var application database.Application
	if err := s.db.WithContext(ctx).Joins("Job").First(&application, applicationID).Error; err != nil {
		if isNotFound(err) {
			return "", apperr.NotFound("application not found")
		}
		return "", apperr.Unexpected("failed to load application", err)
	}

	allowed := (viewer.Role == database.RoleStudent && application.StudentID == viewer.AccountID) ||
		(viewer.Role == database.RoleEmployer && application.Job.EmployerID == viewer.AccountID)
	if !allowed {
		return "", apperr.Forbidden("you cannot access this resume")
	}
	if application.ResumeKey == nil || !resume.IsValidObjectKey(application.StudentID, *application.ResumeKey) {
		return "", apperr.NotFound("no resume attached to this application")
	}
	if s.resumes == nil {
		return "", apperr.Unexpected("resume storage unavailable", nil)
	}
	return s.resumes.Link(ctx, *application.ResumeKey)
}

func isApplicationStatus(status string) bool {
	switch status {
	case database.ApplicationPending, database.ApplicationAccepted, database.ApplicationRejected:
		return true
	}
	return false
}

func isTerminal(status string) bool {
	return status == database.ApplicationAccepted || status == database.ApplicationRejected
}
