package service

import (
	"context"
	"log/slog"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"careercraft/internal/apperr"
	"careercraft/internal/database"
)

// JobInput 是发布职位请求。
type JobInput struct {
	Title            string   `json:"title" validate:"required,max=255"`
	Description      string   `json:"description" validate:"required,max=20000"`
	Skills           []string `json:"skills" validate:"max=50,dive,max=100"`
	ExperienceYears  int      `json:"experienceYears" validate:"min=0,max=50"`
	ExperienceMonths int      `json:"experienceMonths" validate:"min=0,max=11"`
	Location         string   `json:"location" validate:"required,max=255"`
	Salary           *string  `json:"salary" validate:"omitempty,max=100"`
}

// JobService 管理职位的发布、列表与上下线。
type JobService struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewJobService(db *gorm.DB, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{db: db, logger: logger}
}

// PostJob 以雇主身份发布职位。
func (s *JobService) PostJob(ctx context.Context, employerID uint, in JobInput) (*JobView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Skills = database.NormalizeSkills(in.Skills)
	in.Salary = trimPtr(in.Salary)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if len(in.Skills) == 0 {
		return nil, apperr.InvalidInput("skills must contain at least one entry")
	}

	var employer database.Account
	if err := s.db.WithContext(ctx).First(&employer, employerID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("employer not found")
		}
		return nil, apperr.Unexpected("failed to load employer", err)
	}

	job := database.Job{
		EmployerID:       employerID,
		Title:            in.Title,
		Description:      in.Description,
		Skills:           datatypes.JSONSlice[string](in.Skills),
		ExperienceYears:  in.ExperienceYears,
		ExperienceMonths: in.ExperienceMonths,
		Location:         in.Location,
		Salary:           in.Salary,
		IsActive:         true,
	}
	if err := s.db.WithContext(ctx).Omit("Employer").Create(&job).Error; err != nil {
		return nil, apperr.Unexpected("failed to create job", err)
	}
	job.Employer = employer

	s.logger.InfoContext(ctx, "job posted",
		slog.Uint64("job_id", uint64(job.ID)),
		slog.Uint64("employer_id", uint64(employerID)),
	)
	view := NewJobView(job)
	return &view, nil
}

// ListJobs 返回职位列表，新发布在前。管理员可以看到已下线的职位。
func (s *JobService) ListJobs(ctx context.Context, viewerRole string) ([]JobView, error) {
	query := s.db.WithContext(ctx).Preload("Employer").Order("created_at DESC, id DESC")
	if viewerRole != database.RoleAdmin {
		query = query.Where("is_active = ?", true)
	}

	var jobs []database.Job
	if err := query.Find(&jobs).Error; err != nil {
		return nil, apperr.Unexpected("failed to list jobs", err)
	}

	views := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, NewJobView(job))
	}
	return views, nil
}

// ListEmployerJobs 返回雇主自己的全部职位及各状态投递数。
func (s *JobService) ListEmployerJobs(ctx context.Context, employerID uint) ([]EmployerJobView, error) {
	var jobs []database.Job
	if err := s.db.WithContext(ctx).Preload("Employer").
		Where("employer_id = ?", employerID).
		Order("created_at DESC, id DESC").
		Find(&jobs).Error; err != nil {
		return nil, apperr.Unexpected("failed to list jobs", err)
	}
	if len(jobs) == 0 {
		return []EmployerJobView{}, nil
	}

	ids := make([]uint, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}

	type statusCount struct {
		JobID  uint
		Status string
		Total  int64
	}
	var counts []statusCount
	if err := s.db.WithContext(ctx).Model(&database.Application{}).
		Select("job_id, status, COUNT(*) AS total").
		Where("job_id IN ?", ids).
		Group("job_id, status").
		Scan(&counts).Error; err != nil {
		return nil, apperr.Unexpected("failed to count applications", err)
	}

	byJob := make(map[uint]*EmployerJobView, len(jobs))
	views := make([]EmployerJobView, len(jobs))
	for i, job := range jobs {
		views[i] = EmployerJobView{JobView: NewJobView(job)}
		byJob[job.ID] = &views[i]
	}
	for _, c := range counts {
		view := byJob[c.JobID]
		if view == nil {
			continue
		}
		view.ApplicationCount += c.Total
		switch c.Status {
		case database.ApplicationPending:
			view.PendingCount += c.Total
		case database.ApplicationAccepted:
			view.AcceptedCount += c.Total
		case database.ApplicationRejected:
			view.RejectedCount += c.Total
		}
	}
	return views, nil
}

// SetJobActive 上线或下线雇主自己的职位。
func (s *JobService) SetJobActive(ctx context.Context, employerID, jobID uint, active bool) (*JobView, error) {
	job, err := s.ownedJob(ctx, employerID, jobID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(job).Update("is_active", active).Error; err != nil {
		return nil, apperr.Unexpected("failed to update job", err)
	}
	job.IsActive = active

	s.logger.InfoContext(ctx, "job visibility changed",
		slog.Uint64("job_id", uint64(job.ID)),
		slog.Bool("active", active),
	)
	view := NewJobView(*job)
	return &view, nil
}

// ownedJob 加载职位并校验归属：不存在返回 NotFound，不属于该雇主返回 Forbidden。
func (s *JobService) ownedJob(ctx context.Context, employerID, jobID uint) (*database.Job, error) {
	return loadOwnedJob(ctx, s.db, employerID, jobID)
}

func loadOwnedJob(ctx context.Context, db *gorm.DB, employerID, jobID uint) (*database.Job, error) {
	var job database.Job
	if err := db.WithContext(ctx).Preload("Employer").First(&job, jobID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("job not found")
		}
		return nil, apperr.Unexpected("failed to load job", err)
	}
	if job.EmployerID != employerID {
		return nil, apperr.Forbidden("you do not own this job")
	}
	return &job, nil
}
