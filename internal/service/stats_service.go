package service

import (
	"context"

	"gorm.io/gorm"

	"careercraft/internal/apperr"
	"careercraft/internal/database"
)

// EmployerStats 汇总雇主的职位与投递数。
type EmployerStats struct {
	TotalJobs            int64 `json:"totalJobs"`
	TotalApplications    int64 `json:"totalApplications"`
	PendingApplications  int64 `json:"pendingApplications"`
	AcceptedApplications int64 `json:"acceptedApplications"`
	RejectedApplications int64 `json:"rejectedApplications"`
}

// StudentStats 汇总学生的投递数。
type StudentStats struct {
	TotalApplications    int64 `json:"totalApplications"`
	PendingApplications  int64 `json:"pendingApplications"`
	AcceptedApplications int64 `json:"acceptedApplications"`
	RejectedApplications int64 `json:"rejectedApplications"`
}

// PlatformStats 是管理员看板数据。
type PlatformStats struct {
	AccountsByRole        map[string]int64 `json:"accountsByRole"`
	TotalJobs             int64            `json:"totalJobs"`
	ActiveJobs            int64            `json:"activeJobs"`
	ApplicationsByStatus  map[string]int64 `json:"applicationsByStatus"`
	NotificationsByStatus map[string]int64 `json:"notificationsByStatus"`
}

// StatsService 每次调用都实时统计，不做缓存。
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

const employerStatsSQL = `
SELECT
	COUNT(DISTINCT j.id) AS total_jobs,
	COUNT(DISTINCT a.id) AS total_applications,
	COUNT(DISTINCT CASE WHEN a.status = 'pending' THEN a.id END) AS pending_applications,
	COUNT(DISTINCT CASE WHEN a.status = 'accepted' THEN a.id END) AS accepted_applications,
	COUNT(DISTINCT CASE WHEN a.status = 'rejected' THEN a.id END) AS rejected_applications
FROM jobs j
LEFT JOIN applications a ON a.job_id = j.id AND a.deleted_at IS NULL
WHERE j.employer_id = ? AND j.deleted_at IS NULL`

const studentStatsSQL = `
SELECT
	COUNT(*) AS total_applications,
	COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending_applications,
	COUNT(CASE WHEN status = 'accepted' THEN 1 END) AS accepted_applications,
	COUNT(CASE WHEN status = 'rejected' THEN 1 END) AS rejected_applications
FROM applications
WHERE student_id = ? AND deleted_at IS NULL`

// Employer 返回雇主统计。
func (s *StatsService) Employer(ctx context.Context, employerID uint) (*EmployerStats, error) {
	var stats EmployerStats
	if err := s.db.WithContext(ctx).Raw(employerStatsSQL, employerID).Scan(&stats).Error; err != nil {
		return nil, apperr.Unexpected("failed to compute employer stats", err)
	}
	return &stats, nil
}

// Student 返回学生统计。
func (s *StatsService) Student(ctx context.Context, studentID uint) (*StudentStats, error) {
	var stats StudentStats
	if err := s.db.WithContext(ctx).Raw(studentStatsSQL, studentID).Scan(&stats).Error; err != nil {
		return nil, apperr.Unexpected("failed to compute student stats", err)
	}
	return &stats, nil
}

// Platform 返回全站统计，已知取值即使为零也会出现在结果中。
func (s *StatsService) Platform(ctx context.Context) (*PlatformStats, error) {
	db := s.db.WithContext(ctx)
	stats := PlatformStats{}

	var err error
	if stats.AccountsByRole, err = countBy(db, &database.Account{}, "role",
		database.RoleStudent, database.RoleEmployer, database.RoleAdmin); err != nil {
		return nil, apperr.Unexpected("failed to count accounts", err)
	}
	if stats.ApplicationsByStatus, err = countBy(db, &database.Application{}, "status",
		database.ApplicationPending, database.ApplicationAccepted, database.ApplicationRejected); err != nil {
		return nil, apperr.Unexpected("failed to count applications", err)
	}
	if stats.NotificationsByStatus, err = countBy(db, &database.Notification{}, "status",
		database.NotificationPending, database.NotificationSent, database.NotificationFailed); err != nil {
		return nil, apperr.Unexpected("failed to count notifications", err)
	}

	var jobs struct {
		Total  int64
		Active int64
	}
	if err := db.Model(&database.Job{}).
		Select("COUNT(*) AS total, COUNT(CASE WHEN is_active THEN 1 END) AS active").
		Scan(&jobs).Error; err != nil {
		return nil, apperr.Unexpected("failed to count jobs", err)
	}
	stats.TotalJobs = jobs.Total
	stats.ActiveJobs = jobs.Active
	return &stats, nil
}

func countBy(db *gorm.DB, model any, column string, known ...string) (map[string]int64, error) {
	type row struct {
		Label string
		Total int64
	}
	var rows []row
	if err := db.Model(model).
		Select(column + " AS label, COUNT(*) AS total").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(known))
	for _, k := range known {
		out[k] = 0
	}
	for _, r := range rows {
		out[r.Label] = r.Total
	}
	return out, nil
}
