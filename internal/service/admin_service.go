package service

import (
	"context"

	"gorm.io/gorm"

	"careercraft/internal/apperr"
	"careercraft/internal/database"
)

const maxNotificationPage = 200

// AdminService 提供只读的全站视图。
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// ListAccounts 列出账号，可按角色过滤。
func (s *AdminService) ListAccounts(ctx context.Context, role string) ([]AccountView, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if role != "" {
		switch role {
		case database.RoleStudent, database.RoleEmployer, database.RoleAdmin:
			query = query.Where("role = ?", role)
		default:
			return nil, apperr.InvalidInput("role must be one of: student, employer, admin")
		}
	}

	var accounts []database.Account
	if err := query.Find(&accounts).Error; err != nil {
		return nil, apperr.Unexpected("failed to list accounts", err)
	}
	views := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, NewAccountView(a))
	}
	return views, nil
}

// ListApplications 列出全部投递及其职位与学生。
func (s *AdminService) ListApplications(ctx context.Context) ([]AdminApplicationView, error) {
	var applications []database.Application
	if err := s.db.WithContext(ctx).
		Preload("Job.Employer").
		Preload("Student").
		Order("applied_at DESC, id DESC").
		Find(&applications).Error; err != nil {
		return nil, apperr.Unexpected("failed to list applications", err)
	}

	views := make([]AdminApplicationView, 0, len(applications))
	for _, a := range applications {
		views = append(views, AdminApplicationView{
			ApplicationView: NewApplicationView(a),
			JobTitle:        a.Job.Title,
			EmployerName:    a.Job.Employer.DisplayName(),
			StudentName:     a.Student.FirstName + " " + a.Student.LastName,
			StudentEmail:    a.Student.Email,
		})
	}
	return views, nil
}

// ListNotifications 返回通知日志，新记录在前，limit 上限 200。
func (s *AdminService) ListNotifications(ctx context.Context, status string, limit int) ([]NotificationView, error) {
	if limit <= 0 || limit > maxNotificationPage {
		limit = maxNotificationPage
	}
	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if status != "" {
		switch status {
		case database.NotificationPending, database.NotificationSent, database.NotificationFailed:
			query = query.Where("status = ?", status)
		default:
			return nil, apperr.InvalidInput("status must be one of: pending, sent, failed")
		}
	}

	var records []database.Notification
	if err := query.Find(&records).Error; err != nil {
		return nil, apperr.Unexpected("failed to list notifications", err)
	}
	views := make([]NotificationView, 0, len(records))
	for _, n := range records {
		views = append(views, NotificationView{
			ID:        n.ID,
			AccountID: n.AccountID,
			Email:     n.Email,
			Subject:   n.Subject,
			Type:      n.Type,
			Status:    n.Status,
			LastError: n.LastError,
			SentAt:    n.SentAt,
			CreatedAt: n.CreatedAt,
		})
	}
	return views, nil
}
