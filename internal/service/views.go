package service

import (
	"time"

	"careercraft/internal/database"
)

// AccountView 是账号对外展示的字段，不含密码哈希。
type AccountView struct {
	ID                 uint      `json:"id"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	Username           string    `json:"username"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	MustChangePassword bool      `json:"mustChangePassword"`
	Phone              string    `json:"phone,omitempty"`
	Address            string    `json:"address,omitempty"`
	CompanyName        string    `json:"companyName,omitempty"`
	College            string    `json:"college,omitempty"`
	Course             string    `json:"course,omitempty"`
	GraduationYear     *int      `json:"graduationYear,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func NewAccountView(a database.Account) AccountView {
	return AccountView{
		ID:                 a.ID,
		FirstName:          a.FirstName,
		LastName:           a.LastName,
		Username:           a.Username,
		Email:              a.Email,
		Role:               a.Role,
		MustChangePassword: a.MustChangePassword,
		Phone:              a.Phone,
		Address:            a.Address,
		CompanyName:        a.CompanyName,
		College:            a.College,
		Course:             a.Course,
		GraduationYear:     a.GraduationYear,
		CreatedAt:          a.CreatedAt,
	}
}

// JobView 是职位列表中的一项。
type JobView struct {
	ID               uint      `json:"id"`
	EmployerID       uint      `json:"employerId"`
	EmployerName     string    `json:"employerName"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Skills           []string  `json:"skills"`
	ExperienceYears  int       `json:"experienceYears"`
	ExperienceMonths int       `json:"experienceMonths"`
	Location         string    `json:"location"`
	Salary           *string   `json:"salary,omitempty"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
}

func NewJobView(j database.Job) JobView {
	skills := []string(j.Skills)
	if skills == nil {
		skills = []string{}
	}
	return JobView{
		ID:               j.ID,
		EmployerID:       j.EmployerID,
		EmployerName:     j.Employer.DisplayName(),
		Title:            j.Title,
		Description:      j.Description,
		Skills:           skills,
		ExperienceYears:  j.ExperienceYears,
		ExperienceMonths: j.ExperienceMonths,
		Location:         j.Location,
		Salary:           j.Salary,
		IsActive:         j.IsActive,
		CreatedAt:        j.CreatedAt,
	}
}

// EmployerJobView 在职位信息上附带投递计数。
type EmployerJobView struct {
	JobView
	ApplicationCount int64 `json:"applicationCount"`
	PendingCount     int64 `json:"pendingCount"`
	AcceptedCount    int64 `json:"acceptedCount"`
	RejectedCount    int64 `json:"rejectedCount"`
}

// ApplicationView 是单条投递记录。
type ApplicationView struct {
	ID              uint       `json:"id"`
	JobID           uint       `json:"jobId"`
	StudentID       uint       `json:"studentId"`
	Status          string     `json:"status"`
	CoverLetter     *string    `json:"coverLetter,omitempty"`
	HasResume       bool       `json:"hasResume"`
	EmployerNotes   *string    `json:"employerNotes,omitempty"`
	AppliedAt       time.Time  `json:"appliedAt"`
	StatusUpdatedAt *time.Time `json:"statusUpdatedAt,omitempty"`
}

func NewApplicationView(a database.Application) ApplicationView {
	return ApplicationView{
		ID:              a.ID,
		JobID:           a.JobID,
		StudentID:       a.StudentID,
		Status:          a.Status,
		CoverLetter:     a.CoverLetter,
		HasResume:       a.ResumeKey != nil,
		EmployerNotes:   a.EmployerNotes,
		AppliedAt:       a.AppliedAt,
		StatusUpdatedAt: a.StatusUpdatedAt,
	}
}

// StudentApplicationView 是学生视角的投递，附带职位与雇主信息。
type StudentApplicationView struct {
	ApplicationView
	JobTitle     string `json:"jobTitle"`
	JobLocation  string `json:"jobLocation"`
	EmployerName string `json:"employerName"`
}

// ApplicantView 是雇主视角的投递，附带学生资料。
type ApplicantView struct {
	ApplicationView
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	College        string `json:"college,omitempty"`
	Course         string `json:"course,omitempty"`
	GraduationYear *int   `json:"graduationYear,omitempty"`
}

// AdminApplicationView 是管理员视角的投递。
type AdminApplicationView struct {
	ApplicationView
	JobTitle     string `json:"jobTitle"`
	EmployerName string `json:"employerName"`
	StudentName  string `json:"studentName"`
	StudentEmail string `json:"studentEmail"`
}

// NotificationView 是通知日志中的一条记录。
type NotificationView struct {
	ID        uint       `json:"id"`
	AccountID uint       `json:"accountId"`
	Email     string     `json:"email"`
	Subject   string     `json:"subject"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	LastError string     `json:"lastError,omitempty"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
