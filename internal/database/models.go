package database

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 角色取值。
const (
	RoleStudent  = "student"
	RoleEmployer = "employer"
	RoleAdmin    = "admin"
)

// 投递状态取值。
const (
	ApplicationPending  = "pending"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)

// 通知状态取值。
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Account 表示系统中的账号信息（学生、雇主或管理员）。
type Account struct {
	gorm.Model
	FirstName          string `gorm:"size:100;not null"`
	LastName           string `gorm:"size:100;not null"`
	Username           string `gorm:"uniqueIndex;size:64;not null"`
	Email              string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash       string `gorm:"size:255;not null"`
	Role               string `gorm:"size:16;not null;index;check:chk_accounts_role,role IN ('student','employer','admin')"`
	MustChangePassword bool   `gorm:"not null;default:false"`
	Phone              string `gorm:"size:20"`
	Address            string `gorm:"type:text"`
	CompanyName        string `gorm:"size:255"`
	College            string `gorm:"size:255"`
	Course             string `gorm:"size:255"`
	GraduationYear     *int
}

// DisplayName 返回雇主对外展示名：优先公司名，否则回落到个人姓名。
func (a Account) DisplayName() string {
	if name := strings.TrimSpace(a.CompanyName); name != "" {
		return name
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Job 表示雇主发布的职位；EmployerID 创建后不可变更。
type Job struct {
	gorm.Model
	EmployerID       uint                        `gorm:"not null;index;<-:create"`
	Employer         Account                     `gorm:"foreignKey:EmployerID;constraint:OnDelete:CASCADE"`
	Title            string                      `gorm:"size:255;not null"`
	Description      string                      `gorm:"type:text;not null"`
	Skills           datatypes.JSONSlice[string] `gorm:"not null"`
	ExperienceYears  int                         `gorm:"not null;default:0"`
	ExperienceMonths int                         `gorm:"not null;default:0"`
	Location         string                      `gorm:"size:255;not null"`
	Salary           *string                     `gorm:"size:100"`
	IsActive         bool                        `gorm:"not null;default:true;index"`
}

// Application 表示学生对某个职位的一次投递，(JobID, StudentID) 唯一。
type Application struct {
	gorm.Model
	JobID           uint      `gorm:"not null;uniqueIndex:idx_applications_job_student,priority:1"`
	Job             Job       `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	StudentID       uint      `gorm:"not null;uniqueIndex:idx_applications_job_student,priority:2;index"`
	Student         Account   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	ResumeKey       *string   `gorm:"size:512"`
	CoverLetter     *string   `gorm:"type:text"`
	Status          string    `gorm:"size:16;not null;default:pending;index;check:chk_applications_status,status IN ('pending','accepted','rejected')"`
	EmployerNotes   *string   `gorm:"type:text"`
	AppliedAt       time.Time `gorm:"not null"`
	StatusUpdatedAt *time.Time
}

// Notification 是外发邮件的持久化记录，由 worker 更新为 sent/failed。
type Notification struct {
	gorm.Model
	AccountID uint   `gorm:"not null;index"`
	Email     string `gorm:"size:255;not null"`
	Subject   string `gorm:"size:500;not null"`
	Body      string `gorm:"type:text;not null"`
	Type      string `gorm:"size:64;not null;index"`
	Status    string `gorm:"size:16;not null;default:pending;index;check:chk_notifications_status,status IN ('pending','sent','failed')"`
	LastError string `gorm:"type:text"`
	SentAt    *time.Time
}

// Models 列出需要 AutoMigrate 的全部模型，顺序满足外键依赖。
func Models() []any {
	return []any{&Account{}, &Job{}, &Application{}, &Notification{}}
}

// NormalizeSkills 去除空白与空项，按大小写不敏感去重，保留首次出现的写法与顺序。
func NormalizeSkills(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, skill := range raw {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}
