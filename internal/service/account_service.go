package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"careercraft/internal/apperr"
	"careercraft/internal/auth"
	"careercraft/internal/database"
	"careercraft/internal/notify"
	"careercraft/internal/telemetry"
)

const duplicateAccountMessage = "an account with this email or username already exists"

// RegisterInput 是注册请求。管理员账号只能通过 cmd/admin 创建。
type RegisterInput struct {
	FirstName      string `json:"firstName" validate:"required,max=100"`
	LastName       string `json:"lastName" validate:"required,max=100"`
	Username       string `json:"username" validate:"required,min=3,max=64,excludesall=@"`
	Email          string `json:"email" validate:"required,email,max=255"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	Role           string `json:"role" validate:"required,oneof=student employer"`
	Phone          string `json:"phone" validate:"max=20"`
	Address        string `json:"address" validate:"max=500"`
	CompanyName    string `json:"companyName" validate:"max=255"`
	College        string `json:"college" validate:"max=255"`
	Course         string `json:"course" validate:"max=255"`
	GraduationYear *int   `json:"graduationYear" validate:"omitempty,min=1950,max=2100"`
}

// ProfileInput 是资料编辑请求；email、username 与 role 不可修改。
type ProfileInput struct {
	FirstName      string `json:"firstName" validate:"required,max=100"`
	LastName       string `json:"lastName" validate:"required,max=100"`
	Phone          string `json:"phone" validate:"max=20"`
	Address        string `json:"address" validate:"max=500"`
	CompanyName    string `json:"companyName" validate:"max=255"`
	College        string `json:"college" validate:"max=255"`
	Course         string `json:"course" validate:"max=255"`
	GraduationYear *int   `json:"graduationYear" validate:"omitempty,min=1950,max=2100"`
}

// ChangePasswordInput 是修改密码请求。
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

// LoginResult 是登录成功后的账号与令牌。
type LoginResult struct {
	Account database.Account
	Session auth.SessionToken
}

// AccountService 负责注册、登录与个人资料。
type AccountService struct {
	db       *gorm.DB
	auth     *auth.AuthService
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewAccountService(db *gorm.DB, authService *auth.AuthService, notifier notify.Notifier, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{db: db, auth: authService, notifier: orDiscard(notifier), logger: logger, now: time.Now}
}

// Register 创建学生或雇主账号，并异步发送欢迎邮件。
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (_ *database.Account, err error) {
	ctx, span := telemetry.Start(ctx, "account.register", attribute.String("role", in.Role))
	defer func() { telemetry.End(span, err) }()

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	// 邮箱与用户名共用登录标识，两个命名空间交叉检查。
	identifiers := []string{in.Email, in.Username}
	var existing int64
	if err := s.db.WithContext(ctx).Model(&database.Account{}).
		Where("email IN ? OR username IN ?", identifiers, identifiers).
		Count(&existing).Error; err != nil {
		return nil, apperr.Unexpected("failed to check existing accounts", err)
	}
	if existing > 0 {
		return nil, apperr.Conflict(duplicateAccountMessage)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Unexpected("failed to hash password", err)
	}

	account := database.Account{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
	}
	applyRoleFields(&account, in.CompanyName, in.College, in.Course, in.GraduationYear)

	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperr.Conflict(duplicateAccountMessage)
		}
		return nil, apperr.Unexpected("failed to create account", err)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.Uint64("account_id", uint64(account.ID)),
		slog.String("role", account.Role),
	)
	s.notifier.Notify(ctx, notify.WelcomeMessage(account))
	return &account, nil
}

// Login 以邮箱或用户名登录。未知账号与密码错误返回相同的错误。
func (s *AccountService) Login(ctx context.Context, identifier, password string) (_ *LoginResult, err error) {
	ctx, span := telemetry.Start(ctx, "account.login")
	defer func() { telemetry.End(span, err) }()

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperr.InvalidInput("identifier and password are required")
	}

	// 用户名不允许包含 @，据此决定按邮箱还是用户名查找，标识只对应一个账号。
	query := s.db.WithContext(ctx).Where("username = ?", identifier)
	if strings.Contains(identifier, "@") {
		query = s.db.WithContext(ctx).Where("email = ?", strings.ToLower(identifier))
	}
	var account database.Account
	err = query.First(&account).Error
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.InvalidCredentials()
		}
		return nil, apperr.Unexpected("failed to load account", err)
	}
	if !auth.CheckPasswordHash(password, account.PasswordHash) {
		return nil, apperr.InvalidCredentials()
	}

	session, err := s.auth.IssueSession(identityOf(account))
	if err != nil {
		return nil, apperr.Unexpected("failed to issue session", err)
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&account).UpdateColumn("updated_at", now).Error; err != nil {
		s.logger.WarnContext(ctx, "refresh login timestamp failed", slog.Any("error", err))
	} else {
		account.UpdatedAt = now
	}

	return &LoginResult{Account: account, Session: session}, nil
}

// Profile 返回账号资料。
func (s *AccountService) Profile(ctx context.Context, accountID uint) (*database.Account, error) {
	var account database.Account
	if err := s.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("account not found")
		}
		return nil, apperr.Unexpected("failed to load account", err)
	}
	return &account, nil
}

// UpdateProfile 更新姓名、联系方式与角色相关字段。
func (s *AccountService) UpdateProfile(ctx context.Context, accountID uint, in ProfileInput) (*database.Account, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	account, err := s.Profile(ctx, accountID)
	if err != nil {
		return nil, err
	}

	account.FirstName = in.FirstName
	account.LastName = in.LastName
	account.Phone = strings.TrimSpace(in.Phone)
	account.Address = strings.TrimSpace(in.Address)
	applyRoleFields(account, in.CompanyName, in.College, in.Course, in.GraduationYear)

	if err := s.db.WithContext(ctx).Model(account).
		Select("first_name", "last_name", "phone", "address", "company_name", "college", "course", "graduation_year").
		Updates(account).Error; err != nil {
		return nil, apperr.Unexpected("failed to update profile", err)
	}
	return account, nil
}

// ChangePassword 校验当前密码后更新，并清除强制改密标记，返回新的令牌。
func (s *AccountService) ChangePassword(ctx context.Context, accountID uint, in ChangePasswordInput) (*auth.SessionToken, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	account, err := s.Profile(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPasswordHash(in.CurrentPassword, account.PasswordHash) {
		return nil, apperr.InvalidInput("current password is incorrect")
	}
	if in.CurrentPassword == in.NewPassword {
		return nil, apperr.InvalidInput("new password must differ from the current password")
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperr.InvalidInput(err.Error())
		}
		return nil, apperr.Unexpected("failed to hash password", err)
	}

	if err := s.db.WithContext(ctx).Model(account).Updates(map[string]any{
		"password_hash":        hash,
		"must_change_password": false,
	}).Error; err != nil {
		return nil, apperr.Unexpected("failed to update password", err)
	}
	account.MustChangePassword = false

	session, err := s.auth.IssueSession(identityOf(*account))
	if err != nil {
		return nil, apperr.Unexpected("failed to issue session", err)
	}
	s.logger.InfoContext(ctx, "password changed", slog.Uint64("account_id", uint64(account.ID)))
	return &session, nil
}

func identityOf(account database.Account) auth.Identity {
	return auth.Identity{
		AccountID:          account.ID,
		Role:               account.Role,
		Email:              account.Email,
		MustChangePassword: account.MustChangePassword,
	}
}

// applyRoleFields 只保留与角色相符的资料字段。
func applyRoleFields(account *database.Account, company, college, course string, graduationYear *int) {
	switch account.Role {
	case database.RoleEmployer:
		account.CompanyName = strings.TrimSpace(company)
		account.College, account.Course, account.GraduationYear = "", "", nil
	case database.RoleStudent:
		account.CompanyName = ""
		account.College = strings.TrimSpace(college)
		account.Course = strings.TrimSpace(course)
		account.GraduationYear = graduationYear
	default:
		account.CompanyName, account.College, account.Course, account.GraduationYear = "", "", "", nil
	}
}
