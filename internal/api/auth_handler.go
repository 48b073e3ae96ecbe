package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"careercraft/internal/api/middleware"
	"careercraft/internal/apperr"
	"careercraft/internal/service"
)

// AuthHandler 处理注册、登录、个人资料与改密。
type AuthHandler struct {
	accounts *service.AccountService
	throttle *LoginThrottle
	logger   *slog.Logger
}

// NewAuthHandler 构造认证处理器；throttle 为空时不做登录节流。
func NewAuthHandler(accounts *service.AccountService, throttle *LoginThrottle, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, throttle: throttle, logger: logger}
}

type sessionResponse struct {
	User      service.AccountView `json:"user"`
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

// Register 创建学生或雇主账号。
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "registration successful",
		"user":    service.NewAccountView(*account),
	})
}

// loginRequest 接受 identifier，也兼容旧客户端直接提交 email 或 username。
type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (r loginRequest) identifier() string {
	for _, v := range []string{r.Identifier, r.Email, r.Username} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Login 校验口令并签发会话令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	identifier := req.identifier()
	if identifier == "" || req.Password == "" {
		badRequest(c, "identifier and password are required")
		return
	}

	ctx := c.Request.Context()
	if h.throttle != nil {
		if err := h.throttle.Allow(ctx, c.ClientIP(), identifier); err != nil {
			respondError(c, err)
			return
		}
	}

	result, err := h.accounts.Login(ctx, identifier, req.Password)
	if err != nil {
		if h.throttle != nil && apperr.Is(err, apperr.KindInvalidCredentials) {
			h.throttle.RecordFailure(ctx, identifier)
		}
		middleware.LoggerFromContext(c).Info("login failed", slog.String("kind", string(apperr.KindOf(err))))
		respondError(c, err)
		return
	}
	if h.throttle != nil {
		h.throttle.Reset(ctx, identifier)
	}

	c.JSON(http.StatusOK, sessionResponse{
		User:      service.NewAccountView(result.Account),
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt,
	})
}

// Profile 返回当前账号资料。
func (h *AuthHandler) Profile(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	account, err := h.accounts.Profile(c.Request.Context(), principal.AccountID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": service.NewAccountView(*account)})
}

// UpdateProfile 修改当前账号资料。
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req service.ProfileInput
	if !bindJSON(c, &req) {
		return
	}
	account, err := h.accounts.UpdateProfile(c.Request.Context(), principal.AccountID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": service.NewAccountView(*account)})
}

// ChangePassword 校验当前密码后更新，并返回新的令牌。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	principal, ok := principalFromContext(c)
	if !ok {
		return
	}
	var req service.ChangePasswordInput
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.accounts.ChangePassword(c.Request.Context(), principal.AccountID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "password updated",
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
	})
}
