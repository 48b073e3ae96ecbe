package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"careercraft/internal/auth"
	"careercraft/internal/errcode"
)

const principalKey = "principal"

func abortWith(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message, "code": code})
}

// AuthMiddleware 校验 Bearer 令牌并把 Principal 注入上下文。
// 缺少或格式错误的 Authorization 头返回 401；签名错误或过期的令牌返回 403。
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.Fields(c.GetHeader("Authorization"))
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWith(c, http.StatusUnauthorized, errcode.Unauthenticated, "authentication required")
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			LoggerFromContext(c).Info("rejected session token", slog.Any("error", err))
			abortWith(c, http.StatusForbidden, errcode.Forbidden, "invalid or expired token")
			return
		}

		c.Set(principalKey, auth.Identity{
			AccountID:          claims.AccountID,
			Role:               claims.Role,
			Email:              claims.Email,
			MustChangePassword: claims.MustChangePassword,
		})
		c.Next()
	}
}

// PrincipalFromContext 返回已认证的身份。
func PrincipalFromContext(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

// RequireRoles 只放行角色在列表内的请求。
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			abortWith(c, http.StatusUnauthorized, errcode.Unauthenticated, "authentication required")
			return
		}
		if _, ok := allowed[principal.Role]; !ok {
			abortWith(c, http.StatusForbidden, errcode.Forbidden, "access denied for role "+principal.Role)
			return
		}
		c.Next()
	}
}
