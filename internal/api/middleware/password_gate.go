package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careercraft/internal/errcode"
)

// RequirePasswordChangeCompletedMiddleware 阻止未完成改密的账号访问业务接口。
// 仅依赖令牌内的 must_change_password 声明，不查库。
func RequirePasswordChangeCompletedMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, ok := PrincipalFromContext(c); ok && principal.MustChangePassword {
			abortWith(c, http.StatusForbidden, errcode.Forbidden, "password change required")
			return
		}
		c.Next()
	}
}
