package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"careercraft/internal/errcode"
)

// InternalSecretMiddleware 保护仅供内部抓取的端点（如 /metrics）。
func InternalSecretMiddleware(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	return func(c *gin.Context) {
		if secret == "" {
			abortWith(c, http.StatusNotFound, errcode.ResourceMissing, "not found")
			return
		}
		// 密钥只从 Header 读取，避免出现在 URL 与访问日志中。
		token := strings.TrimSpace(c.GetHeader("X-Internal-Secret"))
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			abortWith(c, http.StatusUnauthorized, errcode.Unauthenticated, "unauthorized")
			return
		}
		c.Next()
	}
}
