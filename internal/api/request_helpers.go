package api

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"careercraft/internal/api/middleware"
	"careercraft/internal/auth"
)

func principalFromContext(c *gin.Context) (auth.Identity, bool) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok || principal.AccountID == 0 {
		unauthenticated(c)
		return auth.Identity{}, false
	}
	return principal, true
}

// uintParam 解析路径参数中的正整数 ID。
func uintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || value == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(value), true
}

// bindJSON 解析请求体；未知字段与类型错误都返回 400。
func bindJSON(c *gin.Context, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		if errors.Is(err, io.EOF) {
			badRequest(c, "request body is required")
			return false
		}
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
