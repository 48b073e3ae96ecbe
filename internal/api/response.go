package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"careercraft/internal/api/middleware"
	"careercraft/internal/apperr"
	"careercraft/internal/errcode"
)

// statusForKind 将业务错误分类映射为 HTTP 状态码。Conflict 按约定返回 400。
func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindInvalidCredentials, apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message, "code": code})
}

// respondError 输出统一错误体；非预期错误只返回通用文案，原因与堆栈写入请求日志。
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusForKind(kind)

	var appErr *apperr.Error
	message := "internal server error"
	if kind != apperr.KindUnexpected && errors.As(err, &appErr) {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger := middleware.LoggerFromContext(c)
		attrs := []any{slog.Any("error", err)}
		if errors.As(err, &appErr) && len(appErr.Stack) > 0 {
			attrs = append(attrs, slog.String("stack", string(appErr.Stack)))
		}
		logger.Error("request failed", attrs...)
	}

	writeError(c, status, errcode.FromKind(kind), message)
}

func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, errcode.InvalidInput, message)
}

func unauthenticated(c *gin.Context) {
	writeError(c, http.StatusUnauthorized, errcode.Unauthenticated, "authentication required")
}
