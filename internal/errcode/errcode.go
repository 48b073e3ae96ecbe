package errcode

import "careercraft/internal/apperr"

// 错误码约定：
// - 0：无错误
// - 4xxx：调用方可修正的错误（参数、冲突、鉴权、权限、资源缺失、限流）
// - 5xxx：系统错误
const (
	OK                 = 0
	InvalidInput       = 4000
	InvalidCredentials = 4010
	Unauthenticated    = 4011
	Forbidden          = 4030
	ResourceMissing    = 4040
	Conflict           = 4090
	RateLimited        = 4290
	SystemError        = 5000
)

// FromKind 将业务错误分类映射为对外错误码。
func FromKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return InvalidInput
	case apperr.KindConflict:
		return Conflict
	case apperr.KindInvalidCredentials:
		return InvalidCredentials
	case apperr.KindUnauthenticated:
		return Unauthenticated
	case apperr.KindForbidden:
		return Forbidden
	case apperr.KindNotFound:
		return ResourceMissing
	case apperr.KindRateLimited:
		return RateLimited
	default:
		return SystemError
	}
}
