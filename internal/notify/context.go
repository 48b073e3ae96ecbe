package notify

import "context"

type correlationIDKey struct{}

// ContextWithCorrelationID 把请求的 Correlation ID 带入后续异步任务。
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext 取出 Correlation ID，不存在时返回空串。
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}
