package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API 请求耗时（秒），按路由模板聚合。",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	loginThrottled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "login_throttled_total",
			Help:      "因频率限制或锁定被拒绝的登录次数。",
		},
		[]string{"reason"},
	)

	applicationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "status_changes_total",
			Help:      "雇主对投递作出的状态变更次数。",
		},
		[]string{"status"},
	)
)

// GinMiddleware 采集每个请求的耗时；未匹配路由统一记为 "unmatched"，避免标签爆炸。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// ObserveLoginThrottled 记录一次被节流的登录。
func ObserveLoginThrottled(reason string) {
	loginThrottled.WithLabelValues(reason).Inc()
}

// ObserveStatusChange 记录一次投递状态变更。
func ObserveStatusChange(status string) {
	applicationDecisions.WithLabelValues(status).Inc()
}
