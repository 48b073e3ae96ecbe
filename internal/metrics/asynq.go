package metrics

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "careercraft"

var (
	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "后台任务处理耗时（秒）。",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"task_type", "result"},
	)

	tasksInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_in_flight",
			Help:      "正在处理的后台任务数。",
		},
		[]string{"task_type"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "delivered_total",
			Help:      "按类型与结果统计的通知发送次数。",
		},
		[]string{"type", "status"},
	)
)

// AsynqMetricsMiddleware 为 worker 记录任务耗时与结果。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			tasksInFlight.WithLabelValues(taskType).Inc()
			defer tasksInFlight.WithLabelValues(taskType).Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			result := "ok"
			if err != nil {
				result = "error"
			}
			taskDuration.WithLabelValues(taskType, result).Observe(time.Since(start).Seconds())
			return err
		})
	}
}

// ObserveNotification 记录一次通知发送结果。
func ObserveNotification(notificationType, status string) {
	notificationsTotal.WithLabelValues(notificationType, status).Inc()
}
