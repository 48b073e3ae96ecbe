package notify

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"careercraft/internal/database"
	"careercraft/internal/tasks"
)

// Message 描述一封待发送的通知邮件。
type Message struct {
	AccountID uint
	Email     string
	Subject   string
	Body      string
	Type      string
}

// Notifier 是业务层看到的通知出口；实现必须吸收所有错误。
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Enqueuer is the subset of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher 先落库一条 pending 通知，再把发送任务投递到队列，由 worker 异步发送。
type Dispatcher struct {
	db     *gorm.DB
	queue  Enqueuer
	logger *slog.Logger
}

// NewDispatcher 构造 Dispatcher。
func NewDispatcher(db *gorm.DB, queue Enqueuer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{db: db, queue: queue, logger: logger}
}

// Notify 记录并投递通知。任何失败只记录日志与通知状态，不向调用方返回。
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	correlationID := CorrelationIDFromContext(ctx)
	log := d.logger.With(
		slog.String("correlation_id", correlationID),
		slog.String("notification_type", msg.Type),
		slog.Uint64("account_id", uint64(msg.AccountID)),
	)

	record := database.Notification{
		AccountID: msg.AccountID,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Type:      msg.Type,
		Status:    database.NotificationPending,
	}
	// 请求取消不应让已提交的业务写入丢失通知记录。
	storeCtx := context.WithoutCancel(ctx)
	if err := d.db.WithContext(storeCtx).Create(&record).Error; err != nil {
		log.Error("record notification failed", slog.Any("error", err))
		return
	}

	task, err := tasks.NewEmailSendTask(record.ID, correlationID)
	if err != nil {
		d.markFailed(storeCtx, log, record.ID, err)
		return
	}

	if _, err := d.queue.EnqueueContext(storeCtx, task, asynq.MaxRetry(0), asynq.Queue(tasks.QueueNotifications)); err != nil {
		d.markFailed(storeCtx, log, record.ID, err)
		return
	}

	log.Info("notification queued", slog.Uint64("notification_id", uint64(record.ID)))
}

func (d *Dispatcher) markFailed(ctx context.Context, log *slog.Logger, id uint, cause error) {
	log.Error("enqueue notification failed", slog.Uint64("notification_id", uint64(id)), slog.Any("error", cause))
	if err := d.db.WithContext(ctx).Model(&database.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     database.NotificationFailed,
			"last_error": cause.Error(),
		}).Error; err != nil {
		log.Error("mark notification failed", slog.Any("error", err))
	}
}
