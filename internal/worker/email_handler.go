package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"careercraft/internal/database"
	"careercraft/internal/mail"
	"careercraft/internal/metrics"
	"careercraft/internal/tasks"
)

// EmailTaskHandler 消费 email:send 任务，并把发送结果写回通知记录。
type EmailTaskHandler struct {
	db     *gorm.DB
	sender mail.Sender
	logger *slog.Logger
	now    func() time.Time
}

// NewEmailTaskHandler 创建任务处理器。
func NewEmailTaskHandler(db *gorm.DB, sender mail.Sender, logger *slog.Logger) *EmailTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailTaskHandler{db: db, sender: sender, logger: logger, now: time.Now}
}

// ProcessTask 实现 asynq.Handler。发送失败不重试。
func (h *EmailTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.EmailSendPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("notification_id", uint64(payload.NotificationID)),
	)

	var record database.Notification
	if err := h.db.WithContext(ctx).First(&record, payload.NotificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("notification not found, skipping task")
			return nil
		}
		log.Error("query notification failed", slog.Any("error", err))
		return err
	}

	if record.Status != database.NotificationPending {
		log.Info("notification already processed", slog.String("status", record.Status))
		return nil
	}

	if err := h.sender.Send(ctx, record.Email, record.Subject, record.Body); err != nil {
		log.Error("send email failed", slog.Any("error", err))
		metrics.ObserveNotification(record.Type, database.NotificationFailed)
		if updateErr := h.updateStatus(ctx, record.ID, map[string]any{
			"status":     database.NotificationFailed,
			"last_error": err.Error(),
		}); updateErr != nil {
			log.Error("mark notification failed", slog.Any("error", updateErr))
		}
		return fmt.Errorf("send email: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.updateStatus(ctx, record.ID, map[string]any{
		"status":     database.NotificationSent,
		"last_error": "",
		"sent_at":    h.now(),
	}); err != nil {
		log.Error("mark notification sent", slog.Any("error", err))
		return fmt.Errorf("update notification: %v: %w", err, asynq.SkipRetry)
	}

	metrics.ObserveNotification(record.Type, database.NotificationSent)
	log.Info("notification sent", slog.String("type", record.Type))
	return nil
}

func (h *EmailTaskHandler) updateStatus(ctx context.Context, id uint, values map[string]any) error {
	return h.db.WithContext(ctx).Model(&database.Notification{}).Where("id = ?", id).Updates(values).Error
}
