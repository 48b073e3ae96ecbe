package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeEmailSend = "email:send"

	QueueNotifications = "notifications"
)

// EmailSendPayload 只携带通知记录 ID，邮件内容以数据库中的记录为准。
type EmailSendPayload struct {
	NotificationID uint   `json:"notification_id"`
	CorrelationID  string `json:"correlation_id"`
}

// NewEmailSendTask 构造一个新的邮件发送任务。
func NewEmailSendTask(notificationID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(EmailSendPayload{
		NotificationID: notificationID,
		CorrelationID:  correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailSend, payload), nil
}
