package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hibiken/asynq"

	"careercraft/internal/database"
	"careercraft/internal/database/dbtest"
	"careercraft/internal/tasks"
)

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: tasks.QueueNotifications}, nil
}

func TestDispatcherRecordsAndEnqueues(t *testing.T) {
	db := dbtest.Open(t)
	queue := &fakeQueue{}
	d := NewDispatcher(db, queue, nil)

	ctx := ContextWithCorrelationID(context.Background(), "corr-1")
	d.Notify(ctx, WelcomeMessage(database.Account{FirstName: "Sam", Email: "sam@example.com", Role: "student"}))

	var records []database.Notification
	if err := db.Find(&records).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one notification, got %d", len(records))
	}
	if records[0].Status != database.NotificationPending {
		t.Fatalf("expected pending, got %s", records[0].Status)
	}
	if len(queue.tasks) != 1 || queue.tasks[0].Type() != tasks.TypeEmailSend {
		t.Fatalf("expected one email task, got %+v", queue.tasks)
	}
	if !strings.Contains(string(queue.tasks[0].Payload()), `"correlation_id":"corr-1"`) {
		t.Fatalf("payload missing correlation id: %s", queue.tasks[0].Payload())
	}
}

func TestDispatcherMarksFailedWhenQueueUnavailable(t *testing.T) {
	db := dbtest.Open(t)
	d := NewDispatcher(db, &fakeQueue{err: errors.New("redis down")}, nil)

	d.Notify(context.Background(), Message{AccountID: 3, Email: "x@example.com", Subject: "s", Body: "b", Type: TypeRegistration})

	var record database.Notification
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("load notification: %v", err)
	}
	if record.Status != database.NotificationFailed {
		t.Fatalf("expected failed, got %s", record.Status)
	}
	if record.LastError != "redis down" {
		t.Fatalf("unexpected last error %q", record.LastError)
	}
}

func TestStatusMessageEscapesNotes(t *testing.T) {
	msg := StatusMessage(database.Account{FirstName: "Kim", Email: "kim@example.com"}, "Data Analyst", "accepted", "<b>welcome</b>")
	if strings.Contains(msg.Body, "<b>welcome</b>") {
		t.Fatalf("notes must be escaped: %s", msg.Body)
	}
	if msg.Type != TypeApplicationStatus || msg.Email != "kim@example.com" {
		t.Fatalf("unexpected message %+v", msg)
	}
}
