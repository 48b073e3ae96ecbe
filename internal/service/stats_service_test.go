package service

import (
	"context"
	"testing"

	"careercraft/internal/apperr"
	"careercraft/internal/database"
	"careercraft/internal/database/dbtest"
)

func TestEmployerAndStudentStats(t *testing.T) {
	db := dbtest.Open(t)
	stats := NewStatsService(db)
	apps := NewApplicationService(db, nil, nil, nil)
	employer := seedAccount(t, db, database.RoleEmployer, "acme")
	idle := seedAccount(t, db, database.RoleEmployer, "idle")
	jobA := seedJob(t, db, employer.ID, "A", true)
	jobB := seedJob(t, db, employer.ID, "B", true)
	seedJob(t, db, employer.ID, "C", false)
	ctx := context.Background()

	student := seedAccount(t, db, database.RoleStudent, "sam")
	peer := seedAccount(t, db, database.RoleStudent, "pat")

	a1, err := apps.Apply(ctx, student.ID, ApplyInput{JobID: jobA.ID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := apps.Apply(ctx, student.ID, ApplyInput{JobID: jobB.ID}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	a3, err := apps.Apply(ctx, peer.ID, ApplyInput{JobID: jobA.ID})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := apps.UpdateStatus(ctx, employer.ID, a1.ID, StatusInput{Status: database.ApplicationAccepted}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := apps.UpdateStatus(ctx, employer.ID, a3.ID, StatusInput{Status: database.ApplicationRejected}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	got, err := stats.Employer(ctx, employer.ID)
	if err != nil {
		t.Fatalf("employer stats: %v", err)
	}
	want := EmployerStats{TotalJobs: 3, TotalApplications: 3, PendingApplications: 1, AcceptedApplications: 1, RejectedApplications: 1}
	if *got != want {
		t.Fatalf("employer stats = %+v, want %+v", *got, want)
	}

	var live int64
	db.Model(&database.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("jobs.employer_id = ?", employer.ID).
		Count(&live)
	if got.TotalApplications != live {
		t.Fatalf("total applications %d differs from live count %d", got.TotalApplications, live)
	}

	empty, err := stats.Employer(ctx, idle.ID)
	if err != nil {
		t.Fatalf("idle stats: %v", err)
	}
	if *empty != (EmployerStats{}) {
		t.Fatalf("expected zero stats, got %+v", *empty)
	}

	mine, err := stats.Student(ctx, student.ID)
	if err != nil {
		t.Fatalf("student stats: %v", err)
	}
	if *mine != (StudentStats{TotalApplications: 2, PendingApplications: 1, AcceptedApplications: 1}) {
		t.Fatalf("student stats = %+v", *mine)
	}
}

func TestPlatformStats(t *testing.T) {
	db := dbtest.Open(t)
	employer := seedAccount(t, db, database.RoleEmployer, "acme")
	seedAccount(t, db, database.RoleStudent, "sam")
	seedAccount(t, db, database.RoleAdmin, "root")
	seedJob(t, db, employer.ID, "Open", true)
	seedJob(t, db, employer.ID, "Closed", false)
	db.Create(&database.Notification{AccountID: employer.ID, Email: "x@example.com", Subject: "s", Body: "b", Type: "registration", Status: database.NotificationFailed})

	got, err := NewStatsService(db).Platform(context.Background())
	if err != nil {
		t.Fatalf("platform stats: %v", err)
	}
	if got.AccountsByRole[database.RoleStudent] != 1 || got.AccountsByRole[database.RoleEmployer] != 1 || got.AccountsByRole[database.RoleAdmin] != 1 {
		t.Fatalf("accounts by role = %v", got.AccountsByRole)
	}
	if got.TotalJobs != 2 || got.ActiveJobs != 1 {
		t.Fatalf("jobs total=%d active=%d", got.TotalJobs, got.ActiveJobs)
	}
	if v, ok := got.ApplicationsByStatus[database.ApplicationPending]; !ok || v != 0 {
		t.Fatalf("known statuses must be present with zero, got %v", got.ApplicationsByStatus)
	}
	if got.NotificationsByStatus[database.NotificationFailed] != 1 {
		t.Fatalf("notifications = %v", got.NotificationsByStatus)
	}
}

func TestAdminListings(t *testing.T) {
	db := dbtest.Open(t)
	admin := NewAdminService(db)
	employer := seedAccount(t, db, database.RoleEmployer, "acme")
	student := seedAccount(t, db, database.RoleStudent, "sam")
	job := seedJob(t, db, employer.ID, "Dev", true)
	if _, err := NewApplicationService(db, nil, nil, nil).Apply(context.Background(), student.ID, ApplyInput{JobID: job.ID}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for _, status := range []string{database.NotificationSent, database.NotificationFailed, database.NotificationFailed} {
		db.Create(&database.Notification{AccountID: student.ID, Email: student.Email, Subject: "s", Body: "b", Type: "registration", Status: status})
	}
	ctx := context.Background()

	students, err := admin.ListAccounts(ctx, database.RoleStudent)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(students) != 1 || students[0].Username != "sam" {
		t.Fatalf("unexpected accounts %+v", students)
	}
	if _, err := admin.ListAccounts(ctx, "superuser"); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	applications, err := admin.ListApplications(ctx)
	if err != nil {
		t.Fatalf("list applications: %v", err)
	}
	if len(applications) != 1 || applications[0].JobTitle != "Dev" || applications[0].StudentEmail != student.Email {
		t.Fatalf("unexpected applications %+v", applications)
	}

	failed, err := admin.ListNotifications(ctx, database.NotificationFailed, 0)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("expected two failed notifications, got %d", len(failed))
	}
	limited, err := admin.ListNotifications(ctx, "", 1)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied, got %d", len(limited))
	}
}
