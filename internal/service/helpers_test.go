package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"careercraft/internal/auth"
	"careercraft/internal/database"
	"careercraft/internal/notify"
	"careercraft/internal/resume"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) sent() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.messages...)
}

type fakeResumes struct {
	mu        sync.Mutex
	saved     map[string][]byte
	discarded []string
	seq       int
}

func newFakeResumes() *fakeResumes {
	return &fakeResumes{saved: map[string][]byte{}}
}

func (f *fakeResumes) Save(_ context.Context, studentID uint, upload resume.Upload) (string, error) {
	data, err := io.ReadAll(upload.Content)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	key := fmt.Sprintf("resumes/%d/test-%d.pdf", studentID, f.seq)
	f.saved[key] = data
	return key, nil
}

func (f *fakeResumes) Discard(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, key)
	f.discarded = append(f.discarded, key)
	return nil
}

func (f *fakeResumes) Link(_ context.Context, key string) (string, error) {
	return "https://files.example.com/" + key, nil
}

func newAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	svc, err := auth.NewAuthService([]byte(testSecret), 24*time.Hour)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return svc
}

// seedAccount 直接写库，跳过 bcrypt 以保持测试速度。
func seedAccount(t *testing.T, db *gorm.DB, role, username string) database.Account {
	t.Helper()
	account := database.Account{
		FirstName:    "Test",
		LastName:     username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
		Role:         role,
	}
	if role == database.RoleEmployer {
		account.CompanyName = username + " Ltd"
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed account %s: %v", username, err)
	}
	return account
}

func seedJob(t *testing.T, db *gorm.DB, employerID uint, title string, active bool) database.Job {
	t.Helper()
	job := database.Job{
		EmployerID:  employerID,
		Title:       title,
		Description: "Build things",
		Skills:      datatypes.JSONSlice[string]{"Go"},
		Location:    "Remote",
		IsActive:    true,
	}
	if err := db.Omit("Employer").Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	if !active {
		if err := db.Model(&job).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate job: %v", err)
		}
		job.IsActive = false
	}
	return job
}
