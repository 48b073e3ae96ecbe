package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"careercraft/internal/auth"
	"careercraft/internal/config"
	"careercraft/internal/database"
	"careercraft/internal/database/dbtest"
	"careercraft/internal/notify"
	"careercraft/internal/resume"
	"careercraft/internal/service"
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryObjects) PutObject(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryObjects) RemoveObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryObjects) PresignedGetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.example.com/" + key, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	objects  *memoryObjects
	notifier *recordingNotifier
	auth     *auth.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authService, err := auth.NewAuthService([]byte("0123456789abcdef0123456789abcdef"), 24*time.Hour)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	objects := &memoryObjects{objects: map[string][]byte{}}
	notifier := &recordingNotifier{}

	cfg := &config.Config{API: config.APIConfig{MaxUploadBytes: resume.MaxSize, CORSOrigins: "http://localhost:3000"}}
	router := NewRouter(cfg, logger)

	jobs := service.NewJobService(db, logger)
	stats := service.NewStatsService(db)
	RegisterRoutes(router, authService, Handlers{
		Auth:         NewAuthHandler(service.NewAccountService(db, authService, notifier, logger), nil, logger),
		Jobs:         NewJobHandler(jobs),
		Applications: NewApplicationHandler(service.NewApplicationService(db, resume.NewStore(objects, nil, 0), notifier, logger), resume.MaxSize),
		Stats:        NewStatsHandler(stats),
		Admin:        NewAdminHandler(service.NewAdminService(db), jobs, stats),
	})

	return &testServer{router: router, db: db, objects: objects, notifier: notifier, auth: authService}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (int, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	decoded := map[string]any{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w.Code, decoded
}

func (s *testServer) registerAndLogin(t *testing.T, body map[string]any) string {
	t.Helper()
	if code, resp := s.do(t, http.MethodPost, "/api/auth/register", "", body); code != http.StatusCreated {
		t.Fatalf("register %v: %d %v", body["username"], code, resp)
	}
	code, resp := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"identifier": body["email"],
		"password":   body["password"],
	})
	if code != http.StatusOK {
		t.Fatalf("login %v: %d %v", body["email"], code, resp)
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("missing token in %v", resp)
	}
	return token
}

func multipartApply(t *testing.T, jobID string, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("jobId", jobID); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := writer.WriteField("coverLetter", "I love shipping Go services."); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if filename != "" {
		part, err := writer.CreateFormFile("resume", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/applications", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestEmployerStudentScenario(t *testing.T) {
	s := newTestServer(t)

	employerToken := s.registerAndLogin(t, map[string]any{
		"firstName": "Erin", "lastName": "Hale", "username": "acme-hr", "email": "hr@acme.test",
		"password": "employer-pass", "role": "employer", "companyName": "Acme Corp",
	})
	rivalToken := s.registerAndLogin(t, map[string]any{
		"firstName": "Rex", "lastName": "Vale", "username": "globex-hr", "email": "hr@globex.test",
		"password": "employer-pass", "role": "employer", "companyName": "Globex",
	})
	studentToken := s.registerAndLogin(t, map[string]any{
		"firstName": "Sam", "lastName": "Lee", "username": "samlee", "email": "sam@college.test",
		"password": "student-pass", "role": "student", "college": "State College", "course": "CS",
	})

	code, resp := s.do(t, http.MethodPost, "/api/jobs", employerToken, map[string]any{
		"title": "Go Developer", "description": "Build APIs", "skills": []string{"Go", "go", "PostgreSQL"},
		"experienceYears": 1, "experienceMonths": 6, "location": "Remote",
	})
	if code != http.StatusCreated {
		t.Fatalf("post job: %d %v", code, resp)
	}
	job := resp["job"].(map[string]any)
	jobID := jsonNumber(job["id"])
	if skills := job["skills"].([]any); len(skills) != 2 {
		t.Fatalf("skills not normalized: %v", skills)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/jobs", studentToken, map[string]any{"title": "x"}); code != http.StatusForbidden {
		t.Fatalf("student posting a job: expected 403, got %d", code)
	}

	code, resp = s.do(t, http.MethodGet, "/api/jobs", studentToken, nil)
	if code != http.StatusOK || len(resp["jobs"].([]any)) != 1 {
		t.Fatalf("list jobs: %d %v", code, resp)
	}
	if name := resp["jobs"].([]any)[0].(map[string]any)["employerName"]; name != "Acme Corp" {
		t.Fatalf("employer name = %v", name)
	}

	pdf := []byte("%PDF-1.4\n% resume\n")
	code, resp = s.send(t, multipartApply(t, jobID, "sam-cv.pdf", pdf), studentToken)
	if code != http.StatusCreated {
		t.Fatalf("apply: %d %v", code, resp)
	}
	application := resp["application"].(map[string]any)
	if application["status"] != "pending" || application["hasResume"] != true {
		t.Fatalf("unexpected application %v", application)
	}
	applicationID := jsonNumber(application["id"])
	if len(s.objects.objects) != 1 {
		t.Fatalf("expected one stored resume, got %d", len(s.objects.objects))
	}

	code, resp = s.send(t, multipartApply(t, jobID, "", nil), studentToken)
	if code != http.StatusBadRequest || !strings.Contains(resp["message"].(string), "already applied") {
		t.Fatalf("duplicate apply: %d %v", code, resp)
	}

	code, resp = s.do(t, http.MethodGet, "/api/applications/job/"+jobID, employerToken, nil)
	if code != http.StatusOK || len(resp["applications"].([]any)) != 1 {
		t.Fatalf("list applicants: %d %v", code, resp)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/applications/job/"+jobID, rivalToken, nil); code != http.StatusForbidden {
		t.Fatalf("rival listing applicants: expected 403, got %d", code)
	}

	statusPath := "/api/applications/" + applicationID + "/status"
	if code, _ := s.do(t, http.MethodPatch, statusPath, rivalToken, map[string]any{"status": "rejected"}); code != http.StatusForbidden {
		t.Fatalf("rival status update: expected 403, got %d", code)
	}
	if code, _ := s.do(t, http.MethodPatch, statusPath, employerToken, map[string]any{"status": "maybe"}); code != http.StatusBadRequest {
		t.Fatalf("invalid status: expected 400, got %d", code)
	}
	code, resp = s.do(t, http.MethodPatch, statusPath, employerToken, map[string]any{"status": "accepted", "notes": "Start Monday"})
	if code != http.StatusOK {
		t.Fatalf("accept: %d %v", code, resp)
	}

	code, resp = s.do(t, http.MethodGet, "/api/applications/student", studentToken, nil)
	if code != http.StatusOK {
		t.Fatalf("student applications: %d %v", code, resp)
	}
	mine := resp["applications"].([]any)[0].(map[string]any)
	if mine["status"] != "accepted" || mine["employerNotes"] != "Start Monday" || mine["jobTitle"] != "Go Developer" {
		t.Fatalf("unexpected student view %v", mine)
	}

	code, resp = s.do(t, http.MethodGet, "/api/applications/"+applicationID+"/resume", employerToken, nil)
	if code != http.StatusOK || !strings.HasPrefix(resp["url"].(string), "https://files.example.com/resumes/") {
		t.Fatalf("resume link: %d %v", code, resp)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/applications/"+applicationID+"/resume", rivalToken, nil); code != http.StatusForbidden {
		t.Fatalf("rival resume link: expected 403, got %d", code)
	}

	code, resp = s.do(t, http.MethodGet, "/api/stats/employer", employerToken, nil)
	if code != http.StatusOK || resp["totalApplications"].(float64) != 1 || resp["acceptedApplications"].(float64) != 1 || resp["totalJobs"].(float64) != 1 {
		t.Fatalf("employer stats: %d %v", code, resp)
	}
	code, resp = s.do(t, http.MethodGet, "/api/stats/student", studentToken, nil)
	if code != http.StatusOK || resp["acceptedApplications"].(float64) != 1 {
		t.Fatalf("student stats: %d %v", code, resp)
	}

	code, resp = s.do(t, http.MethodGet, "/api/jobs/employer", employerToken, nil)
	if code != http.StatusOK {
		t.Fatalf("employer jobs: %d %v", code, resp)
	}
	own := resp["jobs"].([]any)[0].(map[string]any)
	if own["applicationCount"].(float64) != 1 || own["acceptedCount"].(float64) != 1 {
		t.Fatalf("unexpected counts %v", own)
	}

	code, _ = s.do(t, http.MethodPatch, "/api/jobs/"+jobID+"/active", employerToken, map[string]any{"isActive": false})
	if code != http.StatusOK {
		t.Fatalf("deactivate: %d", code)
	}
	code, resp = s.do(t, http.MethodGet, "/api/jobs", studentToken, nil)
	if code != http.StatusOK || len(resp["jobs"].([]any)) != 0 {
		t.Fatalf("inactive job still listed: %v", resp)
	}

	// 欢迎邮件 3 封 + 状态通知 1 封。
	if got := len(s.notifier.messages); got != 4 {
		t.Fatalf("expected 4 notifications, got %d", got)
	}
}

func TestAuthErrors(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, map[string]any{
		"firstName": "Ada", "lastName": "L", "username": "ada", "email": "ada@example.com",
		"password": "student-pass", "role": "student",
	})

	code, resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"firstName": "Ada", "lastName": "L", "username": "ada2", "email": "ada@example.com",
		"password": "student-pass", "role": "student",
	})
	if code != http.StatusBadRequest || resp["code"].(float64) != 4090 {
		t.Fatalf("duplicate email: %d %v", code, resp)
	}

	code, resp = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"firstName": "Root", "lastName": "R", "username": "root", "email": "root@example.com",
		"password": "admin-pass", "role": "admin",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("self-registered admin: %d %v", code, resp)
	}

	code, resp = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "x", "isAdmin": true,
	})
	if code != http.StatusBadRequest {
		t.Fatalf("unknown fields must be rejected: %d %v", code, resp)
	}

	_, wrong := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"identifier": "ada", "password": "nope-nope"})
	code, unknown := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"identifier": "ghost", "password": "nope-nope"})
	if code != http.StatusUnauthorized || wrong["message"] != unknown["message"] {
		t.Fatalf("login failures must look identical: %v vs %v", wrong, unknown)
	}

	if code, _ := s.do(t, http.MethodGet, "/api/jobs", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/jobs", "garbage", nil); code != http.StatusForbidden {
		t.Fatalf("invalid token: expected 403, got %d", code)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)

	admin := database.Account{
		FirstName: "Root", LastName: "Admin", Username: "root", Email: "root@example.com",
		PasswordHash: "unused", Role: database.RoleAdmin,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	session, err := s.auth.IssueSession(auth.Identity{AccountID: admin.ID, Role: admin.Role, Email: admin.Email})
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	studentToken := s.registerAndLogin(t, map[string]any{
		"firstName": "Sam", "lastName": "Lee", "username": "samlee", "email": "sam@college.test",
		"password": "student-pass", "role": "student",
	})

	for _, path := range []string{"/api/admin/users", "/api/admin/jobs", "/api/admin/applications", "/api/admin/notifications", "/api/admin/stats"} {
		if code, resp := s.do(t, http.MethodGet, path, session.Token, nil); code != http.StatusOK {
			t.Fatalf("admin %s: %d %v", path, code, resp)
		}
		if code, _ := s.do(t, http.MethodGet, path, studentToken, nil); code != http.StatusForbidden {
			t.Fatalf("student %s: expected 403, got %d", path, code)
		}
	}

	code, resp := s.do(t, http.MethodGet, "/api/admin/users?role=student", session.Token, nil)
	if code != http.StatusOK || len(resp["users"].([]any)) != 1 {
		t.Fatalf("filtered users: %d %v", code, resp)
	}

	flagged, err := s.auth.IssueSession(auth.Identity{AccountID: admin.ID, Role: admin.Role, Email: admin.Email, MustChangePassword: true})
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/admin/stats", flagged.Token, nil); code != http.StatusForbidden {
		t.Fatalf("flagged admin must change password first, got %d", code)
	}
	if code, _ := s.do(t, http.MethodGet, "/api/auth/profile", flagged.Token, nil); code != http.StatusOK {
		t.Fatalf("flagged admin can still read profile, got %d", code)
	}
}

func jsonNumber(v any) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
