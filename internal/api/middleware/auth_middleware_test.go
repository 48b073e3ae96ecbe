package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"careercraft/internal/auth"
)

func newAuthService(t *testing.T, secret string) *auth.AuthService {
	t.Helper()
	svc, err := auth.NewAuthService([]byte(secret), time.Hour)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return svc
}

func newGuardedRouter(svc *auth.AuthService, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/private",
		AuthMiddleware(svc),
		RequirePasswordChangeCompletedMiddleware(),
		RequireRoles(roles...),
		func(c *gin.Context) {
			principal, _ := PrincipalFromContext(c)
			c.JSON(http.StatusOK, gin.H{"role": principal.Role})
		})
	return router
}

func doRequest(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func issue(t *testing.T, svc *auth.AuthService, identity auth.Identity) string {
	t.Helper()
	session, err := svc.IssueSession(identity)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return session.Token
}

func TestAuthMiddlewareStatusSplit(t *testing.T) {
	svc := newAuthService(t, "0123456789abcdef0123456789abcdef")
	other := newAuthService(t, "ffffffffffffffffffffffffffffffff")
	router := newGuardedRouter(svc, "student")

	foreign := issue(t, other, auth.Identity{AccountID: 1, Role: "student", Email: "a@example.com"})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bearer without token", "Bearer", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusForbidden},
		{"foreign signature", "Bearer " + foreign, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, tc.header)
			if w.Code != tc.want {
				t.Fatalf("expected %d got %d body=%s", tc.want, w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"message"`) || !strings.Contains(w.Body.String(), `"code"`) {
				t.Fatalf("error body must carry message and code: %s", w.Body.String())
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	svc := newAuthService(t, "0123456789abcdef0123456789abcdef")
	router := newGuardedRouter(svc, "employer")

	employer := issue(t, svc, auth.Identity{AccountID: 2, Role: "employer", Email: "e@example.com"})
	student := issue(t, svc, auth.Identity{AccountID: 3, Role: "student", Email: "s@example.com"})

	if w := doRequest(router, "Bearer "+employer); w.Code != http.StatusOK {
		t.Fatalf("employer should pass, got %d", w.Code)
	}
	if w := doRequest(router, "Bearer "+student); w.Code != http.StatusForbidden {
		t.Fatalf("student should be forbidden, got %d", w.Code)
	}
}

func TestPasswordGateBlocksFlaggedAccounts(t *testing.T) {
	svc := newAuthService(t, "0123456789abcdef0123456789abcdef")
	router := newGuardedRouter(svc, "admin")

	token := issue(t, svc, auth.Identity{AccountID: 9, Role: "admin", Email: "root@example.com", MustChangePassword: true})
	w := doRequest(router, "Bearer "+token)
	if w.Code != http.StatusForbidden || !strings.Contains(w.Body.String(), "password change required") {
		t.Fatalf("expected password gate, got %d %s", w.Code, w.Body.String())
	}
}

func TestInternalSecretMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", InternalSecretMiddleware("s3cret"), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-Internal-Secret", "s3cret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d", w.Code)
	}
}

func TestCorrelationIDPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CorrelationIDMiddleware())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetCorrelationID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get("X-Correlation-ID") != "abc-123" {
		t.Fatalf("correlation id not propagated: body=%q header=%q", w.Body.String(), w.Header().Get("X-Correlation-ID"))
	}
}
