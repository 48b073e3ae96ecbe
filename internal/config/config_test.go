package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
	t.Setenv("AUTH_JWT_SECRET", strings.Repeat("s", 32))
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Fatalf("api port = %d", cfg.API.Port)
	}
	if cfg.API.MaxUploadBytes != 5*1024*1024 {
		t.Fatalf("max upload bytes = %d", cfg.API.MaxUploadBytes)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Fatalf("session ttl = %v", cfg.Auth.SessionTTL)
	}
	if cfg.Redis.Addr() != "localhost:6379" {
		t.Fatalf("redis addr = %s", cfg.Redis.Addr())
	}
	if cfg.Mail.Enabled() {
		t.Fatal("mail must be disabled without a host")
	}
	if got := cfg.API.AllowedOrigins(); len(got) != 2 || got[0] != "http://localhost:3000" {
		t.Fatalf("allowed origins = %v", got)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("API_CORS_ORIGINS", " https://careercraft.example , ,https://admin.careercraft.example")
	t.Setenv("AUTH_SESSION_TTL", "2h")
	t.Setenv("AUTH_LOGIN_LOCK_TTL", "30m")
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("WORKER_CONCURRENCY", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 9090 {
		t.Fatalf("api port = %d", cfg.API.Port)
	}
	if got := cfg.API.AllowedOrigins(); len(got) != 2 || got[1] != "https://admin.careercraft.example" {
		t.Fatalf("allowed origins = %v", got)
	}
	if cfg.Auth.SessionTTL != 2*time.Hour || cfg.Auth.LoginLockTTL != 30*time.Minute {
		t.Fatalf("durations = %v / %v", cfg.Auth.SessionTTL, cfg.Auth.LoginLockTTL)
	}
	if !cfg.Mail.Enabled() || cfg.Mail.Port != 587 {
		t.Fatalf("mail = %+v", cfg.Mail)
	}
	if cfg.Worker.Concurrency != 3 {
		t.Fatalf("worker concurrency = %d", cfg.Worker.Concurrency)
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_JWT_SECRET", "too-short")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "jwt secret") {
		t.Fatalf("expected jwt secret error, got %v", err)
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "careercraft", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=careercraft sslmode=disable"
	if got := d.DSN(); got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}
