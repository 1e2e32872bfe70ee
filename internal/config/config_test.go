package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("API_URL", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.URL != "http://localhost:8000/api" {
		t.Fatalf("unexpected default api url %q", cfg.API.URL)
	}
	if TTLDuration(cfg.History.DetailTTL, 0) != 5*time.Minute {
		t.Fatalf("unexpected detail ttl %q", cfg.History.DetailTTL)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
api:
  url: http://quiz.internal:9000
redis:
  addr: localhost:6379
  ttl: 1h
log:
  level: debug
  format: json
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("API_URL", "")
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.URL != "http://quiz.internal:9000" {
		t.Fatalf("file value not applied: %q", cfg.API.URL)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Fatalf("env override not applied: %q", cfg.Redis.Addr)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if cfg.API.GenerateTimeout != "2m" {
		t.Fatalf("defaults should survive partial files, got %q", cfg.API.GenerateTimeout)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_ = os.WriteFile(path, []byte("api: [unterminated"), 0o600)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("POSTGRES_URL=postgres://quiz@localhost/quiz\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("POSTGRES_URL", "")
	os.Unsetenv("POSTGRES_URL")

	if err := LoadEnv(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Postgres.URL != "postgres://quiz@localhost/quiz" {
		t.Fatalf("expected dotenv value, got %q", cfg.Postgres.URL)
	}
	if err := LoadEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestTTLDuration(t *testing.T) {
	if TTLDuration("", time.Minute) != time.Minute {
		t.Fatalf("expected fallback for empty")
	}
	if TTLDuration("garbage", time.Minute) != time.Minute {
		t.Fatalf("expected fallback for garbage")
	}
	if TTLDuration("90s", time.Minute) != 90*time.Second {
		t.Fatalf("expected parsed duration")
	}
}
