package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "registry.db" {
		t.Errorf("Expected database path registry.db, got %s", cfg.Database.Path)
	}
	if !cfg.Database.Enabled {
		t.Error("Expected database enabled by default")
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected server addr :8080, got %s", cfg.Server.Addr)
	}
	if cfg.Events.SubjectPrefix != "rwa.events" {
		t.Errorf("Expected subject prefix rwa.events, got %s", cfg.Events.SubjectPrefix)
	}
	if cfg.Reconciler.Schedule != "@every 5m" {
		t.Errorf("Expected schedule @every 5m, got %s", cfg.Reconciler.Schedule)
	}
	if cfg.Formance.Enabled() {
		t.Error("Expected Formance mirror disabled without a stack URL")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/test.db")
	t.Setenv("DATABASE_ENABLED", "false")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("EVENTS_WORKERS", "8")
	t.Setenv("FORMANCE_STACK_URL", "http://localhost:8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Expected /tmp/test.db, got %s", cfg.Database.Path)
	}
	if cfg.Database.Enabled {
		t.Error("Expected database disabled")
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("Expected 3s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.RateLimitRPS != 2.5 {
		t.Errorf("Expected 2.5, got %v", cfg.Server.RateLimitRPS)
	}
	if cfg.Events.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Events.Workers)
	}
	if !cfg.Formance.Enabled() {
		t.Error("Expected Formance mirror enabled")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("DB_PING_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid duration")
	}

	t.Setenv("DB_PING_TIMEOUT", "")
	t.Setenv("RATE_LIMIT_RPS", "fast")
	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid rate limit")
	}
}

func TestLoad_TokenSymbols(t *testing.T) {
	t.Setenv("FORMANCE_TOKEN_SYMBOLS", "CCW67TSZV3SSS2HXMBQ5JFGCKJNXKZM7UQUWUZPUTHXSTZLEO7SJMI75=USDC, 0xdead=dai")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.Formance.TokenSymbols["CCW67TSZV3SSS2HXMBQ5JFGCKJNXKZM7UQUWUZPUTHXSTZLEO7SJMI75"]; got != "USDC" {
		t.Errorf("Expected USDC, got %q", got)
	}
	if got := cfg.Formance.TokenSymbols["0xdead"]; got != "dai" {
		t.Errorf("Expected dai, got %q", got)
	}

	t.Setenv("FORMANCE_TOKEN_SYMBOLS", "USDC")
	if _, err := Load(); err == nil {
		t.Error("Expected error for entry without a symbol")
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
}
