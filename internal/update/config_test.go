package update

import (
	"testing"
	"time"
)

func TestRuntimeConfigDefaults(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if cfg.DBPath != ".checkoff.db" || cfg.ExportDir != "." {
		t.Fatalf("unexpected path defaults: %+v", cfg)
	}
	if cfg.LockTimeout != 5*time.Second || cfg.SchedulerBuffer != 16 {
		t.Fatalf("unexpected runtime defaults: %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.LogFile != "" || !cfg.Alarms {
		t.Fatalf("unexpected logging defaults: %+v", cfg)
	}
	if cfg.LockPath() != ".checkoff.db.lock" {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
}

func TestRuntimeConfigFromEnv(t *testing.T) {
	t.Setenv("CHECKOFF_DB", "data/tasks.db")
	t.Setenv("CHECKOFF_EXPORT_DIR", "backups")
	t.Setenv("CHECKOFF_LOCK_TIMEOUT", "750ms")
	t.Setenv("CHECKOFF_SCHEDULER_BUFFER", "128")
	t.Setenv("CHECKOFF_LOG_FILE", "checkoff.log")
	t.Setenv("CHECKOFF_LOG_LEVEL", "DEBUG")
	t.Setenv("CHECKOFF_ALARMS", "off")

	cfg := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if cfg.DBPath != "data/tasks.db" || cfg.ExportDir != "backups" {
		t.Fatalf("unexpected path overrides: %+v", cfg)
	}
	if cfg.LockTimeout != 750*time.Millisecond || cfg.SchedulerBuffer != 128 {
		t.Fatalf("unexpected runtime overrides: %+v", cfg)
	}
	if cfg.LogFile != "checkoff.log" || cfg.LogLevel != "debug" || cfg.Alarms {
		t.Fatalf("unexpected logging overrides: %+v", cfg)
	}
	if cfg.LockPath() != "data/tasks.db.lock" {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
}

func TestRuntimeConfigIgnoresInvalidEnv(t *testing.T) {
	t.Setenv("CHECKOFF_LOCK_TIMEOUT", "soon")
	t.Setenv("CHECKOFF_SCHEDULER_BUFFER", "-3")
	t.Setenv("CHECKOFF_ALARMS", "maybe")

	cfg := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if cfg != DefaultRuntimeConfig() {
		t.Fatalf("invalid values must keep defaults, got %+v", cfg)
	}
}
