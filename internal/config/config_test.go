package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/crosspost")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.CadenceWeekday != 3 || cfg.CadenceHour != 23 || cfg.CadenceMinute != 0 {
		t.Errorf("Unexpected default cadence: %d %d:%02d", cfg.CadenceWeekday, cfg.CadenceHour, cfg.CadenceMinute)
	}
	if cfg.CadenceHorizonWeeks != 52 {
		t.Errorf("Expected default horizon 52, got %d", cfg.CadenceHorizonWeeks)
	}
	if cfg.WorkerCount != 3 {
		t.Errorf("Expected default worker count 3, got %d", cfg.WorkerCount)
	}
	if len(cfg.AutopilotPlatforms) != 4 {
		t.Errorf("Expected 4 default autopilot platforms, got %v", cfg.AutopilotPlatforms)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CADENCE_WEEKDAY", "5")
	t.Setenv("CADENCE_HOUR", "18")
	t.Setenv("AUTOPILOT_PLATFORMS", "youtube, facebook")
	t.Setenv("WORKER_COUNT", "8")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Port)
	}
	if cfg.CadenceWeekday != 5 || cfg.CadenceHour != 18 {
		t.Errorf("Cadence override not applied: %d %d", cfg.CadenceWeekday, cfg.CadenceHour)
	}
	if len(cfg.AutopilotPlatforms) != 2 || cfg.AutopilotPlatforms[1] != "facebook" {
		t.Errorf("CSV platforms not trimmed: %v", cfg.AutopilotPlatforms)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("Expected worker count 8, got %d", cfg.WorkerCount)
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WORKER_COUNT", "many")

	cfg := Load()
	if cfg.WorkerCount != 3 {
		t.Errorf("Invalid int should fall back to default, got %d", cfg.WorkerCount)
	}
}

func TestCadenceLocation(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("CADENCE_TIMEZONE", "Europe/Warsaw")
	cfg := Load()
	if loc := cfg.CadenceLocation(); loc.String() != "Europe/Warsaw" {
		t.Errorf("Expected Europe/Warsaw, got %s", loc)
	}

	t.Setenv("CADENCE_TIMEZONE", "Mars/Olympus")
	cfg = Load()
	if loc := cfg.CadenceLocation(); loc != time.UTC {
		t.Errorf("Unknown zone should fall back to UTC, got %s", loc)
	}
}
