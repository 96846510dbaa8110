package config_test

import (
	"testing"
	"time"

	"github.com/fleetops/fuelcore/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabaseMaxConns != 25 {
		t.Errorf("DatabaseMaxConns = %d, want 25", cfg.DatabaseMaxConns)
	}
	if cfg.ReportCacheTTL != 10*time.Minute {
		t.Errorf("ReportCacheTTL = %v, want 10m", cfg.ReportCacheTTL)
	}
	if cfg.ReportTimezone != "Asia/Kolkata" {
		t.Errorf("ReportTimezone = %q", cfg.ReportTimezone)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REPORT_CACHE_TTL", "1h")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ReportCacheTTL != time.Hour {
		t.Errorf("ReportCacheTTL = %v, want 1h", cfg.ReportCacheTTL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}
