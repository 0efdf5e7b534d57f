package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PipelineDailyCron != "0 7 * * *" {
		t.Fatalf("unexpected daily cron: %q", cfg.PipelineDailyCron)
	}
	if cfg.PipelinePurgeCron != "0 0 * * 1" {
		t.Fatalf("unexpected purge cron: %q", cfg.PipelinePurgeCron)
	}
	if cfg.PipelineStepDelay != 2*time.Second {
		t.Fatalf("unexpected step delay: %s", cfg.PipelineStepDelay)
	}
	if cfg.PipelineHistoryRetention != 7*24*time.Hour {
		t.Fatalf("unexpected retention: %s", cfg.PipelineHistoryRetention)
	}
	if cfg.PipelineTimezone != time.UTC {
		t.Fatalf("unexpected timezone: %s", cfg.PipelineTimezone)
	}
	if !cfg.BrowserHeadless || cfg.BrowserPageTimeout != 30*time.Second || cfg.BrowserScrollAttempts != 5 {
		t.Fatalf("unexpected browser defaults: %+v", cfg)
	}
	if cfg.MLBStatsBaseURL != "https://statsapi.mlb.com/api/v1" {
		t.Fatalf("unexpected stats base url: %q", cfg.MLBStatsBaseURL)
	}
	if cfg.LogLevel != logging.LevelInfo || cfg.LogFormat != logging.FormatJSON {
		t.Fatalf("unexpected log defaults: %s %s", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.HasDatabase() {
		t.Fatalf("expected no database without DB_URL")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "duration", key: "PIPELINE_STEP_DELAY", value: "soon"},
		{name: "negative delay", key: "PIPELINE_STEP_DELAY", value: "-1s"},
		{name: "zero retention", key: "PIPELINE_HISTORY_RETENTION", value: "0s"},
		{name: "bool", key: "BROWSER_HEADLESS", value: "maybe"},
		{name: "int", key: "BROWSER_SCROLL_ATTEMPTS", value: "many"},
		{name: "zero attempts", key: "BROWSER_SCROLL_ATTEMPTS", value: "0"},
		{name: "negative retries", key: "MLB_STATS_MAX_RETRIES", value: "-1"},
		{name: "timezone", key: "PIPELINE_TIMEZONE", value: "Mars/Olympus"},
		{name: "log level", key: "LOG_LEVEL", value: "loud"},
		{name: "log format", key: "LOG_FORMAT", value: "xml"},
		{name: "open conns", key: "DB_MAX_OPEN_CONNS", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_PipelineOverrides(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("PIPELINE_DAILY_CRON", "30 6 * * *")
	t.Setenv("PIPELINE_TIMEZONE", "America/New_York")
	t.Setenv("PIPELINE_STEP_DELAY", "0s")
	t.Setenv("PIPELINE_LOCK_PATH", "/tmp/topps.lock")
	t.Setenv("MLB_STATS_BASE_URL", "http://stats.local/api/v1/")
	t.Setenv("DB_URL", "postgres://localhost/topps")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PipelineDailyCron != "30 6 * * *" || cfg.PipelineLockPath != "/tmp/topps.lock" {
		t.Fatalf("unexpected pipeline config: %+v", cfg)
	}
	if cfg.PipelineTimezone.String() != "America/New_York" {
		t.Fatalf("unexpected timezone: %s", cfg.PipelineTimezone)
	}
	if cfg.PipelineStepDelay != 0 {
		t.Fatalf("expected zero step delay to be allowed, got %s", cfg.PipelineStepDelay)
	}
	if cfg.MLBStatsBaseURL != "http://stats.local/api/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.MLBStatsBaseURL)
	}
	if !cfg.HasDatabase() {
		t.Fatalf("expected database to be configured")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_PprofDefaultsAddrWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_ADDR", "  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PprofAddr != ":6060" {
		t.Fatalf("expected default pprof addr :6060, got %q", cfg.PprofAddr)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("SERVICE_NAME", "topps-now-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "topps-now-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_IdleConnsCannotExceedOpenConns(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DB_MAX_OPEN_CONNS", "2")
	t.Setenv("DB_MAX_IDLE_CONNS", "4")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when idle conns exceed open conns")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.env")
	content := "INTERNAL_JOB_TOKEN=from-file\nBROWSER_DEBUG_DIR=/tmp/shots\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("ENV_FILE", path)
	// Setenv registers a restore; the unset lets the file supply the value.
	t.Setenv("INTERNAL_JOB_TOKEN", "")
	if err := os.Unsetenv("INTERNAL_JOB_TOKEN"); err != nil {
		t.Fatalf("unset token: %v", err)
	}
	t.Setenv("BROWSER_DEBUG_DIR", "/from/env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.InternalJobToken != "from-file" {
		t.Fatalf("expected token from env file, got %q", cfg.InternalJobToken)
	}
	if cfg.BrowserDebugDir != "/from/env" {
		t.Fatalf("expected process env to win, got %q", cfg.BrowserDebugDir)
	}
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	if _, err := Load(); err != nil {
		t.Fatalf("expected missing env file to be ignored: %v", err)
	}
}
