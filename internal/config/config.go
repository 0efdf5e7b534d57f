package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/riskibarqy/topps-now-tracker/internal/platform/logging"
)

// Config stores runtime configuration for the pipeline, its CLI and its
// operational HTTP surface.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level
	LogFormat      logging.Format
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	DBURL             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	BrowserBin            string
	BrowserHeadless       bool
	BrowserPageTimeout    time.Duration
	BrowserSettleDelay    time.Duration
	BrowserScrollDelay    time.Duration
	BrowserScrollAttempts int
	BrowserUserAgent      string
	BrowserDebugDir       string

	ToppsArchiveURL     string
	ToppsProductBaseURL string
	URLCheckTimeout     time.Duration

	MLBStatsBaseURL               string
	MLBStatsTimeout               time.Duration
	MLBStatsMaxRetries            int
	MLBStatsCacheTTL              time.Duration
	MLBStatsCircuitEnabled        bool
	MLBStatsCircuitFailureCount   int
	MLBStatsCircuitOpenTimeout    time.Duration
	MLBStatsCircuitHalfOpenMaxReq int

	PipelineDailyCron        string
	PipelinePurgeCron        string
	PipelineTimezone         *time.Location
	PipelineStepDelay        time.Duration
	PipelineHistoryRetention time.Duration
	PipelineLockPath         string
	PipelineRunTimeout       time.Duration

	UptraceEnabled         bool
	UptraceDSN             string
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
	PprofEnabled           bool
	PprofAddr              string

	InternalJobToken string
}

// Load reads an optional .env file (or the file named by ENV_FILE) and then
// the process environment. Variables already set in the environment win.
func Load() (Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}
	logLevel, err := logging.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	logFormat, err := parseLogFormat(getEnv("LOG_FORMAT", string(logging.FormatJSON)))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "topps-now-tracker"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		LogLevel:       logLevel,
		LogFormat:      logFormat,
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),

		DBURL: strings.TrimSpace(getEnv("DB_URL", "")),

		BrowserBin:       strings.TrimSpace(getEnv("BROWSER_BIN", "")),
		BrowserUserAgent: strings.TrimSpace(getEnv("BROWSER_USER_AGENT", "")),
		BrowserDebugDir:  strings.TrimSpace(getEnv("BROWSER_DEBUG_DIR", "")),

		ToppsArchiveURL:     strings.TrimSpace(getEnv("TOPPS_ARCHIVE_URL", "https://www.topps.com/collections/topps-now-archive")),
		ToppsProductBaseURL: strings.TrimSpace(getEnv("TOPPS_PRODUCT_BASE_URL", "https://www.topps.com/products/")),

		MLBStatsBaseURL: strings.TrimRight(strings.TrimSpace(getEnv("MLB_STATS_BASE_URL", "https://statsapi.mlb.com/api/v1")), "/"),

		PipelineDailyCron: strings.TrimSpace(getEnv("PIPELINE_DAILY_CRON", "0 7 * * *")),
		PipelinePurgeCron: strings.TrimSpace(getEnv("PIPELINE_PURGE_CRON", "0 0 * * 1")),
		PipelineLockPath:  strings.TrimSpace(getEnv("PIPELINE_LOCK_PATH", "")),

		UptraceDSN:             strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
		PyroscopeServerAddress: strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PprofAddr:              strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),

		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	p := &parser{}
	cfg.ReadTimeout = p.positiveDuration("HTTP_READ_TIMEOUT", "10s")
	cfg.WriteTimeout = p.positiveDuration("HTTP_WRITE_TIMEOUT", "15s")

	cfg.DBMaxOpenConns = p.positiveInt("DB_MAX_OPEN_CONNS", 10)
	cfg.DBMaxIdleConns = p.positiveInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = p.positiveDuration("DB_CONN_MAX_LIFETIME", "30m")

	cfg.BrowserHeadless = p.bool("BROWSER_HEADLESS", "true")
	cfg.BrowserPageTimeout = p.positiveDuration("BROWSER_PAGE_TIMEOUT", "30s")
	cfg.BrowserSettleDelay = p.nonNegativeDuration("BROWSER_SETTLE_DELAY", "5s")
	cfg.BrowserScrollDelay = p.nonNegativeDuration("BROWSER_SCROLL_DELAY", "3s")
	cfg.BrowserScrollAttempts = p.positiveInt("BROWSER_SCROLL_ATTEMPTS", 5)

	cfg.URLCheckTimeout = p.positiveDuration("URL_CHECK_TIMEOUT", "10s")

	cfg.MLBStatsTimeout = p.positiveDuration("MLB_STATS_TIMEOUT", "15s")
	cfg.MLBStatsMaxRetries = p.nonNegativeInt("MLB_STATS_MAX_RETRIES", 2)
	cfg.MLBStatsCacheTTL = p.nonNegativeDuration("MLB_STATS_CACHE_TTL", "10m")
	cfg.MLBStatsCircuitEnabled = p.bool("MLB_STATS_CIRCUIT_ENABLED", "true")
	cfg.MLBStatsCircuitFailureCount = p.positiveInt("MLB_STATS_CIRCUIT_FAILURE_COUNT", 5)
	cfg.MLBStatsCircuitOpenTimeout = p.positiveDuration("MLB_STATS_CIRCUIT_OPEN_TIMEOUT", "30s")
	cfg.MLBStatsCircuitHalfOpenMaxReq = p.positiveInt("MLB_STATS_CIRCUIT_HALF_OPEN_MAX_REQ", 2)

	cfg.PipelineStepDelay = p.nonNegativeDuration("PIPELINE_STEP_DELAY", "2s")
	cfg.PipelineHistoryRetention = p.positiveDuration("PIPELINE_HISTORY_RETENTION", "168h")
	cfg.PipelineRunTimeout = p.nonNegativeDuration("PIPELINE_RUN_TIMEOUT", "6h")

	cfg.UptraceEnabled = p.bool("UPTRACE_ENABLED", "false")
	cfg.PyroscopeEnabled = p.bool("PYROSCOPE_ENABLED", "false")
	cfg.PyroscopeUploadRate = p.positiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	cfg.PprofEnabled = p.bool("PPROF_ENABLED", "false")

	if p.err != nil {
		return Config{}, p.err
	}

	location, err := time.LoadLocation(getEnv("PIPELINE_TIMEZONE", "UTC"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PIPELINE_TIMEZONE: %w", err)
	}
	cfg.PipelineTimezone = location

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PipelineDailyCron == "" {
		return fmt.Errorf("PIPELINE_DAILY_CRON cannot be empty")
	}
	if c.UptraceEnabled && c.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if c.PyroscopeEnabled && c.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if c.PyroscopeEnabled && c.PyroscopeAppName == "" {
		return fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if c.PprofEnabled && c.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	if c.DBMaxIdleConns > c.DBMaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS must be <= DB_MAX_OPEN_CONNS")
	}
	return nil
}

// HasDatabase reports whether a durable store is configured. Without one the
// CLI falls back to in-memory repositories.
func (c Config) HasDatabase() bool {
	return c.DBURL != ""
}

func loadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// parser keeps the first parse error so Load can read every field in a flat
// sequence.
type parser struct {
	err error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parser) bool(key, fallback string) bool {
	v, err := strconv.ParseBool(getEnv(key, fallback))
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return false
	}
	return v
}

func (p *parser) duration(key, fallback string) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return 0
	}
	return v
}

func (p *parser) positiveDuration(key, fallback string) time.Duration {
	v := p.duration(key, fallback)
	if v <= 0 {
		p.fail(fmt.Errorf("%s must be > 0", key))
	}
	return v
}

func (p *parser) nonNegativeDuration(key, fallback string) time.Duration {
	v := p.duration(key, fallback)
	if v < 0 {
		p.fail(fmt.Errorf("%s must be >= 0", key))
	}
	return v
}

func (p *parser) positiveInt(key string, fallback int) int {
	v, err := getEnvAsInt(key, fallback)
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return 0
	}
	if v <= 0 {
		p.fail(fmt.Errorf("%s must be > 0", key))
	}
	return v
}

func (p *parser) nonNegativeInt(key string, fallback int) int {
	v, err := getEnvAsInt(key, fallback)
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return 0
	}
	if v < 0 {
		p.fail(fmt.Errorf("%s must be >= 0", key))
	}
	return v
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseLogFormat(v string) (logging.Format, error) {
	switch logging.Format(strings.ToLower(strings.TrimSpace(v))) {
	case logging.FormatJSON:
		return logging.FormatJSON, nil
	case logging.FormatConsole:
		return logging.FormatConsole, nil
	default:
		return "", fmt.Errorf("invalid LOG_FORMAT %q: valid values are %s, %s", v, logging.FormatJSON, logging.FormatConsole)
	}
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
