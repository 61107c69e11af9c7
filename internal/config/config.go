package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/gift-exchange/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	RegistryLocal  = "local"
	RegistryRemote = "remote"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	LogLevel       logging.Level

	StorageDriver           string
	DBURL                   string
	DBDisablePreparedBinary bool
	SeedDemoParticipants    bool
	CacheEnabled            bool
	CacheTTL                time.Duration

	CORSAllowedOrigins []string
	OrganizerKey       string
	InternalJobToken   string
	CompletionWorkers  int

	RegistryMode                  string
	RegistryBaseURL               string
	RegistryAPIKey                string
	RegistryTimeout               time.Duration
	RegistryBatchSize             int
	RegistryMaxConcurrency        int
	RegistryCircuitEnabled        bool
	RegistryCircuitFailureCount   int
	RegistryCircuitOpenTimeout    time.Duration
	RegistryCircuitHalfOpenMaxReq int

	QStashEnabled       bool
	QStashBaseURL       string
	QStashToken         string
	QStashTargetBaseURL string
	QStashRetries       int

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "gift-exchange-api"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("APP_HTTP_ADDR", ":8080"),
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	if cfg.ReadTimeout, err = getEnvAsPositiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = getEnvAsPositiveDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	if err := loadStorage(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadAccess(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadRegistry(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadJobs(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadStorage(cfg *Config) error {
	driverDefault := StorageMemory
	if cfg.AppEnv != EnvDev {
		driverDefault = StoragePostgres
	}
	driver := strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", driverDefault)))
	switch driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: valid values are %s, %s", driver, StorageMemory, StoragePostgres)
	}
	cfg.StorageDriver = driver

	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if driver == StoragePostgres && cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
	}

	var err error
	if cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", true); err != nil {
		return err
	}
	if cfg.SeedDemoParticipants, err = getEnvAsBool("SEED_DEMO_PARTICIPANTS", cfg.AppEnv == EnvDev); err != nil {
		return err
	}
	if cfg.CacheEnabled, err = getEnvAsBool("CACHE_ENABLED", true); err != nil {
		return err
	}
	if cfg.CacheTTL, err = getEnvAsPositiveDuration("CACHE_TTL", "60s"); err != nil {
		return err
	}
	return nil
}

func loadAccess(cfg *Config) error {
	cfg.CORSAllowedOrigins = splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	if len(cfg.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	cfg.OrganizerKey = strings.TrimSpace(getEnv("ORGANIZER_KEY", ""))
	if cfg.AppEnv != EnvDev && cfg.OrganizerKey == "" {
		return fmt.Errorf("ORGANIZER_KEY is required when APP_ENV=%s", cfg.AppEnv)
	}
	cfg.InternalJobToken = strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", ""))

	workers, err := getEnvAsInt("COMPLETION_WORKERS", 4)
	if err != nil {
		return fmt.Errorf("parse COMPLETION_WORKERS: %w", err)
	}
	if workers < 1 || workers > 32 {
		return fmt.Errorf("COMPLETION_WORKERS must be between 1 and 32")
	}
	cfg.CompletionWorkers = workers
	return nil
}

func loadJobs(cfg *Config) error {
	var err error
	if cfg.QStashEnabled, err = getEnvAsBool("QSTASH_ENABLED", false); err != nil {
		return err
	}
	cfg.QStashBaseURL = strings.TrimSpace(getEnv("QSTASH_BASE_URL", "https://qstash.upstash.io"))
	cfg.QStashToken = strings.TrimSpace(getEnv("QSTASH_TOKEN", ""))
	cfg.QStashTargetBaseURL = strings.TrimSpace(getEnv("QSTASH_TARGET_BASE_URL", ""))
	if cfg.QStashRetries, err = getEnvAsInt("QSTASH_RETRIES", 3); err != nil {
		return fmt.Errorf("parse QSTASH_RETRIES: %w", err)
	}
	if cfg.QStashRetries < 0 {
		return fmt.Errorf("QSTASH_RETRIES must be >= 0")
	}
	if !cfg.QStashEnabled {
		return nil
	}
	if cfg.QStashToken == "" {
		return fmt.Errorf("QSTASH_TOKEN is required when QSTASH_ENABLED=true")
	}
	if cfg.QStashTargetBaseURL == "" {
		return fmt.Errorf("QSTASH_TARGET_BASE_URL is required when QSTASH_ENABLED=true")
	}
	// Scheduled callbacks authenticate with the internal job token.
	if cfg.InternalJobToken == "" {
		return fmt.Errorf("INTERNAL_JOB_TOKEN is required when QSTASH_ENABLED=true")
	}
	return nil
}

func loadRegistry(cfg *Config) error {
	mode := strings.ToLower(strings.TrimSpace(getEnv("REGISTRY_MODE", RegistryLocal)))
	switch mode {
	case RegistryLocal, RegistryRemote:
	default:
		return fmt.Errorf("invalid REGISTRY_MODE %q: valid values are %s, %s", mode, RegistryLocal, RegistryRemote)
	}
	cfg.RegistryMode = mode

	cfg.RegistryBaseURL = strings.TrimSpace(getEnv("REGISTRY_BASE_URL", ""))
	if mode == RegistryRemote && cfg.RegistryBaseURL == "" {
		return fmt.Errorf("REGISTRY_BASE_URL is required when REGISTRY_MODE=%s", RegistryRemote)
	}
	cfg.RegistryAPIKey = strings.TrimSpace(getEnv("REGISTRY_API_KEY", ""))

	var err error
	if cfg.RegistryTimeout, err = getEnvAsPositiveDuration("REGISTRY_TIMEOUT", "3s"); err != nil {
		return err
	}
	if cfg.RegistryBatchSize, err = getEnvAsMinInt("REGISTRY_BATCH_SIZE", 100, 1); err != nil {
		return err
	}
	if cfg.RegistryMaxConcurrency, err = getEnvAsMinInt("REGISTRY_MAX_CONCURRENCY", 4, 1); err != nil {
		return err
	}
	if cfg.RegistryCircuitEnabled, err = getEnvAsBool("REGISTRY_CIRCUIT_ENABLED", true); err != nil {
		return err
	}
	if cfg.RegistryCircuitFailureCount, err = getEnvAsMinInt("REGISTRY_CIRCUIT_FAILURE_COUNT", 5, 1); err != nil {
		return err
	}
	if cfg.RegistryCircuitOpenTimeout, err = getEnvAsPositiveDuration("REGISTRY_CIRCUIT_OPEN_TIMEOUT", "15s"); err != nil {
		return err
	}
	if cfg.RegistryCircuitHalfOpenMaxReq, err = getEnvAsMinInt("REGISTRY_CIRCUIT_HALF_OPEN_MAX_REQ", 2, 1); err != nil {
		return err
	}
	return nil
}

func loadObservability(cfg *Config) error {
	var err error
	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return err
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.UptraceLogsEnabled, err = getEnvAsBool("UPTRACE_LOGS_ENABLED", true); err != nil {
		return err
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	if cfg.PyroscopeUploadRate, err = getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
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

func getEnvAsMinInt(key string, fallback, minimum int) (int, error) {
	out, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out < minimum {
		return 0, fmt.Errorf("%s must be >= %d", key, minimum)
	}
	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
