package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-matchengine/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	LogLevel                logging.Level
	CORSAllowedOrigins      []string
	DBURL                   string
	DBDisablePreparedBinary bool
	DBCircuitEnabled        bool
	DBCircuitFailureCount   int
	DBCircuitOpenTimeout    time.Duration
	DBCircuitHalfOpenMaxReq int
	SimTickInterval         time.Duration
	SimMinuteStep           int
	SimStoppageMinutes      int
	SimMaxConcurrent        int
	SimCompletionWorkers    int
	PointsCacheTTL          time.Duration
	PlayerCacheTTL          time.Duration
	ValuationTrendThreshold int64
	UptraceEnabled          bool
	UptraceDSN              string
	PyroscopeEnabled        bool
	PyroscopeServerAddress  string
	PyroscopeAppName        string
	PyroscopeUploadRate     time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("WRITE_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WRITE_TIMEOUT: %w", err)
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY: %w", err)
	}
	dbCircuitEnabled, err := strconv.ParseBool(getEnv("DB_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_CIRCUIT_ENABLED: %w", err)
	}
	dbCircuitFailureCount, err := getEnvAsInt("DB_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if dbCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("DB_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	dbCircuitOpenTimeout, err := time.ParseDuration(getEnv("DB_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if dbCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("DB_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	dbCircuitHalfOpenMaxReq, err := getEnvAsInt("DB_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if dbCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("DB_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	simTickInterval, err := time.ParseDuration(getEnv("SIM_TICK_INTERVAL", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SIM_TICK_INTERVAL: %w", err)
	}
	if simTickInterval <= 0 {
		return Config{}, fmt.Errorf("SIM_TICK_INTERVAL must be > 0")
	}
	simMinuteStep, err := getEnvAsInt("SIM_MINUTE_STEP", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse SIM_MINUTE_STEP: %w", err)
	}
	if simMinuteStep < 1 || simMinuteStep > 15 {
		return Config{}, fmt.Errorf("SIM_MINUTE_STEP must be between 1 and 15")
	}
	simStoppageMinutes, err := getEnvAsInt("SIM_STOPPAGE_MINUTES", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse SIM_STOPPAGE_MINUTES: %w", err)
	}
	if simStoppageMinutes < 0 || simStoppageMinutes > 15 {
		return Config{}, fmt.Errorf("SIM_STOPPAGE_MINUTES must be between 0 and 15")
	}
	simMaxConcurrent, err := getEnvAsInt("SIM_MAX_CONCURRENT", 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse SIM_MAX_CONCURRENT: %w", err)
	}
	if simMaxConcurrent < 1 {
		return Config{}, fmt.Errorf("SIM_MAX_CONCURRENT must be >= 1")
	}
	simCompletionWorkers, err := getEnvAsInt("SIM_COMPLETION_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SIM_COMPLETION_WORKERS: %w", err)
	}
	if simCompletionWorkers < 1 {
		return Config{}, fmt.Errorf("SIM_COMPLETION_WORKERS must be >= 1")
	}

	pointsCacheTTL, err := time.ParseDuration(getEnv("POINTS_CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse POINTS_CACHE_TTL: %w", err)
	}
	if pointsCacheTTL < 0 {
		return Config{}, fmt.Errorf("POINTS_CACHE_TTL must be >= 0")
	}
	playerCacheTTL, err := time.ParseDuration(getEnv("PLAYER_CACHE_TTL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PLAYER_CACHE_TTL: %w", err)
	}
	if playerCacheTTL < 0 {
		return Config{}, fmt.Errorf("PLAYER_CACHE_TTL must be >= 0")
	}
	trendThreshold, err := getEnvAsInt("VALUATION_TREND_THRESHOLD", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse VALUATION_TREND_THRESHOLD: %w", err)
	}
	if trendThreshold < 0 {
		return Config{}, fmt.Errorf("VALUATION_TREND_THRESHOLD must be >= 0")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	serviceName := strings.TrimSpace(getEnv("SERVICE_NAME", "fantasy-matchengine"))

	corsAllowedOrigins := splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	if len(corsAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return Config{
		AppEnv:                  appEnv,
		ServiceName:             serviceName,
		ServiceVersion:          strings.TrimSpace(getEnv("SERVICE_VERSION", "dev")),
		HTTPAddr:                strings.TrimSpace(getEnv("HTTP_ADDR", ":8080")),
		ReadTimeout:             readTimeout,
		WriteTimeout:            writeTimeout,
		LogLevel:                logging.ParseLevel(strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info")))),
		CORSAllowedOrigins:      corsAllowedOrigins,
		DBURL:                   strings.TrimSpace(getEnv("DB_URL", "")),
		DBDisablePreparedBinary: dbDisablePreparedBinary,
		DBCircuitEnabled:        dbCircuitEnabled,
		DBCircuitFailureCount:   dbCircuitFailureCount,
		DBCircuitOpenTimeout:    dbCircuitOpenTimeout,
		DBCircuitHalfOpenMaxReq: dbCircuitHalfOpenMaxReq,
		SimTickInterval:         simTickInterval,
		SimMinuteStep:           simMinuteStep,
		SimStoppageMinutes:      simStoppageMinutes,
		SimMaxConcurrent:        simMaxConcurrent,
		SimCompletionWorkers:    simCompletionWorkers,
		PointsCacheTTL:          pointsCacheTTL,
		PlayerCacheTTL:          playerCacheTTL,
		ValuationTrendThreshold: int64(trendThreshold),
		UptraceEnabled:          uptraceEnabled,
		UptraceDSN:              uptraceDSN,
		PyroscopeEnabled:        pyroscopeEnabled,
		PyroscopeServerAddress:  pyroscopeServerAddress,
		PyroscopeAppName:        strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", serviceName)),
		PyroscopeUploadRate:     pyroscopeUploadRate,
	}, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
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
