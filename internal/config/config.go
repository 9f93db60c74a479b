package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API         APIConfig     `yaml:"api"`
	Session     SessionConfig `yaml:"session"`
	Logging     LoggingConfig `yaml:"logging"`
	Tracing     TracingConfig `yaml:"tracing"`
	MockAPI     MockAPIConfig `yaml:"mock_api"`
	Environment string        `yaml:"environment"`
}

type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond int           `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	UserAgent         string        `yaml:"user_agent"`
}

type SessionConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

type MockAPIConfig struct {
	Addr              string        `yaml:"addr"`
	JWTSecret         string        `yaml:"jwt_secret"`
	JWTExpiry         time.Duration `yaml:"jwt_expiry"`
	RatePerMinute     int           `yaml:"rate_per_minute"`
	LoginPer15Minutes int           `yaml:"login_per_15_minutes"`
	DefaultPerPage    int           `yaml:"default_per_page"`
	// AllowedOrigins lists CORS origins; empty allows any origin outside
	// production.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins). A .env file in
// the working directory is loaded first if present; variables that are
// already set are not overwritten.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:           "http://localhost:8080/api",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
			UserAgent:         "eventdesk",
		},
		Session: SessionConfig{
			Path: defaultSessionPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Exporter:    "stdout",
			ServiceName: "eventdesk",
			SampleRate:  1.0,
		},
		MockAPI: MockAPIConfig{
			Addr:              "127.0.0.1:8080",
			JWTSecret:         "dev_jwt_secret_change_me_in_production",
			JWTExpiry:         24 * time.Hour,
			RatePerMinute:     300,
			LoginPer15Minutes: 20,
			DefaultPerPage:    10,
		},
		Environment: "development",
	}
}

func (c Config) Validate() error {
	if err := validation.ValidateAPIURL(c.API.BaseURL, "EVENTDESK_API_URL", c.Environment == "production"); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("EVENTDESK_API_TIMEOUT must be positive")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("EVENTDESK_TRACING_SAMPLE_RATE must be between 0.0 and 1.0")
	}
	if c.Environment == "production" && c.MockAPI.JWTSecret == Defaults().MockAPI.JWTSecret {
		return fmt.Errorf("EVENTDESK_MOCK_JWT_SECRET must be changed in production")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.API.BaseURL = getEnv("EVENTDESK_API_URL", cfg.API.BaseURL)
	cfg.API.Timeout = getEnvDuration("EVENTDESK_API_TIMEOUT", cfg.API.Timeout)
	cfg.API.RequestsPerSecond = getEnvInt("EVENTDESK_API_RPS", cfg.API.RequestsPerSecond)
	cfg.API.Burst = getEnvInt("EVENTDESK_API_BURST", cfg.API.Burst)
	cfg.API.UserAgent = getEnv("EVENTDESK_USER_AGENT", cfg.API.UserAgent)

	cfg.Session.Path = getEnv("EVENTDESK_SESSION_FILE", cfg.Session.Path)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = getEnv("TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.OTLPEndpoint = getEnv("TRACING_OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)
	cfg.Tracing.SampleRate = getEnvFloat("EVENTDESK_TRACING_SAMPLE_RATE", cfg.Tracing.SampleRate)

	cfg.MockAPI.Addr = getEnv("EVENTDESK_MOCK_ADDR", cfg.MockAPI.Addr)
	cfg.MockAPI.JWTSecret = getEnv("EVENTDESK_MOCK_JWT_SECRET", cfg.MockAPI.JWTSecret)
	cfg.MockAPI.JWTExpiry = time.Duration(getEnvInt("EVENTDESK_MOCK_JWT_EXPIRY_HOURS", int(cfg.MockAPI.JWTExpiry/time.Hour))) * time.Hour
	cfg.MockAPI.RatePerMinute = getEnvInt("EVENTDESK_MOCK_RATE_PER_MINUTE", cfg.MockAPI.RatePerMinute)
	cfg.MockAPI.LoginPer15Minutes = getEnvInt("EVENTDESK_MOCK_LOGIN_PER_15_MINUTES", cfg.MockAPI.LoginPer15Minutes)
	if origins := getEnv("EVENTDESK_MOCK_CORS_ORIGINS", ""); origins != "" {
		cfg.MockAPI.AllowedOrigins = splitList(origins)
	}

	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "eventdesk", "session.yaml")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvDuration accepts Go duration strings ("30s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
