package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/padelflow/storage"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL      string        `yaml:"database_url"`
	DBConnectTimeout time.Duration `yaml:"db_connect_timeout"`
	JWTSecretKey     string        `yaml:"jwt_secret_key"`
	ServerPort       int           `yaml:"server_port"`
	LogLevel         string        `yaml:"log_level"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// лимит POST /matches/{id}/score на одного клиента
	ScoreRateLimit float64 `yaml:"score_rate_limit"`
	ScoreRateBurst int     `yaml:"score_rate_burst"`

	R2 storage.CloudflareR2UploaderConfig `yaml:"r2"`
}

func defaults() *Config {
	return &Config{
		DBConnectTimeout:   5 * time.Second,
		ServerPort:         8080,
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"*"},
		ScoreRateLimit:     5,
		ScoreRateBurst:     10,
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML из
// CONFIG_FILE (если задан), затем переменные окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := defaults()

	if path := getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString("DATABASE_URL", &c.DatabaseURL)
	setString("JWT_SECRET_KEY", &c.JWTSecretKey)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("R2_ACCOUNT_ID", &c.R2.AccountID)
	setString("R2_ACCESS_KEY_ID", &c.R2.AccessKeyID)
	setString("R2_SECRET_ACCESS_KEY", &c.R2.SecretAccessKey)
	setString("R2_BUCKET_NAME", &c.R2.BucketName)
	setString("R2_PUBLIC_BASE_URL", &c.R2.PublicBaseURL)

	if v := getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
		}
		c.ServerPort = port
	}
	if v := getenv("DB_CONNECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DB_CONNECT_TIMEOUT environment variable: %w", err)
		}
		c.DBConnectTimeout = d
	}
	if v := getenv("SCORE_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid SCORE_RATE_LIMIT environment variable: %w", err)
		}
		c.ScoreRateLimit = f
	}
	if v := getenv("SCORE_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCORE_RATE_BURST environment variable: %w", err)
		}
		c.ScoreRateBurst = n
	}
	if v := getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSAllowedOrigins = origins
	}
	return nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}
	if c.JWTSecretKey == "" {
		return errors.New("JWT_SECRET_KEY environment variable is not set")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.DBConnectTimeout <= 0 {
		return fmt.Errorf("DB_CONNECT_TIMEOUT must be positive, got %s", c.DBConnectTimeout)
	}
	if c.ScoreRateLimit <= 0 || c.ScoreRateBurst <= 0 {
		return errors.New("SCORE_RATE_LIMIT and SCORE_RATE_BURST must be positive")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.R2.Partial() {
		return errors.New("R2 storage is partially configured: set all R2_* variables or none")
	}
	return nil
}

// ParseLogLevel переводит debug|info|warn|error в slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}
