package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":   "postgres://padel@localhost/padel?sslmode=disable",
		"JWT_SECRET_KEY": "secret",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envFrom(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 5*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5.0, cfg.ScoreRateLimit)
	assert.Equal(t, 10, cfg.ScoreRateBurst)
	assert.False(t, cfg.R2.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	env := baseEnv()
	env["SERVER_PORT"] = "9090"
	env["LOG_LEVEL"] = "debug"
	env["DB_CONNECT_TIMEOUT"] = "2s"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example.com, https://b.example.com,"
	env["SCORE_RATE_LIMIT"] = "0.5"
	env["SCORE_RATE_BURST"] = "3"
	env["R2_ACCOUNT_ID"] = "acc"
	env["R2_ACCESS_KEY_ID"] = "key"
	env["R2_SECRET_ACCESS_KEY"] = "secret"
	env["R2_BUCKET_NAME"] = "brackets"
	env["R2_PUBLIC_BASE_URL"] = "https://cdn.example.com"

	cfg, err := load(envFrom(env))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 0.5, cfg.ScoreRateLimit)
	assert.Equal(t, 3, cfg.ScoreRateBurst)
	assert.True(t, cfg.R2.Enabled())
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "padelflow.yaml")
	content := `
database_url: postgres://file@db/padel
jwt_secret_key: from-file
server_port: 7000
db_connect_timeout: 3s
cors_allowed_origins: ["https://padel.example.com"]
r2:
  account_id: acc
  access_key_id: key
  secret_access_key: secret
  bucket_name: brackets
  public_base_url: https://cdn.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := load(envFrom(map[string]string{
		"CONFIG_FILE": path,
		"SERVER_PORT": "7100",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://file@db/padel", cfg.DatabaseURL)
	assert.Equal(t, "from-file", cfg.JWTSecretKey)
	assert.Equal(t, 7100, cfg.ServerPort, "env wins over file")
	assert.Equal(t, 3*time.Second, cfg.DBConnectTimeout)
	assert.Equal(t, []string{"https://padel.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "brackets", cfg.R2.BucketName)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(env map[string]string)
	}{
		{"missing database url", func(env map[string]string) { delete(env, "DATABASE_URL") }},
		{"missing jwt secret", func(env map[string]string) { delete(env, "JWT_SECRET_KEY") }},
		{"port not a number", func(env map[string]string) { env["SERVER_PORT"] = "http" }},
		{"port out of range", func(env map[string]string) { env["SERVER_PORT"] = "70000" }},
		{"bad timeout", func(env map[string]string) { env["DB_CONNECT_TIMEOUT"] = "soon" }},
		{"bad log level", func(env map[string]string) { env["LOG_LEVEL"] = "loud" }},
		{"zero rate", func(env map[string]string) { env["SCORE_RATE_LIMIT"] = "0" }},
		{"partial r2", func(env map[string]string) { env["R2_BUCKET_NAME"] = "brackets" }},
		{"missing config file", func(env map[string]string) { env["CONFIG_FILE"] = "/nonexistent/padelflow.yaml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			tt.mod(env)
			_, err := load(envFrom(env))
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}
