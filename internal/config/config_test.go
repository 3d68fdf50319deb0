package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "config-test-secret-123"

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("CFG_TEST_HOST", "db.internal")
	out := substituteEnvVars("host=${CFG_TEST_HOST} port=${CFG_TEST_PORT:-5432} user=${CFG_TEST_USER}")
	assert.Equal(t, "host=db.internal port=5432 user=", out)
}

func TestLoadFromYAML(t *testing.T) {
	t.Setenv("CFG_TEST_SECRET", secret)
	dir := t.TempDir()
	path := filepath.Join(dir, "taskgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_addr: ":9000"
  max_body_bytes: 2048
  allowed_origins: ["https://app.example.com"]
rate_limit:
  requests_per_second: 5
  burst: 10
auth:
  jwt_secret: ${CFG_TEST_SECRET}
  token_ttl: 30m
seed_demo: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.HTTPAddr)
	assert.Equal(t, ":9090", cfg.Server.GRPCAddr, "unset keys keep defaults")
	assert.Equal(t, int64(2048), cfg.Server.MaxBodyBytes)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "taskgate", cfg.Auth.Issuer)
	assert.True(t, cfg.SeedDemo)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("TASKGATE_JWT_SECRET", secret)
	t.Setenv("TASKGATE_HTTP_ADDR", ":7000")
	t.Setenv("TASKGATE_RATE_BURST", "3")
	t.Setenv("TASKGATE_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TASKGATE_TOKEN_TTL", "2h")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.HTTPAddr)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := Load("")
	assert.ErrorContains(t, err, "jwt_secret")

	t.Setenv("TASKGATE_JWT_SECRET", secret)
	t.Setenv("TASKGATE_RATE_RPS", "fast")
	_, err = Load("")
	assert.ErrorContains(t, err, "TASKGATE_RATE_RPS")

	_, err = Load("../etc/taskgate.yaml")
	assert.ErrorContains(t, err, "path traversal")
	_, err = Load("taskgate.json")
	assert.ErrorContains(t, err, "only .yaml")
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env.local")
	second := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(first, []byte("CFG_TEST_DOTENV=local\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("CFG_TEST_DOTENV=base\nCFG_TEST_DOTENV_ONLY=base\n"), 0o600))
	t.Setenv("CFG_TEST_DOTENV", "")
	os.Unsetenv("CFG_TEST_DOTENV")
	t.Setenv("CFG_TEST_DOTENV_ONLY", "")
	os.Unsetenv("CFG_TEST_DOTENV_ONLY")

	loaded := LoadEnvFiles(first, filepath.Join(dir, "missing.env"), second)
	assert.Equal(t, []string{first, second}, loaded)
	assert.Equal(t, "local", os.Getenv("CFG_TEST_DOTENV"))
	assert.Equal(t, "base", os.Getenv("CFG_TEST_DOTENV_ONLY"))
}
