package config

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"ADDR", "API_BASE", "LOG_LEVEL", "LOG_FORMAT", "STORE_ENABLED",
	"PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DB", "PG_SSLMODE", "PG_MAX_OPEN_CONNS", "PG_MAX_IDLE_CONNS",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASS", "REDIS_DB",
	"RESULT_CACHE_TTL_S", "RESULT_CACHE_LRU_SIZE", "RATE_LIMIT_ENABLED", "RATE_LIMIT_QPS", "AUDIT_CAPACITY",
	"STACK_HEIGHT_PER_CANDIDATE", "STACK_MAX_HEIGHT", "STACK_FOOTPRINT", "STACK_VOTE_SATURATION",
	"STACK_INTENSITY_FLOOR", "STACK_ALPHA", "TLS_ENABLE", "TLS_CERT_PATH", "TLS_KEY_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	c := FromEnv()
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "/api", c.APIBase)
	assert.Equal(t, "info", c.LogLevel)
	assert.True(t, c.StoreEnabled)
	assert.True(t, c.RedisEnabled)
	assert.Equal(t, 10*time.Minute, c.ResultCacheTTL)
	assert.Equal(t, 256, c.ResultCacheSize)
	assert.False(t, c.RateLimitEnabled)
	assert.Equal(t, 200, c.RateLimitQPS)
	assert.Equal(t, 100, c.AuditCapacity)
	assert.Equal(t, Stack{HeightPerCandidate: 0.1, MaxHeight: 2.0, Footprint: 0.05, VoteSaturation: 1000, IntensityFloor: 0.3, Alpha: 200}, c.Stack)
	assert.Equal(t, "postgres://postgres@localhost:5432/voterecon?sslmode=disable", c.PostgresDSN())
	assert.Equal(t, "127.0.0.1:6379", c.RedisAddr())
	assert.Equal(t, filepath.Join("data", "certs", "server.crt"), c.TLSCertPath)
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":9090")
	t.Setenv("PG_USER", "recon")
	t.Setenv("PG_PASSWORD", "s3cret")
	t.Setenv("PG_HOST", "db")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RESULT_CACHE_TTL_S", "30")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("STACK_MAX_HEIGHT", "5.5")
	t.Setenv("STACK_ALPHA", "128")

	c := FromEnv()
	assert.Equal(t, ":9090", c.Addr)
	assert.Equal(t, "postgres://recon:s3cret@db:5432/voterecon?sslmode=disable", c.PostgresDSN())
	assert.False(t, c.RedisEnabled)
	assert.Equal(t, 3, c.Redis.DB)
	assert.Equal(t, 30*time.Second, c.ResultCacheTTL)
	assert.True(t, c.RateLimitEnabled)
	assert.Equal(t, 5.5, c.Stack.MaxHeight)
	assert.Equal(t, 128, c.Stack.Alpha)
}

func TestInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_ENABLED", "maybe")
	t.Setenv("AUDIT_CAPACITY", "-5")
	t.Setenv("RATE_LIMIT_QPS", "fast")
	t.Setenv("STACK_FOOTPRINT", "NaN")
	t.Setenv("STACK_INTENSITY_FLOOR", "-1")
	t.Setenv("STACK_ALPHA", "300")

	c := FromEnv()
	assert.True(t, c.StoreEnabled)
	assert.Equal(t, 100, c.AuditCapacity)
	assert.Equal(t, 200, c.RateLimitQPS)
	assert.Equal(t, 0.05, c.Stack.Footprint)
	assert.Equal(t, 0.3, c.Stack.IntensityFloor)
	assert.Equal(t, 200, c.Stack.Alpha)
}

func TestIntensityFloorRange(t *testing.T) {
	clearEnv(t)
	t.Setenv("STACK_INTENSITY_FLOOR", "2")
	assert.Equal(t, 0.3, FromEnv().Stack.IntensityFloor)
	t.Setenv("STACK_INTENSITY_FLOOR", "1")
	assert.Equal(t, 1.0, FromEnv().Stack.IntensityFloor)
}

func TestPostgresDSNEscapesCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("PG_USER", "ops@recon")
	t.Setenv("PG_PASSWORD", "p@ss/w:rd?#")
	t.Setenv("PG_DB", "votes")

	dsn := FromEnv().PostgresDSN()
	u, err := url.Parse(dsn)
	require.NoError(t, err, dsn)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "ops@recon", u.User.Username())
	pw, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "p@ss/w:rd?#", pw)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "/votes", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv 不覆盖已存在的变量；清空后取消设置以便从文件读取
	require.NoError(t, os.Unsetenv("AUDIT_CAPACITY"))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AUDIT_CAPACITY=7\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("AUDIT_CAPACITY")
	})

	assert.Equal(t, 7, Load().AuditCapacity)
}
