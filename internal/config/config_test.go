package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "weft.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default().Service.DefaultModel, cfg.Service.DefaultModel)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)

	_, err = Load(filepath.Join(t.TempDir(), "weft.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_FileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
graph: flows/outreach.json
service:
  url: https://editor.example.com
  timeout: 30s
run:
  failure_policy: skip-dependents
store:
  driver: redis
  redis:
    addr: cache:6379
    ttl: 24h
`), 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "flows/outreach.json", cfg.Graph)
	assert.Equal(t, "https://editor.example.com", cfg.Service.URL)
	assert.Equal(t, 30*time.Second, cfg.Service.Timeout)
	assert.Equal(t, "skip-dependents", cfg.Run.FailurePolicy)
	assert.Equal(t, "drop", cfg.Run.CyclePolicy, "unset keys keep defaults")
	assert.Equal(t, 24*time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service: ["), 0o644))
	_, err := Load(path, true)
	assert.ErrorContains(t, err, "failed to parse")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvServiceURL: "http://svc:9000",
		EnvRedisAddr:  "redis:6379",
		EnvLogLevel:   "debug",
	}
	cfg := Default()
	cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "http://svc:9000", cfg.Service.URL)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, DriverRedis, cfg.Store.Driver, "a redis address selects the redis driver")
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvServiceURL, "http://from-env")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env", cfg.Service.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"failure policy", func(c *Config) { c.Run.FailurePolicy = "retry" }, "run.failure_policy"},
		{"cycle policy", func(c *Config) { c.Run.CyclePolicy = "loop" }, "run.cycle_policy"},
		{"driver", func(c *Config) { c.Store.Driver = "etcd" }, "store.driver"},
		{"redis addr", func(c *Config) { c.Store.Driver = DriverRedis; c.Store.Redis.Addr = "" }, "store.redis.addr"},
		{"file dir", func(c *Config) { c.Store.Driver = DriverFile; c.Store.Dir = "" }, "store.dir"},
		{"executor", func(c *Config) { c.Service.URL = "" }, "service.url"},
		{"timeout", func(c *Config) { c.Service.Timeout = -time.Second }, "service.timeout"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
	cfg := Default()
	cfg.Service.URL = ""
	cfg.Service.Commands = "executors.yaml"
	assert.NoError(t, cfg.Validate(), "local commands replace the service")
}

func TestStoreKeys(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	active, fallback, err := StoreConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active, "no key means no encryption")
	assert.Nil(t, fallback)

	active, fallback, err = StoreConfig{EncryptionKey: key, FallbackKeys: []string{key}}.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Len(t, fallback, 1)

	cfg := Default()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short"))
	assert.ErrorContains(t, cfg.Validate(), "32 bytes")

	cfg = Default()
	cfg.Store.EncryptionKey = "not base64!"
	assert.ErrorContains(t, cfg.Validate(), "store.encryption_key")

	cfg = Default()
	cfg.Store.Mask = []string{"("}
	assert.ErrorContains(t, cfg.Validate(), "store.mask")
}
