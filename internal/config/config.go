// Package config loads weft.yaml, applies environment overrides and validates
// the result.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/weft/internal/runtime"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "weft.yaml"

// Environment overrides.
const (
	EnvServiceURL = "WEFT_SERVICE_URL"
	EnvRedisAddr  = "WEFT_REDIS_ADDR"
	EnvLogLevel   = "WEFT_LOG_LEVEL"
	EnvStoreDir   = "WEFT_STORE_DIR"
	EnvStoreKey   = "WEFT_STORE_KEY"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverFile   = "file"
)

// Config is the weft.yaml layout.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Graph   string        `yaml:"graph"`
	Service ServiceConfig `yaml:"service"`
	Run     RunConfig     `yaml:"run"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// ServiceConfig selects the node executor: the remote service at URL, or a
// local commands file when Commands is set.
type ServiceConfig struct {
	URL          string            `yaml:"url"`
	Timeout      time.Duration     `yaml:"timeout"`
	DefaultModel string            `yaml:"default_model"`
	Commands     string            `yaml:"commands"`
	Headers      map[string]string `yaml:"headers"`
}

type RunConfig struct {
	FailurePolicy string `yaml:"failure_policy"`
	CyclePolicy   string `yaml:"cycle_policy"`
}

type StoreConfig struct {
	Driver string      `yaml:"driver"`
	Redis  RedisConfig `yaml:"redis"`
	Dir    string      `yaml:"dir"`

	// EncryptionKey is a base64 AES-256 key. When set, reports are sealed.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	// Mask lists regular expressions; matching output keys are masked on save.
	Mask []string `yaml:"mask"`
}

// Keys decodes the configured encryption keys. active is nil when
// encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	decode := func(k string) ([]byte, error) {
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("store key is not base64: %w", err)
		}
		if len(b) != 32 {
			return nil, fmt.Errorf("store key must decode to 32 bytes, got %d", len(b))
		}
		return b, nil
	}
	if active, err = decode(s.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for _, k := range s.FallbackKeys {
		b, err := decode(k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, b)
	}
	return active, fallback, nil
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type ServerConfig struct {
	Port    int  `yaml:"port"`
	Metrics bool `yaml:"metrics"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Service: ServiceConfig{URL: "http://localhost:3000", Timeout: 2 * time.Minute, DefaultModel: runtime.DefaultModel},
		Run:     RunConfig{FailurePolicy: string(runtime.FailureContinue), CyclePolicy: string(runtime.CycleDrop)},
		Store:   StoreConfig{Driver: DriverMemory, Redis: RedisConfig{Addr: "localhost:6379"}, Dir: ".weft/runs"},
		Server:  ServerConfig{Port: 8080, Metrics: true},
	}
}

// Load reads path over the defaults. A missing file is not an error unless
// required is set. Environment overrides are applied last.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvServiceURL); ok && v != "" {
		c.Service.URL = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Store.Redis.Addr = v
		if c.Store.Driver == DriverMemory {
			c.Store.Driver = DriverRedis
		}
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvStoreDir); ok && v != "" {
		c.Store.Dir = v
	}
	if v, ok := lookup(EnvStoreKey); ok && v != "" {
		c.Store.EncryptionKey = v
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := runtime.ParseFailurePolicy(c.Run.FailurePolicy); err != nil {
		return fmt.Errorf("run.failure_policy: %w", err)
	}
	if _, err := runtime.ParseCyclePolicy(c.Run.CyclePolicy); err != nil {
		return fmt.Errorf("run.cycle_policy: %w", err)
	}
	switch strings.ToLower(c.Store.Driver) {
	case DriverMemory:
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis driver")
		}
	case DriverFile:
		if c.Store.Dir == "" {
			return errors.New("store.dir is required for the file driver")
		}
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return fmt.Errorf("store.encryption_key: %w", err)
	}
	for _, p := range c.Store.Mask {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("store.mask: %w", err)
		}
	}
	if c.Service.URL == "" && c.Service.Commands == "" {
		return errors.New("service.url or service.commands is required")
	}
	if c.Service.Timeout < 0 {
		return errors.New("service.timeout must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %s out of range", strconv.Itoa(c.Server.Port))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}
