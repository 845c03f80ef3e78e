package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the knowledge graph client configuration.
type Config struct {
	Nexus   NexusConfig   `yaml:"nexus"`
	Upload  UploadConfig  `yaml:"upload"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// NexusConfig addresses the knowledge graph service.
type NexusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
	Namespace string `yaml:"namespace"` // base of generated ids (default: endpoint)
	Token     string `yaml:"token"`
	// TimeoutSec bounds every HTTP round-trip.
	TimeoutSec        int      `yaml:"timeout_sec"`
	SupportedVersions []string `yaml:"supported_versions"`
}

// UploadConfig controls the upload orchestrator.
type UploadConfig struct {
	FullyQualified              *bool  `yaml:"fully_qualified"`                 // default: true
	FailIfLinkedInstanceMissing *bool  `yaml:"fail_if_linked_instance_missing"` // default: true
	ChecksumFiles               bool   `yaml:"checksum_files"`
	Pattern                     string `yaml:"pattern"`
}

// CacheConfig holds identifier resolution cache settings.
type CacheConfig struct {
	TTLSec int         `yaml:"ttl_sec"` // 0 = keep for the whole batch
	Redis  RedisConfig `yaml:"redis"`
}

// RedisConfig enables the shared resolution cache when Addrs is set.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// MetricsConfig holds prometheus settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// Textfile receives the metrics in text exposition format when a run ends.
	Textfile string `yaml:"textfile"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a configuration from NEXUS_ENDPOINT, NEXUS_PREFIX, NEXUS_NAMESPACE and NEXUS_TOKEN.
// The result is defaulted but not validated.
func FromEnv() Config {
	cfg := Config{Nexus: NexusConfig{
		Endpoint:  os.Getenv("NEXUS_ENDPOINT"),
		Prefix:    os.Getenv("NEXUS_PREFIX"),
		Namespace: os.Getenv("NEXUS_NAMESPACE"),
		Token:     os.Getenv("NEXUS_TOKEN"),
	}}
	cfg.ApplyDefaults()
	return cfg
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	c.Nexus.Endpoint = strings.TrimSuffix(c.Nexus.Endpoint, "/")
	c.Nexus.Prefix = strings.Trim(c.Nexus.Prefix, "/")
	if c.Nexus.Namespace == "" {
		c.Nexus.Namespace = c.Nexus.Endpoint
	}
	if c.Nexus.TimeoutSec <= 0 {
		c.Nexus.TimeoutSec = 30
	}
	if len(c.Nexus.SupportedVersions) == 0 {
		c.Nexus.SupportedVersions = []string{"0.9.5", "0.9.8"}
	}
	if c.Upload.FullyQualified == nil {
		c.Upload.FullyQualified = boolPtr(true)
	}
	if c.Upload.FailIfLinkedInstanceMissing == nil {
		c.Upload.FailIfLinkedInstanceMissing = boolPtr(true)
	}
	if c.Upload.Pattern == "" {
		c.Upload.Pattern = "**/*.json"
	}
	if c.Cache.Redis.KeyPrefix == "" {
		c.Cache.Redis.KeyPrefix = "kgclient:resolve:"
	}
	if c.Cache.Redis.ReadinessTimeout <= 0 {
		c.Cache.Redis.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Nexus.Endpoint == "" {
		return fmt.Errorf("nexus.endpoint is required")
	}
	u, err := url.Parse(c.Nexus.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("nexus.endpoint must be an absolute http(s) URL, got %q", c.Nexus.Endpoint)
	}
	if c.Nexus.Prefix == "" {
		return fmt.Errorf("nexus.prefix is required")
	}
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must not be negative, got %d", c.Cache.TTLSec)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
