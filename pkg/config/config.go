package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreMemory    = "memory"
	StoreFile      = "file"
	StoreConfigMap = "configmap"
	StoreSQLite    = "sqlite"
	StoreMySQL     = "mysql"
	StorePostgres  = "postgres"
)

// Inspector backends
const (
	InspectorRegistry = "registry"
	InspectorDaemon   = "daemon"
)

// DefaultCacheTTL is how long a cached image document stays fresh
const DefaultCacheTTL = time.Hour

// ErrStoreParams is returned when the configured store backend lacks its parameters
var ErrStoreParams = errors.New("document store parameters not set")

// Config is the server configuration file
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Cache     CacheConfig     `yaml:"cache"`
	Store     StoreConfig     `yaml:"store"`
	Inspector InspectorConfig `yaml:"inspector"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CacheConfig configures the freshness policy
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// StoreConfig selects and parameterizes the document store
type StoreConfig struct {
	Backend      string        `yaml:"backend"`
	Path         string        `yaml:"path,omitempty"`
	SaveInterval time.Duration `yaml:"saveInterval,omitempty"`
	DSN          string        `yaml:"dsn,omitempty"`
	Table        string        `yaml:"table,omitempty"`
	Namespace    string        `yaml:"namespace,omitempty"`
	Kubeconfig   string        `yaml:"kubeconfig,omitempty"`
	InCluster    bool          `yaml:"inCluster,omitempty"`
}

// InspectorConfig selects how manifests are inspected on a cache miss
type InspectorConfig struct {
	Backend string        `yaml:"backend"`
	K8sAuth bool          `yaml:"k8sAuth,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads the configuration from a YAML file and applies defaults and env overrides.
// An empty filename yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse parses YAML configuration content and applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreMemory
	}
	if c.Store.Table == "" {
		c.Store.Table = "registryimages"
	}
	if c.Inspector.Backend == "" {
		c.Inspector.Backend = InspectorRegistry
	}
	if c.Inspector.Timeout == 0 {
		c.Inspector.Timeout = 20 * time.Second
	}
}

// applyEnv lets deployment secrets override file values
func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if dsn := os.Getenv("MQUERY_STORE_DSN"); dsn != "" {
		c.Store.DSN = dsn
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = os.Getenv("POD_NAMESPACE")
	}
}

// Validate checks that the parameters required by the selected backends are present
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: %s store requires path", ErrStoreParams, c.Store.Backend)
		}
	case StoreMySQL, StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: %s store requires dsn", ErrStoreParams, c.Store.Backend)
		}
	case StoreConfigMap:
		if c.Store.Namespace == "" {
			return fmt.Errorf("%w: configmap store requires namespace", ErrStoreParams)
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}

	switch c.Inspector.Backend {
	case InspectorRegistry, InspectorDaemon:
	default:
		return fmt.Errorf("unsupported inspector backend: %s", c.Inspector.Backend)
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative: %s", c.Cache.TTL)
	}
	return nil
}
