package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jirevwe/archserver/pool"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr        = "0.0.0.0:3000"
	DefaultWorkers     = 4
	DefaultReadTimeout = 5 * time.Second
	DefaultRetries     = 3
	DefaultRetryDelay  = 50 * time.Millisecond
)

// FileConfig is the on-disk shape of the configuration file. Counts are
// pointers so that an explicit zero reaches Validate instead of the default.
type FileConfig struct {
	Addr           string          `yaml:"addr" json:"addr"`
	Workers        *int            `yaml:"workers" json:"workers"`
	ShutdownPolicy string          `yaml:"shutdown_policy" json:"shutdown_policy"`
	ReadTimeout    string          `yaml:"read_timeout" json:"read_timeout"`
	MetricsAddr    string          `yaml:"metrics_addr" json:"metrics_addr"`
	Log            LogConfig       `yaml:"log" json:"log"`
	AccessLog      AccessLogConfig `yaml:"access_log" json:"access_log"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type AccessLogConfig struct {
	Path       string `yaml:"path" json:"path"`
	Retries    *int   `yaml:"retries" json:"retries"`
	RetryDelay string `yaml:"retry_delay" json:"retry_delay"`
}

// Config is the resolved server configuration.
type Config struct {
	Addr           string
	Workers        int
	ShutdownPolicy pool.ShutdownPolicy
	ReadTimeout    time.Duration
	MetricsAddr    string

	LogLevel  string
	LogFormat string

	AccessLogPath       string
	AccessLogRetries    int
	AccessLogRetryDelay time.Duration
}

func Default() Config {
	return Config{
		Addr:                DefaultAddr,
		Workers:             DefaultWorkers,
		ShutdownPolicy:      pool.Drain,
		ReadTimeout:         DefaultReadTimeout,
		LogLevel:            "info",
		LogFormat:           "text",
		AccessLogRetries:    DefaultRetries,
		AccessLogRetryDelay: DefaultRetryDelay,
	}
}

// LoadFile reads a YAML or JSON configuration file, picked by extension.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config FileConfig
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	return &config, nil
}

// Load reads path and resolves it on top of Default. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	fc, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg, err := fc.ToConfig()
	if err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// ToConfig resolves the file values over the defaults.
func (f *FileConfig) ToConfig() (Config, error) {
	config := Default()

	if f.Addr != "" {
		config.Addr = f.Addr
	}
	if f.Workers != nil {
		config.Workers = *f.Workers
	}
	if f.ShutdownPolicy != "" {
		policy, err := ParseShutdownPolicy(f.ShutdownPolicy)
		if err != nil {
			return config, err
		}
		config.ShutdownPolicy = policy
	}
	if f.ReadTimeout != "" {
		d, err := time.ParseDuration(f.ReadTimeout)
		if err != nil {
			return config, fmt.Errorf("invalid read_timeout: %w", err)
		}
		config.ReadTimeout = d
	}
	config.MetricsAddr = f.MetricsAddr

	if f.Log.Level != "" {
		config.LogLevel = strings.ToLower(f.Log.Level)
	}
	if f.Log.Format != "" {
		config.LogFormat = strings.ToLower(f.Log.Format)
	}

	config.AccessLogPath = f.AccessLog.Path
	if f.AccessLog.Retries != nil {
		config.AccessLogRetries = *f.AccessLog.Retries
	}
	if f.AccessLog.RetryDelay != "" {
		d, err := time.ParseDuration(f.AccessLog.RetryDelay)
		if err != nil {
			return config, fmt.Errorf("invalid access_log.retry_delay: %w", err)
		}
		config.AccessLogRetryDelay = d
	}

	return config, nil
}

func ParseShutdownPolicy(s string) (pool.ShutdownPolicy, error) {
	switch strings.ToLower(s) {
	case "drain":
		return pool.Drain, nil
	case "discard":
		return pool.Discard, nil
	default:
		return pool.Drain, fmt.Errorf("unknown shutdown policy: %s", s)
	}
}

// Validate checks the resolved configuration.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}
	if c.ReadTimeout < 0 {
		errs = append(errs, errors.New("read_timeout must be non-negative"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level: %s", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %s", c.LogFormat))
	}
	if c.AccessLogRetries < 1 {
		errs = append(errs, errors.New("access_log.retries must be at least 1"))
	}
	if c.AccessLogRetryDelay < 0 {
		errs = append(errs, errors.New("access_log.retry_delay must be non-negative"))
	}

	return errors.Join(errs...)
}
