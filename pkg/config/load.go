package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TINYREC_PORT
const EnvPrefix = "TINYREC"

// Snapshot backends
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config is the runtime configuration of the server
type Config struct {
	Port               string
	DataDir            string
	SnapshotBackend    string
	MaxMemoryMB        int64
	LogCapacity        int
	MaxMessageLength   int
	SampleInterval     time.Duration
	CheckpointInterval time.Duration
	ResourceBudgetMB   int64
	LogLevel           string
	LogFormat          string
}

// ResourceBudgetBytes returns the resource budget in bytes
func (c *Config) ResourceBudgetBytes() uint64 {
	if c.ResourceBudgetMB <= 0 {
		return 0
	}
	return uint64(c.ResourceBudgetMB) << 20
}

// Load reads configuration from defaults, an optional YAML file and
// TINYREC_* environment variables, in increasing priority. An empty path or
// a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	cfg := &Config{
		Port:               v.GetString("port"),
		DataDir:            v.GetString("data_dir"),
		SnapshotBackend:    v.GetString("snapshot_backend"),
		MaxMemoryMB:        v.GetInt64("max_memory_mb"),
		LogCapacity:        v.GetInt("log_capacity"),
		MaxMessageLength:   v.GetInt("max_message_length"),
		SampleInterval:     v.GetDuration("sample_interval"),
		CheckpointInterval: v.GetDuration("checkpoint_interval"),
		ResourceBudgetMB:   v.GetInt64("resource_budget_mb"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("snapshot_backend", DefaultSnapshotBackend)
	v.SetDefault("max_memory_mb", DefaultMaxMemoryMB)
	v.SetDefault("log_capacity", DefaultLogCapacity)
	v.SetDefault("max_message_length", DefaultMaxMessageLength)
	v.SetDefault("sample_interval", DefaultSampleInterval)
	v.SetDefault("checkpoint_interval", DefaultCheckpointInterval)
	v.SetDefault("resource_budget_mb", DefaultResourceBudgetMB)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)
}

// Validate reports every invalid field at once
func (c *Config) Validate() error {
	var errs []string

	if c.Port == "" {
		errs = append(errs, "port must not be empty")
	}
	if c.SnapshotBackend != BackendBadger && c.SnapshotBackend != BackendMemory {
		errs = append(errs, fmt.Sprintf("snapshot_backend must be %s or %s, got %q", BackendBadger, BackendMemory, c.SnapshotBackend))
	}
	if c.SnapshotBackend == BackendBadger && c.DataDir == "" {
		errs = append(errs, "data_dir is required for the badger backend")
	}
	if c.LogCapacity < 1 {
		errs = append(errs, fmt.Sprintf("log_capacity must be at least 1, got %d", c.LogCapacity))
	}
	if c.MaxMessageLength < 1 {
		errs = append(errs, fmt.Sprintf("max_message_length must be at least 1, got %d", c.MaxMessageLength))
	}
	if c.SampleInterval < 0 {
		errs = append(errs, "sample_interval must not be negative")
	}
	if c.CheckpointInterval < 0 {
		errs = append(errs, "checkpoint_interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
