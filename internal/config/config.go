package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/logload/internal/model"
	"github.com/gyeh/logload/internal/store"
)

// Defaults for a load run.
const (
	DefaultWorkers      = 10
	DefaultBatchSize    = 5000
	DefaultQueueSize    = 1000
	DefaultParseWorkers = 1
	DefaultPartition    = PartitionRoundRobin
	DefaultEncoding     = "utf-8"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// Partition modes.
const (
	PartitionRoundRobin = "round-robin"
	PartitionHash       = "hash"
)

// Config holds all runtime configuration for a logload run.
type Config struct {
	URI            string
	FilePath       string
	Target         string // <database>.<collection>
	LogFormat      string // "text" or "json"
	LogLevel       string
	Encoding       string
	Workers        int
	BatchSize      int
	QueueSize      int
	ParseWorkers   int
	Partition      string
	SkipLog        string // CSV path for skipped lines, empty to disable
	MetricsAddr    string // listen address for /metrics, empty to disable
	PushgatewayURL string
	NoMigrate      bool
}

// Default returns a Config populated with the default tuning values.
func Default() Config {
	return Config{
		LogFormat:    DefaultLogFormat,
		LogLevel:     DefaultLogLevel,
		Encoding:     DefaultEncoding,
		Workers:      DefaultWorkers,
		BatchSize:    DefaultBatchSize,
		QueueSize:    DefaultQueueSize,
		ParseWorkers: DefaultParseWorkers,
		Partition:    DefaultPartition,
	}
}

// yamlConfig is the on-disk YAML structure. Pointer fields distinguish
// "absent" from a zero value.
type yamlConfig struct {
	URI            *string `yaml:"uri"`
	Target         *string `yaml:"target"`
	LogFormat      *string `yaml:"log_format"`
	LogLevel       *string `yaml:"log_level"`
	Encoding       *string `yaml:"encoding"`
	Workers        *int    `yaml:"workers"`
	BatchSize      *int    `yaml:"batch_size"`
	QueueSize      *int    `yaml:"queue_size"`
	ParseWorkers   *int    `yaml:"parse_workers"`
	Partition      *string `yaml:"partition"`
	SkipLog        *string `yaml:"skip_log"`
	MetricsAddr    *string `yaml:"metrics_addr"`
	PushgatewayURL *string `yaml:"pushgateway_url"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// A value is skipped when changed reports that its flag was set explicitly,
// so flags win over the file. A nil changed applies every file value.
func (c *Config) LoadFromFile(path string, changed func(flag string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&yc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file: %w", err)
	}

	if changed == nil {
		changed = func(string) bool { return false }
	}
	setString := func(flag string, dst *string, v *string) {
		if v != nil && !changed(flag) {
			*dst = *v
		}
	}
	setInt := func(flag string, dst *int, v *int) {
		if v != nil && !changed(flag) {
			*dst = *v
		}
	}
	setString("uri", &c.URI, yc.URI)
	setString("target", &c.Target, yc.Target)
	setString("log-format", &c.LogFormat, yc.LogFormat)
	setString("log-level", &c.LogLevel, yc.LogLevel)
	setString("encoding", &c.Encoding, yc.Encoding)
	setInt("workers", &c.Workers, yc.Workers)
	setInt("batch-size", &c.BatchSize, yc.BatchSize)
	setInt("queue-size", &c.QueueSize, yc.QueueSize)
	setInt("parse-workers", &c.ParseWorkers, yc.ParseWorkers)
	setString("partition", &c.Partition, yc.Partition)
	setString("skip-log", &c.SkipLog, yc.SkipLog)
	setString("metrics-addr", &c.MetricsAddr, yc.MetricsAddr)
	setString("pushgateway-url", &c.PushgatewayURL, yc.PushgatewayURL)
	return nil
}

// Validate checks the source file and tuning values.
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1, got %d", c.Workers)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("--batch-size must be at least 1, got %d", c.BatchSize)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("--queue-size must be at least 1, got %d", c.QueueSize)
	}
	if c.ParseWorkers < 1 {
		return fmt.Errorf("--parse-workers must be at least 1, got %d", c.ParseWorkers)
	}
	switch c.Partition {
	case PartitionRoundRobin, PartitionHash:
	default:
		return fmt.Errorf("--partition must be %q or %q, got %q", PartitionRoundRobin, PartitionHash, c.Partition)
	}
	return nil
}

// ValidateStore checks the target and store URI.
func (c *Config) ValidateStore() error {
	if _, err := c.ParsedTarget(); err != nil {
		return err
	}
	if c.URI == "" {
		return fmt.Errorf("--uri or LOGLOAD_URI is required")
	}
	if _, err := store.Scheme(c.URI); err != nil {
		return err
	}
	return nil
}

// ValidateWithURI checks the file, tuning values, target and URI.
func (c *Config) ValidateWithURI() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.ValidateStore()
}

// ParsedTarget parses Target as <database>.<collection>.
func (c *Config) ParsedTarget() (model.Target, error) {
	if c.Target == "" {
		return model.Target{}, fmt.Errorf("--target is required")
	}
	return model.ParseTarget(c.Target)
}
