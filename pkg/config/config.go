// Package config loads and validates the lab configuration from a YAML file
// with environment-variable overrides. It provides typed structs for every
// subsystem (Mongo, Lab, Logging, Metrics).
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level lab configuration.
type Config struct {
	Mongo   MongoConfig   `yaml:"mongo"`
	Lab     LabConfig     `yaml:"lab"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// MongoConfig holds MongoDB connection parameters.
type MongoConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Database       string        `yaml:"database"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// URI returns a mongodb:// connection string for the driver.
func (m MongoConfig) URI() string {
	return fmt.Sprintf("mongodb://%s:%d/", m.Host, m.Port)
}

// LabConfig controls dataset size and run behaviour.
type LabConfig struct {
	// DocCount is the total number of documents to generate
	// (persons + companies).
	DocCount int `yaml:"docCount"`
	// BatchSize is the number of documents per InsertMany call.
	BatchSize int `yaml:"batchSize"`
	// Verbose prints sample result documents during the comparison run.
	// Per-batch load progress is logged at debug level instead.
	Verbose bool `yaml:"verbose"`
	// Sample is how many result documents to print per query when verbose.
	Sample int `yaml:"sample"`
	// Repeat re-runs the query battery this many times to fill the latency
	// histograms. The load phase always runs once.
	Repeat int `yaml:"repeat"`
	// Seed makes generated data deterministic; 0 seeds from the clock.
	Seed int64 `yaml:"seed"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the optional Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig returns the classroom defaults: a local MongoDB on 27017,
// database "test", fifty thousand documents.
func defaultConfig() *Config {
	return &Config{
		Mongo: MongoConfig{
			Host:           "localhost",
			Port:           27017,
			Database:       "test",
			ConnectTimeout: 5 * time.Second,
		},
		Lab: LabConfig{
			DocCount:  50000,
			BatchSize: 1000,
			Verbose:   false,
			Sample:    10,
			Repeat:    1,
			Seed:      0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "invalid config: " + strings.Join(parts, "; ")
}

// Validate checks field ranges and returns a ValidationError listing every
// violation at once.
func (c *Config) Validate() error {
	errs := make(map[string]string)

	if c.Mongo.Host == "" {
		errs["mongo.host"] = "host is required"
	}
	if c.Mongo.Port <= 0 || c.Mongo.Port > 65535 {
		errs["mongo.port"] = "port must be between 1 and 65535"
	}
	if c.Mongo.Database == "" {
		errs["mongo.database"] = "database name is required"
	}
	if c.Lab.DocCount < 0 {
		errs["lab.docCount"] = "document count must not be negative"
	}
	if c.Lab.BatchSize < 1 {
		errs["lab.batchSize"] = "batch size must be at least 1"
	}
	if c.Lab.Sample < 0 {
		errs["lab.sample"] = "sample size must not be negative"
	}
	if c.Lab.Repeat < 1 {
		errs["lab.repeat"] = "repeat must be at least 1"
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		errs["metrics.port"] = "port must be between 1 and 65535"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// applyEnvOverrides reads ML_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ML_MONGO_HOST"); v != "" {
		cfg.Mongo.Host = v
	}
	if v := os.Getenv("ML_MONGO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Mongo.Port = port
		}
	}
	if v := os.Getenv("ML_MONGO_DATABASE"); v != "" {
		cfg.Mongo.Database = v
	}
	if v := os.Getenv("ML_LAB_DOC_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Lab.DocCount = n
		}
	}
	if v := os.Getenv("ML_LAB_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Lab.Verbose = b
		}
	}
	if v := os.Getenv("ML_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ML_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("ML_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
