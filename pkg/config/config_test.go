package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLoadDefaults verifies that Load without a file returns the classroom
// defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	if cfg.Mongo.Host != "localhost" || cfg.Mongo.Port != 27017 {
		t.Errorf("expected localhost:27017, got %s:%d", cfg.Mongo.Host, cfg.Mongo.Port)
	}
	if cfg.Mongo.Database != "test" {
		t.Errorf("expected database test, got %q", cfg.Mongo.Database)
	}
	if cfg.Lab.DocCount != 50000 {
		t.Errorf("expected 50000 documents, got %d", cfg.Lab.DocCount)
	}
	if cfg.Lab.BatchSize != 1000 {
		t.Errorf("expected batch size 1000, got %d", cfg.Lab.BatchSize)
	}
	if cfg.Lab.Repeat != 1 {
		t.Errorf("expected repeat 1, got %d", cfg.Lab.Repeat)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("expected info/text logging, got %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics disabled by default")
	}
}

// TestLoadFromFile verifies YAML values override defaults while missing keys
// keep them.
func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
mongo:
  host: db.example.com
  database: lab
lab:
  docCount: 2000
  repeat: 3
metrics:
  enabled: true
  port: 9101
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Mongo.Host != "db.example.com" {
		t.Errorf("expected overridden host, got %q", cfg.Mongo.Host)
	}
	if cfg.Mongo.Port != 27017 {
		t.Errorf("expected default port kept, got %d", cfg.Mongo.Port)
	}
	if cfg.Mongo.Database != "lab" {
		t.Errorf("expected database lab, got %q", cfg.Mongo.Database)
	}
	if cfg.Lab.DocCount != 2000 || cfg.Lab.Repeat != 3 {
		t.Errorf("expected docCount 2000 repeat 3, got %d/%d", cfg.Lab.DocCount, cfg.Lab.Repeat)
	}
	if cfg.Lab.BatchSize != 1000 {
		t.Errorf("expected default batch size kept, got %d", cfg.Lab.BatchSize)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9101 {
		t.Errorf("expected metrics enabled on 9101, got %v/%d", cfg.Metrics.Enabled, cfg.Metrics.Port)
	}
}

// TestLoadMissingFile verifies a named but absent file is an error rather
// than silent defaults.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("expected read error, got %v", err)
	}
}

// TestLoadInvalidYAML verifies malformed YAML is reported with the path.
func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mongo: [not a map"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid yaml")
	}
	if !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

// TestEnvOverrides verifies ML_* variables win over file values.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("ML_MONGO_HOST", "envhost")
	t.Setenv("ML_MONGO_PORT", "27018")
	t.Setenv("ML_LAB_DOC_COUNT", "1234")
	t.Setenv("ML_LAB_VERBOSE", "true")
	t.Setenv("ML_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Mongo.Host != "envhost" || cfg.Mongo.Port != 27018 {
		t.Errorf("expected envhost:27018, got %s:%d", cfg.Mongo.Host, cfg.Mongo.Port)
	}
	if cfg.Lab.DocCount != 1234 {
		t.Errorf("expected 1234 documents, got %d", cfg.Lab.DocCount)
	}
	if !cfg.Lab.Verbose {
		t.Error("expected verbose enabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Logging.Level)
	}
}

// TestValidateCollectsAllViolations verifies every bad field is reported in
// one pass, sorted for stable output.
func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := &Config{
		Mongo: MongoConfig{Host: "", Port: 0, Database: "", ConnectTimeout: time.Second},
		Lab:   LabConfig{DocCount: -1, BatchSize: 0, Repeat: 0},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	for _, field := range []string{"mongo.host", "mongo.port", "mongo.database", "lab.docCount", "lab.batchSize", "lab.repeat"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("expected violation for %s, got %v", field, verr.Fields)
		}
	}
	if !strings.HasPrefix(err.Error(), "invalid config: ") {
		t.Errorf("expected prefixed message, got %q", err.Error())
	}
}

// TestValidateMetricsPortOnlyWhenEnabled verifies a bad metrics port passes
// while the server is disabled.
func TestValidateMetricsPortOnlyWhenEnabled(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Metrics.Port = -1
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected disabled metrics to skip port check, got %v", err)
	}
	cfg.Metrics.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected port violation once metrics are enabled")
	}
}

// TestMongoURI verifies the connection string shape.
func TestMongoURI(t *testing.T) {
	m := MongoConfig{Host: "db.local", Port: 27017}
	if got := m.URI(); got != "mongodb://db.local:27017/" {
		t.Errorf("expected mongodb://db.local:27017/, got %q", got)
	}
}
