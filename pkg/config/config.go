package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Log        LogConfig        `yaml:"log"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"TANGO_DB_PATH" env-default:"tango.db"`
}

// DictionaryConfig holds JMdict settings.
type DictionaryConfig struct {
	// env-default overwrites zero values, so the switches default to false.
	Disabled       bool   `yaml:"disabled"         env:"TANGO_DICT_DISABLED"`
	Path           string `yaml:"path"             env:"TANGO_DICT_PATH"             env-default:"jmdict-eng-common.json"`
	NoAutoDownload bool   `yaml:"no_auto_download" env:"TANGO_DICT_NO_AUTO_DOWNLOAD"`
}

// IngestConfig holds worker pool and batch writer settings.
type IngestConfig struct {
	Workers       int           `yaml:"workers"        env:"TANGO_INGEST_WORKERS"        env-default:"4"`
	BatchSize     int           `yaml:"batch_size"     env:"TANGO_INGEST_BATCH_SIZE"     env-default:"50"`
	FlushInterval time.Duration `yaml:"flush_interval" env:"TANGO_INGEST_FLUSH_INTERVAL" env-default:"100ms"`
}

// FetchConfig holds HTTP settings for article downloads.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"        env:"TANGO_FETCH_TIMEOUT"        env-default:"30s"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"TANGO_FETCH_MAX_BODY_BYTES" env-default:"10485760"`
	UserAgent    string        `yaml:"user_agent"     env:"TANGO_FETCH_USER_AGENT"     env-default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"TANGO_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"TANGO_LOG_FORMAT" env-default:"text"`
}

// Validate checks the loaded configuration. Load calls it automatically.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path must be non-empty")
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be > 0 (got %d)", c.Ingest.Workers)
	}
	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("ingest.batch_size must be > 0 (got %d)", c.Ingest.BatchSize)
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		return fmt.Errorf("fetch.max_body_bytes must be > 0 (got %d)", c.Fetch.MaxBodyBytes)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	return nil
}
