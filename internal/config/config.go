// Package config loads hotspotd service settings from an optional YAML
// file overlaid with HOTSPOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	Inference InferenceConfig `mapstructure:"inference"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	// ScoringConfig is the path of the scoring YAML (profiles, weights,
	// routes). Empty means search for .hotspot/config.yaml.
	ScoringConfig string `mapstructure:"scoring_config"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	APIKey          string        `mapstructure:"api_key"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
	ReportCacheSize int           `mapstructure:"report_cache_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig selects the report store. An empty URL uses the
// in-memory store.
type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// StorageConfig selects the blob backend: local, s3, gcs or none.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	LocalPath string `mapstructure:"local_path"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type RedisConfig struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

type OverpassConfig struct {
	Endpoint          string        `mapstructure:"endpoint"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Disabled          bool          `mapstructure:"disabled"`
}

type InferenceConfig struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type VisionConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

var defaults = map[string]interface{}{
	"server.port":                  "8080",
	"server.api_key":               "",
	"server.cors_origin":           "*",
	"server.shutdown_timeout":      15 * time.Second,
	"server.report_cache_size":     256,
	"log.level":                    "info",
	"log.format":                   "json",
	"database.url":                 "",
	"database.auto_migrate":        true,
	"storage.backend":              "local",
	"storage.local_path":           "/tmp/hotspot-data",
	"storage.bucket":               "",
	"storage.prefix":               "",
	"storage.region":               "",
	"storage.endpoint":             "",
	"storage.access_key":           "",
	"storage.secret_key":           "",
	"redis.url":                    "",
	"redis.ttl":                    24 * time.Hour,
	"overpass.endpoint":            "https://overpass-api.de/api/interpreter",
	"overpass.timeout":             5 * time.Second,
	"overpass.requests_per_second": 1.0,
	"overpass.burst":               2,
	"overpass.disabled":            false,
	"inference.url":                "",
	"inference.token":              "",
	"inference.timeout":            10 * time.Second,
	"vision.url":                   "",
	"vision.timeout":               30 * time.Second,
	"kafka.brokers":                []string{},
	"kafka.topic":                  "hotspot.report-scored",
	"scoring_config":               "",
}

// Load reads configPath (if non-empty) and HOTSPOT_* environment
// variables, e.g. HOTSPOT_DATABASE_URL or HOTSPOT_KAFKA_BROKERS.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix("hotspot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend-specific requirements.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "none", "":
	case "local":
		if c.Storage.LocalPath == "" {
			return errors.New("storage.local_path is required for the local backend")
		}
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
