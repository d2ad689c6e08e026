// Package config loads famiglia runtime settings from FAMIGLIA_* environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "FAMIGLIA_"

// Config holds process-wide settings.
type Config struct {
	Storage         Storage
	Blob            Blob    `envPrefix:"BLOB_"`
	Log             Log     `envPrefix:"LOG_"`
	StrictIntegrity bool    `env:"STRICT_INTEGRITY" envDefault:"false"`
	MetricsNS       string  `env:"METRICS_NAMESPACE" envDefault:"famiglia"`
}

// Storage selects the persistent store backend.
type Storage struct {
	Driver      string `env:"STORAGE_DRIVER" envDefault:"memory"`
	SQLitePath  string `env:"SQLITE_PATH,expand" envDefault:"famiglia.db"`
	PostgresDSN string `env:"POSTGRES_DSN"`
}

// Blob selects the snapshot archive backend.
type Blob struct {
	Driver string `env:"DRIVER" envDefault:"fs"`
	FSRoot string `env:"FS_ROOT,expand" envDefault:"./blobdata"`
	S3     S3     `envPrefix:"S3_"`
}

// S3 configures the S3 / MinIO archive driver.
type S3 struct {
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"ENDPOINT"`
	PathStyle bool   `env:"PATH_STYLE" envDefault:"false"`
}

// Log configures the structured logger.
type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return LoadWith(nil)
}

// LoadWith parses configuration using the supplied variables instead of the
// process environment when environ is non-nil.
func LoadWith(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: Prefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks driver names and driver-specific requirements.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("%sPOSTGRES_DSN required for postgres driver", Prefix)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			return fmt.Errorf("%sBLOB_S3_BUCKET required for s3 driver", Prefix)
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
