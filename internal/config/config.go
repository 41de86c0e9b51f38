package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration. Every field can also be
// set from the command line; flags win over the file.
type Config struct {
	// Listen is the HTTP listen address for the UI and API.
	Listen string `yaml:"listen"`

	// StaticDir is the directory the UI assets are served from.
	StaticDir string `yaml:"static_dir"`

	// Storage selects the durable backend: "sqlite", "mongo" or "memory"
	// (cache-only, nothing survives a restart).
	Storage string `yaml:"storage"`

	// SQLitePath is the database file path (storage=sqlite).
	SQLitePath string `yaml:"sqlite_path"`

	// MongoURI / MongoDatabase configure the mongo backend (storage=mongo).
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_db"`

	// TickSeconds is the scheduler evaluation interval.
	TickSeconds int `yaml:"tick_seconds"`
}

func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8080",
		StaticDir:     "./static",
		Storage:       "sqlite",
		SQLitePath:    "diary.db",
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "diabetes_diary",
		TickSeconds:   30,
	}
}

// Validate rejects values Normalize cannot repair. A mistyped backend name
// must fail loudly, not silently select the default.
func (c *Config) Validate() error {
	switch c.Storage {
	case "", "sqlite", "mongo", "memory":
		return nil
	}
	return fmt.Errorf("invalid storage type %q (valid options: sqlite, mongo, memory)", c.Storage)
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly. Callers validate first; Normalize only repairs absence.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.StaticDir == "" {
		c.StaticDir = d.StaticDir
	}
	if c.Storage == "" {
		c.Storage = d.Storage
	}
	if c.SQLitePath == "" {
		c.SQLitePath = d.SQLitePath
	}
	if c.MongoURI == "" {
		c.MongoURI = d.MongoURI
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = d.MongoDatabase
	}
	if c.TickSeconds <= 0 {
		c.TickSeconds = d.TickSeconds
	}
}

// Load reads the YAML config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}
