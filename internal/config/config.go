// Package config loads server settings from defaults, an optional TOML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/ytakahashi/todo-web/internal/services"
)

const (
	DefaultPort      = 8080
	DefaultStoreURL  = "memory://"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultFile      = "todo.toml"
)

// Config holds server settings.
type Config struct {
	Port      int    `toml:"port"`
	StoreURL  string `toml:"store_url"`
	StaticDir string `toml:"static_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:      DefaultPort,
		StoreURL:  DefaultStoreURL,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Load applies defaults, then path (or TODO_CONFIG, or todo.toml when it
// exists), then .env and the process environment. An explicitly named file
// must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if v := os.Getenv("TODO_CONFIG"); v != "" {
			path, explicit = v, true
		} else {
			path = DefaultFile
		}
	}
	if err := loadFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("STORE_URL"); v != "" {
		cfg.StoreURL = v
	} else if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" && cfg.StoreURL == DefaultStoreURL {
		cfg.StoreURL = "firestore://" + v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if !services.SupportedScheme(c.StoreURL) {
		return fmt.Errorf("unsupported store url %q", c.StoreURL)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Logger builds a logger from the log settings. Call Validate first.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
