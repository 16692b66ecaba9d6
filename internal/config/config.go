package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const FileName = "taskboard.yml"

// Config models taskboard.yml.
type Config struct {
	Storage struct {
		Backend string `yaml:"backend" json:"backend"`
		Redis   struct {
			Addr     string `yaml:"addr" json:"addr"`
			Password string `yaml:"password,omitempty" json:"-"`
			DB       int    `yaml:"db" json:"db"`
			Prefix   string `yaml:"prefix" json:"prefix"`
		} `yaml:"redis" json:"redis"`
	} `yaml:"storage" json:"storage"`
	IDs struct {
		Generator string `yaml:"generator" json:"generator"`
		Length    int    `yaml:"length" json:"length"`
	} `yaml:"ids" json:"ids"`
	Auth struct {
		Token     string `yaml:"token" json:"token"`
		JWTSecret string `yaml:"jwt_secret,omitempty" json:"-"`
	} `yaml:"auth" json:"auth"`
	Display struct {
		Timezone string `yaml:"timezone" json:"timezone"`
	} `yaml:"display" json:"display"`
	Journal struct {
		Enabled bool `yaml:"enabled" json:"enabled"`
	} `yaml:"journal" json:"journal"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "memory":
	case "redis":
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			return fmt.Errorf("storage.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("storage.backend must be sqlite, memory or redis, got %q", c.Storage.Backend)
	}
	switch c.IDs.Generator {
	case "nanoid", "uuid":
	default:
		return fmt.Errorf("ids.generator must be nanoid or uuid, got %q", c.IDs.Generator)
	}
	if c.IDs.Generator == "nanoid" && (c.IDs.Length < 2 || c.IDs.Length > 255) {
		return fmt.Errorf("ids.length must be between 2 and 255")
	}
	switch c.Auth.Token {
	case "mock":
	case "jwt":
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required when auth.token is jwt")
		}
	default:
		return fmt.Errorf("auth.token must be mock or jwt, got %q", c.Auth.Token)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("display.timezone: %w", err)
	}
	return nil
}

// Location resolves display.timezone; empty or "Local" means the host zone.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Display.Timezone)
	if tz == "" || tz == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultTemplate), &cfg); err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// LoadOptional returns the defaults when the workspace has no config file.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses config over the defaults and validates it.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultTemplate = `storage:
  # sqlite | memory | redis
  backend: sqlite
  redis:
    addr: localhost:6379
    db: 0
    prefix: ""

ids:
  # nanoid | uuid
  generator: nanoid
  length: 21

auth:
  # mock tokens are placeholders, not credentials; jwt signs with jwt_secret
  token: mock

display:
  timezone: Local

journal:
  enabled: true
`
