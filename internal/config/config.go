// Package config loads bisadmin's startup configuration from a YAML file,
// the environment and command-line flags, in increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds startup settings. Runtime settings editable by the admin
// (backend URL, token, ...) are seeded from here into the settings table.
type Config struct {
	Port      int             `yaml:"port"`
	Database  DatabaseConfig  `yaml:"database"`
	BIS       BISConfig       `yaml:"bis"`
	Nominatim NominatimConfig `yaml:"nominatim"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	CORS      CORSConfig      `yaml:"cors"`
}

// DatabaseConfig selects the draft and settings store
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

// BISConfig points at the BIS backend
type BISConfig struct {
	APIURL           string `yaml:"api_url"`
	Token            string `yaml:"token"`
	PublicWebURL     string `yaml:"public_web_url"`
	OnlineLocationID int    `yaml:"online_location_id"`
	// CacheTTL bounds how long BIS responses are reused; 0 disables caching
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// NominatimConfig configures geocoding
type NominatimConfig struct {
	URL       string `yaml:"url"`
	UserAgent string `yaml:"user_agent"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AdminConfig configures admin login. PasswordHash wins over Password.
type AdminConfig struct {
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// CORSConfig lists browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Port: 8081,
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "bisadmin.db",
		},
		BIS: BISConfig{
			APIURL:       "https://bis.brontosaurus.cz/api",
			PublicWebURL: "https://brontosaurus.cz",
			CacheTTL:     time.Minute,
		},
		Nominatim: NominatimConfig{
			URL:       "https://nominatim.openstreetmap.org",
			UserAgent: "bisadmin (+https://brontosaurus.cz)",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// Load reads path (when non-empty) over the defaults and applies the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML into cfg. Keys missing from data keep their values.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg from environment variables found by lookup
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("BIS_API_URL"); ok && v != "" {
		cfg.BIS.APIURL = v
	}
	if v, ok := lookup("BIS_API_TOKEN"); ok {
		cfg.BIS.Token = v
	}
	if v, ok := lookup("BIS_PUBLIC_WEB_URL"); ok && v != "" {
		cfg.BIS.PublicWebURL = v
	}
	if v, ok := lookup("BIS_ONLINE_LOCATION_ID"); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BIS_ONLINE_LOCATION_ID: %w", err)
		}
		cfg.BIS.OnlineLocationID = id
	}
	if v, ok := lookup("BISADMIN_DATABASE_URL"); ok && v != "" {
		cfg.Database.Driver = DriverPostgres
		cfg.Database.URL = v
	}
	if v, ok := lookup("BISADMIN_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BISADMIN_PORT: %w", err)
		}
		cfg.Port = port
	}
	if v, ok := lookup("BISADMIN_LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup("BISADMIN_ADMIN_PASSWORD_HASH"); ok && v != "" {
		cfg.Admin.PasswordHash = v
	}
	return nil
}

// Validate checks for settings the server cannot start without
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("sqlite database path is required")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("postgres database url is required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.BIS.OnlineLocationID < 0 {
		return fmt.Errorf("invalid online location id %d", c.BIS.OnlineLocationID)
	}
	if c.BIS.CacheTTL < 0 {
		return fmt.Errorf("invalid bis cache ttl %s", c.BIS.CacheTTL)
	}
	return nil
}
