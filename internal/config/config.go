// Package config provides persistent configuration for the passerby CLI.
//
// Configuration is stored as JSON at ~/.config/passerby/config.json
// (XDG-compliant). The merge priority is: CLI flags > environment (including
// an optional .env file) > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/smokyabdulrahman/passerby/internal/prayer"
)

const (
	configDirName  = "passerby"
	configFileName = "config.json"
	envPrefix      = "PASSERBY_"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"method", "school",
	"time_format",
	"cache_dir",
	"store", "store_path",
	"redis_addr", "redis_password",
	"postgres_dsn",
	"mqtt_broker", "mqtt_topic",
	"server_addr",
	"log_level",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults).
type Config struct {
	Method        *int   `json:"method,omitempty"`      // pointer so we can distinguish "not set" from 0
	School        *int   `json:"school,omitempty"`      // pointer so we can distinguish "not set" from 0
	TimeFormat    string `json:"time_format,omitempty"` // "12h" or "24h"
	CacheDir      string `json:"cache_dir,omitempty"`
	Store         string `json:"store,omitempty"` // "file", "redis" or "postgres"
	StorePath     string `json:"store_path,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty"`
	PostgresDSN   string `json:"postgres_dsn,omitempty"`
	MQTTBroker    string `json:"mqtt_broker,omitempty"`
	MQTTTopic     string `json:"mqtt_topic,omitempty"`
	ServerAddr    string `json:"server_addr,omitempty"`
	LogLevel      string `json:"log_level,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	method := prayer.DefaultMethod
	school := int(prayer.Shafi)
	return Config{
		Method:     &method,
		School:     &school,
		TimeFormat: "12h",
		Store:      StoreFile,
		MQTTTopic:  "passerby/prayer",
		ServerAddr: ":8080",
		LogLevel:   "warn",
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
// If the file exists but is invalid JSON, it returns an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Config{}
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "method":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid method %q: must be an integer", value)
		}
		if _, err := prayer.LookupMethod(v); err != nil {
			return fmt.Errorf("invalid method %q: run `passerby methods` for the list: %w", value, err)
		}
		c.Method = &v
	case "school":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid school %q: must be an integer", value)
		}
		if _, err := prayer.ParseSchool(v); err != nil {
			return err
		}
		c.School = &v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "cache_dir":
		c.CacheDir = value
	case "store":
		switch value {
		case StoreFile, StoreRedis, StorePostgres:
		default:
			return fmt.Errorf("invalid store %q: must be %q, %q or %q", value, StoreFile, StoreRedis, StorePostgres)
		}
		c.Store = value
	case "store_path":
		c.StorePath = value
	case "redis_addr":
		c.RedisAddr = value
	case "redis_password":
		c.RedisPassword = value
	case "postgres_dsn":
		c.PostgresDSN = value
	case "mqtt_broker":
		c.MQTTBroker = value
	case "mqtt_topic":
		if value == "" || strings.ContainsAny(value, "#+") {
			return fmt.Errorf("invalid mqtt_topic %q: must be a non-empty topic without wildcards", value)
		}
		c.MQTTTopic = value
	case "server_addr":
		c.ServerAddr = value
	case "log_level":
		switch value {
		case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
		default:
			return fmt.Errorf("invalid log_level %q", value)
		}
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "method":
		if c.Method == nil {
			return "", nil
		}
		return strconv.Itoa(*c.Method), nil
	case "school":
		if c.School == nil {
			return "", nil
		}
		return strconv.Itoa(*c.School), nil
	case "time_format":
		return c.TimeFormat, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "store":
		return c.Store, nil
	case "store_path":
		return c.StorePath, nil
	case "redis_addr":
		return c.RedisAddr, nil
	case "redis_password":
		return c.RedisPassword, nil
	case "postgres_dsn":
		return c.PostgresDSN, nil
	case "mqtt_broker":
		return c.MQTTBroker, nil
	case "mqtt_topic":
		return c.MQTTTopic, nil
	case "server_addr":
		return c.ServerAddr, nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Merge copies every field set in other over c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Method != nil {
		c.Method = other.Method
	}
	if other.School != nil {
		c.School = other.School
	}
	for _, key := range ValidKeys {
		if key == "method" || key == "school" {
			continue
		}
		if v, _ := other.Get(key); v != "" {
			_ = c.Set(key, v)
		}
	}
}

// LoadEnv reads an optional .env file from the working directory into the
// process environment (never overriding variables already set) and returns
// the PASSERBY_* overrides as a Config. PASSERBY_LOG_LEVEL maps to the
// "log_level" key and so on.
func LoadEnv(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	for _, key := range ValidKeys {
		value, ok := os.LookupEnv(envPrefix + strings.ToUpper(key))
		if !ok || value == "" {
			continue
		}
		if err := cfg.Set(key, value); err != nil {
			return nil, fmt.Errorf("%s%s: %w", envPrefix, strings.ToUpper(key), err)
		}
	}
	return &cfg, nil
}

// Calculation returns the configured method and school, falling back to the
// defaults for anything unset.
func (c *Config) Calculation() prayer.Calculation {
	calc := prayer.DefaultCalculation()
	if c.Method != nil {
		calc.Method = *c.Method
	}
	if c.School != nil {
		calc.School = prayer.School(*c.School)
	}
	return calc
}

// TwelveHour reports whether times render as "1:05 PM".
func (c *Config) TwelveHour() bool {
	return c.TimeFormat != "24h"
}
