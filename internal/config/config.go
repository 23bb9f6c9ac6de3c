package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default config file path, relative to the working directory.
const DefaultConfigPath = "storycard.yaml"

// Config holds all storycard configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Allocator AllocatorConfig `yaml:"allocator"`
	Render    RenderConfig    `yaml:"render"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	MaxRequestSize         int64  `yaml:"max_request_size"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

type StorageConfig struct {
	Path        string `yaml:"path"`
	CardsDir    string `yaml:"cards_dir"`
	CounterFile string `yaml:"counter_file"`
	IndexFile   string `yaml:"index_file"`
}

// AllocatorConfig selects the story id counter backend.
// Mode is one of "file", "sqlite" or "memory". Locking only applies to
// "file"; turning it off reproduces the unsynchronised read-modify-write.
type AllocatorConfig struct {
	Mode    string `yaml:"mode"`
	Locking bool   `yaml:"locking"`
}

type RenderConfig struct {
	FontPath  string  `yaml:"font_path"`
	TitleSize float64 `yaml:"title_size"`
	BodySize  float64 `yaml:"body_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.Allocator.Mode {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid allocator mode %q (use file, sqlite or memory)", c.Allocator.Mode)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxRequestSize <= 0 {
		return fmt.Errorf("max_request_size must be positive")
	}
	if c.Render.TitleSize <= 0 || c.Render.BodySize <= 0 {
		return fmt.Errorf("font sizes must be positive")
	}
	return nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadDefault loads DefaultConfigPath when it exists and falls back to
// defaults otherwise. Nothing is written to disk.
func LoadDefault() (*Config, error) {
	if _, err := os.Stat(DefaultConfigPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(DefaultConfigPath)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	path, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

// StorageRoot returns Storage.Path with ~ expanded.
func (c *Config) StorageRoot() (string, error) {
	return expandPath(c.Storage.Path)
}

// CardsDir returns the absolute-or-relative directory holding card images.
func (c *Config) CardsDir() (string, error) {
	return c.resolve(c.Storage.CardsDir)
}

// CounterPath returns the location of the JSON counter file.
func (c *Config) CounterPath() (string, error) {
	return c.resolve(c.Storage.CounterFile)
}

// IndexPath returns the location of the SQLite card index.
func (c *Config) IndexPath() (string, error) {
	return c.resolve(c.Storage.IndexFile)
}

// resolve joins p onto the storage root unless p is already absolute.
func (c *Config) resolve(p string) (string, error) {
	p, err := expandPath(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	root, err := c.StorageRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, p), nil
}
