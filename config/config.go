package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the bundler adapter.
type Config struct {
	Bundler BundlerConfig `yaml:"bundler"`
	Assets  AssetsConfig  `yaml:"assets"`
	Build   BuildConfig   `yaml:"build"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// BundlerConfig selects the engine and describes how to invoke it.
type BundlerConfig struct {
	Engine             string        `yaml:"engine"`              // "browserify" or "esbuild"
	Executable         string        `yaml:"executable"`          // relative to the project root
	TransformPackage   string        `yaml:"transform_package"`   // directory whose presence enables the transform
	Transform          string        `yaml:"transform"`           // e.g. "coffeeify"
	TransformExtension string        `yaml:"transform_extension"` // e.g. ".coffee"
	Timeout            time.Duration `yaml:"timeout"`             // per invocation, 0 = none
}

// AssetsConfig holds the asset discovery patterns.
type AssetsConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// BuildConfig holds batch build settings.
type BuildConfig struct {
	OutputDir string `yaml:"output_dir"`
	Workers   int    `yaml:"workers"`
}

// CacheConfig controls the persistent dependency store.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bundler: BundlerConfig{
			Engine:             "browserify",
			Executable:         "node_modules/.bin/browserify",
			TransformPackage:   "node_modules/coffeeify",
			Transform:          "coffeeify",
			TransformExtension: ".coffee",
		},
		Assets: AssetsConfig{
			Includes: []string{"app/assets/javascripts/**/*.js"},
			Excludes: []string{"**/node_modules/**", "**/vendor/**", "**/*.min.js"},
		},
		Build: BuildConfig{
			OutputDir: "public/assets",
			Workers:   4,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for browserify.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "browserify.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".browserify", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DepsDBPath returns the path to the dependency database.
func DepsDBPath(dir string) string {
	return filepath.Join(dir, ".browserify", "deps.db")
}

// EnsureStateDir ensures the .browserify directory exists.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".browserify"), 0755)
}
