// Package config loads dirroute.yaml project configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dirroute/dirroute/internal/errors"
)

const (
	// FileName is the name of the configuration file.
	FileName = "dirroute.yaml"

	// DefaultRoot is the default route tree directory.
	DefaultRoot = "routes"

	// DefaultManifestName is the default manifest file name for exports.
	DefaultManifestName = "routes.json"
)

// Config is the complete dirroute.yaml configuration.
type Config struct {
	// Root is the route tree directory, relative to the config file.
	Root string `yaml:"root,omitempty"`

	// Prefix is prepended to every resolved path.
	Prefix string `yaml:"prefix,omitempty"`

	// Include keeps only routes matching these patterns. Mutually
	// exclusive with Exclude.
	Include []string `yaml:"include,omitempty"`

	// Exclude drops routes matching these patterns.
	Exclude []string `yaml:"exclude,omitempty"`

	// RouteFile overrides the route file name convention.
	RouteFile string `yaml:"routeFile,omitempty"`

	// MiddlewareFile overrides the middleware file name convention.
	MiddlewareFile string `yaml:"middlewareFile,omitempty"`

	// LogLevel sets the logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"logLevel,omitempty"`

	// Export configures manifest publishing.
	Export ExportConfig `yaml:"export,omitempty"`

	// configPath stores where the config was loaded from.
	configPath string
}

// ExportConfig configures where route manifests are published.
type ExportConfig struct {
	// Dir is a local directory target.
	Dir string `yaml:"dir,omitempty"`

	// Bucket and KeyPrefix describe an S3 target.
	Bucket    string `yaml:"bucket,omitempty"`
	KeyPrefix string `yaml:"keyPrefix,omitempty"`

	// Name is the manifest file name.
	Name string `yaml:"name,omitempty"`
}

// New returns a config with defaults applied.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads dirroute.yaml from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads a config file. A missing file yields defaults, not an
// error; a malformed file is a hard failure.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := New()
		cfg.applyEnv()
		return cfg, nil
	}
	if err != nil {
		return nil, errors.New(errors.CodeLoader,
			"Cannot read %s: %v", path, err).Wrap(err).WithFile(path)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeLoader,
			"Cannot parse %s: %v", path, err).
			Wrap(err).
			WithFile(path).
			WithSuggestion("Check that the file is valid YAML")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// Path returns where the config was loaded from, empty for defaults.
func (c *Config) Path() string {
	return c.configPath
}

// RootPath returns the route tree directory resolved against the config
// file location.
func (c *Config) RootPath() string {
	if filepath.IsAbs(c.Root) || c.configPath == "" {
		return c.Root
	}
	return filepath.Join(filepath.Dir(c.configPath), c.Root)
}

func (c *Config) applyDefaults() {
	if c.Root == "" {
		c.Root = DefaultRoot
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Export.Name == "" {
		c.Export.Name = DefaultManifestName
	}
}

// Environment variables override file values, so deployments can retarget
// a build without editing the project.
func (c *Config) applyEnv() {
	if v := os.Getenv("DIRROUTE_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("DIRROUTE_PREFIX"); v != "" {
		c.Prefix = v
	}
	if v := os.Getenv("DIRROUTE_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}
