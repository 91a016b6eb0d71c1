// Package config loads cxlaunch settings from CXLAUNCH_* environment variables.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "CXLAUNCH"

// AppName names the data directory.
const AppName = "cxlaunch"

// Config holds all application configuration.
type Config struct {
	// DataDir holds instances.json, the playtime database and its key.
	DataDir string `split_words:"true"`

	// BottlesDir is the CrossOver bottles root used by "bottles" when no path is given.
	BottlesDir string `split_words:"true"`

	// RuntimeApp is the CrossOver application bundle.
	RuntimeApp string `split_words:"true" default:"/Applications/CrossOver.app"`

	// Runtime selects the runtime profile.
	Runtime string `default:"crossover"`

	LogLevel string `split_words:"true" default:"info"`
	LogFile  string `split_words:"true"`
	LogDev   bool   `split_words:"true" default:"false"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{
		RuntimeApp: "/Applications/CrossOver.app",
		Runtime:    "crossover",
		LogLevel:   "info",
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills the directories that depend on the user's data home.
func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(xdg.DataHome, AppName)
	}
	if c.BottlesDir == "" {
		c.BottlesDir = filepath.Join(xdg.DataHome, "CrossOver", "Bottles")
	}
}
