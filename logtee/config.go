// logtee/config.go - Project-specific configuration via .logtee.yaml
//
// A .logtee.yaml in the working directory or any parent sets defaults for
// where documents go and how they are written, so scripts do not need to
// repeat them.
package logtee

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dkoosis/logtee/internal/splice"
)

// ConfigFileName is the file searched for by LoadConfig.
const ConfigFileName = ".logtee.yaml"

// DefaultSuffix is the time layout appended to document names.
const DefaultSuffix = "_20060102_1504"

// Config holds document defaults loaded from .logtee.yaml.
type Config struct {
	Dir          string `yaml:"dir"`           // Output directory (default: ".")
	Suffix       string `yaml:"suffix"`        // Time layout appended to file names; empty for none
	Template     string `yaml:"template"`      // HTML template path; empty for the built-in one
	LinkPrefix   string `yaml:"link_prefix"`   // URL prefix for echoed links; empty for file://
	ScanWindow   int64  `yaml:"scan_window"`   // Bytes scanned back for block boundaries
	MarkerWindow int64  `yaml:"marker_window"` // Bytes scanned back to re-find the marker
	Theme        string `yaml:"theme"`         // Terminal echo theme: "default", "orca", "mono"
	EchoLinks    bool   `yaml:"echo_links"`    // Echo anchor links to the terminal
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Dir:          ".",
		Suffix:       DefaultSuffix,
		ScanWindow:   splice.DefaultScanWindow,
		MarkerWindow: splice.DefaultMarkerWindow,
		Theme:        "default",
		EchoLinks:    true,
	}
}

// LoadConfig loads .logtee.yaml from the working directory or its parents,
// falling back to defaults when there is none or it cannot be read.
func LoadConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		return DefaultConfig()
	}
	path := findConfigFile(wd)
	if path == "" {
		return DefaultConfig()
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// LoadConfigFile loads an explicit config file over the defaults.
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path) // #nosec G304 - config file path is controlled
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.ScanWindow <= 0 {
		cfg.ScanWindow = splice.DefaultScanWindow
	}
	if cfg.MarkerWindow <= 0 {
		cfg.MarkerWindow = splice.DefaultMarkerWindow
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	return cfg, nil
}

// findConfigFile looks for .logtee.yaml in dir and its parents.
func findConfigFile(dir string) string {
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
