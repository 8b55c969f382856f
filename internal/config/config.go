// Package config holds project-wide constants and the pebbl.yaml settings
// file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const SourceFileExt = ".pebbl"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".pebbl", ".pb"}

// ConfigFileName is looked up in the working directory and its parents.
const ConfigFileName = "pebbl.yaml"

// Engine selection values for Config.Engine.
const (
	EngineVM   = "vm"
	EngineTree = "tree"
)

// Config represents the top-level pebbl.yaml configuration.
type Config struct {
	// Engine selects the execution backend: "vm" (default) or "tree".
	Engine string `yaml:"engine,omitempty"`

	// ShowBytecode dumps the disassembly before running under the VM.
	ShowBytecode bool `yaml:"show_bytecode,omitempty"`

	// GCStats prints heap statistics after each run.
	GCStats bool `yaml:"gc_stats,omitempty"`
}

// Default returns the configuration used when no pebbl.yaml exists.
func Default() *Config {
	return &Config{Engine: EngineVM}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover walks from dir upward looking for pebbl.yaml, falling back to the
// defaults when none exists.
func Discover(dir string) (*Config, error) {
	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	switch c.Engine {
	case "", EngineVM, EngineTree:
		return nil
	default:
		return errors.New("engine must be \"vm\" or \"tree\"")
	}
}

// IsSourceFile reports whether path has a recognized source extension.
func IsSourceFile(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
