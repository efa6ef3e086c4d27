// Package config handles kestrel.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/kestrel-lang/kestrel/vm"
)

// Config represents a kestrel.toml runtime configuration.
type Config struct {
	Runtime Runtime `toml:"runtime"`
	Trace   Trace   `toml:"trace"`

	// Dir is the directory containing the kestrel.toml file (set at load time).
	Dir string `toml:"-"`
}

// Runtime bounds the per-context stacks.
type Runtime struct {
	MaxStackSlots     int `toml:"max-stack-slots"`
	MaxCallDepth      int `toml:"max-call-depth"`
	InitialStackSlots int `toml:"initial-stack-slots"`
	InitialFrameDepth int `toml:"initial-frame-depth"`
}

// Trace configures the execution event store.
type Trace struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Runtime: Runtime{
			MaxStackSlots:     vm.DefaultMaxStackSlots,
			MaxCallDepth:      vm.DefaultMaxCallDepth,
			InitialStackSlots: vm.DefaultInitialStackSlots,
			InitialFrameDepth: vm.DefaultInitialFrameDepth,
		},
		Trace: Trace{Path: "kestrel-trace.db"},
	}
}

// Load parses a kestrel.toml file from the given directory. Missing fields
// fall back to the defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "kestrel.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a kestrel.toml file, then loads
// and returns the configuration. Returns the defaults if none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "kestrel.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

// Validate rejects limit combinations the runtime cannot honor.
func (c *Config) Validate() error {
	r := c.Runtime
	if r.MaxStackSlots < 0 || r.MaxCallDepth < 0 {
		return fmt.Errorf("limits must be non-negative")
	}
	if r.InitialStackSlots > 0 && r.MaxStackSlots > 0 && r.InitialStackSlots > r.MaxStackSlots {
		return fmt.Errorf("initial-stack-slots (%d) exceeds max-stack-slots (%d)",
			r.InitialStackSlots, r.MaxStackSlots)
	}
	if r.InitialFrameDepth > 0 && r.MaxCallDepth > 0 && r.InitialFrameDepth > r.MaxCallDepth {
		return fmt.Errorf("initial-frame-depth (%d) exceeds max-call-depth (%d)",
			r.InitialFrameDepth, r.MaxCallDepth)
	}
	return nil
}

// Limits converts the runtime section into the vm's limit struct.
func (c *Config) Limits() vm.Limits {
	return vm.Limits{
		MaxStackSlots:     c.Runtime.MaxStackSlots,
		MaxCallDepth:      c.Runtime.MaxCallDepth,
		InitialStackSlots: c.Runtime.InitialStackSlots,
		InitialFrameDepth: c.Runtime.InitialFrameDepth,
	}
}

// TracePath returns the absolute path of the trace database.
func (c *Config) TracePath() string {
	if filepath.IsAbs(c.Trace.Path) {
		return c.Trace.Path
	}
	return filepath.Join(c.Dir, c.Trace.Path)
}
