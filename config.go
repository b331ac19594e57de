package stubdoc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StubSuffix is the file extension the engine considers.
const StubSuffix = ".pyi"

// DefaultIgnoreModules are modules excluded from processing by default.
// Importing them has side effects rather than value.
var DefaultIgnoreModules = []string{"antigravity", "this"}

// Config configures an Engine. All toggles are explicit; the engine keeps no
// process-wide mutable state.
type Config struct {
	// InputDirs are the stub directory trees to process.
	InputDirs []string

	// InPlace rewrites stubs where they are, via temp-file-then-rename.
	// Mutually exclusive with OutputDir; exactly one must be set.
	InPlace bool

	// OutputDir mirrors rewritten stubs under a separate root, recreating
	// relative paths.
	OutputDir string

	// BuiltinsOnly restricts processing to modules built into the runtime,
	// per the symbol database.
	BuiltinsOnly bool

	// IfNeeded attaches documentation only when the symbol's own
	// implementation source location is unavailable.
	IfNeeded bool

	// Workers bounds the per-file worker pool. Zero means one worker per
	// CPU, capped at the number of files.
	Workers int

	// IgnoreModules lists dotted module paths to skip. Nil means
	// DefaultIgnoreModules.
	IgnoreModules []string

	// PythonVersion overrides the version tuple recorded in the symbol
	// database for reachability analysis.
	PythonVersion []int

	// Platform overrides the platform string recorded in the symbol
	// database for reachability analysis.
	Platform string
}

// Validate reports configuration errors. These are fatal: nothing is
// processed when Validate fails.
func (c *Config) Validate() error {
	if len(c.InputDirs) == 0 {
		return fmt.Errorf("no input directories given")
	}
	for _, dir := range c.InputDirs {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("input path %q: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("input path %q is not a directory", dir)
		}
	}
	if c.InPlace == (c.OutputDir != "") {
		return fmt.Errorf("exactly one of in-place and output directory must be set")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	return nil
}

// ignored returns the effective ignore set.
func (c *Config) ignored() map[string]bool {
	list := c.IgnoreModules
	if list == nil {
		list = DefaultIgnoreModules
	}
	set := make(map[string]bool, len(list))
	for _, m := range list {
		set[m] = true
	}
	return set
}

// FileConfig is the YAML shape of an optional config file. File values fill
// in fields not already set on the Config; flags win.
type FileConfig struct {
	IgnoreModules []string `yaml:"ignore_modules"`
	Workers       int      `yaml:"workers"`
	PythonVersion string   `yaml:"python_version"`
	Platform      string   `yaml:"platform"`
}

// LoadConfigFile reads and decodes a YAML config file.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// Apply merges file values into c, keeping anything already set.
func (c *Config) Apply(fc FileConfig) error {
	if c.IgnoreModules == nil && fc.IgnoreModules != nil {
		c.IgnoreModules = fc.IgnoreModules
	}
	if c.Workers == 0 {
		c.Workers = fc.Workers
	}
	if len(c.PythonVersion) == 0 && fc.PythonVersion != "" {
		v, err := ParseVersion(fc.PythonVersion)
		if err != nil {
			return err
		}
		c.PythonVersion = v
	}
	if c.Platform == "" {
		c.Platform = fc.Platform
	}
	return nil
}

// ParseVersion parses a dotted version string ("3.12" or "3.12.1") into a
// tuple of integers.
func ParseVersion(s string) ([]int, error) {
	parts := strings.Split(s, ".")
	version := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", s, err)
		}
		version = append(version, n)
	}
	return version, nil
}
