package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds engine settings loaded from codegraph.yml.
type Config struct {
	// BaseDir is where store directories live. Defaults to ~/.codegraph.
	BaseDir string `yaml:"baseDir,omitempty"`
	// ExcludeDirs are directory names skipped during walking, in addition
	// to the built-in set (.git, node_modules, vendor, target).
	ExcludeDirs []string `yaml:"excludeDirs,omitempty"`
	// MaxFileSize caps the size of source files read during indexing.
	MaxFileSize int64 `yaml:"maxFileSize,omitempty"`
	// KuzuPath, when set, mirrors each indexed graph into a KuzuDB at this
	// path for Cypher inspection.
	KuzuPath string `yaml:"kuzuPath,omitempty"`
	Python   Python `yaml:"python,omitempty"`
}

// Python configures the delegate worker for Python sources.
type Python struct {
	// Command launches the worker. Empty disables Python extraction.
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	// Timeout bounds one parse exchange.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

const (
	defaultMaxFileSize = 2 << 20
	defaultPyTimeout   = 10 * time.Second
)

// Load attempts to read codegraph.yml or codegraph.yaml from the given
// directory. Returns a default config (not an error) if no config file
// exists.
func Load(dir string) (*Config, error) {
	cfg := &Config{}
	for _, name := range []string{"codegraph.yml", "codegraph.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		break
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.BaseDir = filepath.Join(home, ".codegraph")
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = defaultMaxFileSize
	}
	if c.Python.Command != "" && c.Python.Timeout <= 0 {
		c.Python.Timeout = defaultPyTimeout
	}
}
