// Package config loads codemap settings from .codemap.yaml and CODEMAP_*
// environment variables. Command-line flags are applied by the caller on
// top of the loaded values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jward/codemap/internal/extract"
	"github.com/jward/codemap/internal/syntax"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".codemap.yaml"

// Config holds every setting the CLI can take from a file.
type Config struct {
	Languages   []string          `yaml:"languages"`
	Exclude     []string          `yaml:"exclude"`
	Parallel    bool              `yaml:"parallel"`
	Workers     int               `yaml:"workers"`
	Naming      map[string]string `yaml:"naming"`
	SnapshotDir string            `yaml:"snapshot_dir"`
	Database    string            `yaml:"database"`
	ScriptsDir  string            `yaml:"scripts_dir"`
}

// DefaultConfig returns the settings used when no file or environment
// override is present.
func DefaultConfig() *Config {
	return &Config{
		SnapshotDir: ".codemap",
		Database:    "codemap.db",
		ScriptsDir:  "scripts",
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadYAMLFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := applyEnvironment(cfg, os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config, getenv func(string) string) error {
	if v := getenv("CODEMAP_LANGUAGES"); v != "" {
		cfg.Languages = splitList(v)
	}
	if v := getenv("CODEMAP_EXCLUDE"); v != "" {
		cfg.Exclude = splitList(v)
	}
	if v := getenv("CODEMAP_PARALLEL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: CODEMAP_PARALLEL %q: must be a boolean", v)
		}
		cfg.Parallel = b
	}
	if v := getenv("CODEMAP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CODEMAP_WORKERS %q: must be an integer", v)
		}
		cfg.Workers = n
	}
	if v := getenv("CODEMAP_SNAPSHOT_DIR"); v != "" {
		cfg.SnapshotDir = v
	}
	if v := getenv("CODEMAP_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := getenv("CODEMAP_SCRIPTS_DIR"); v != "" {
		cfg.ScriptsDir = v
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects unknown languages, unknown naming policies and a
// negative worker count.
func (c *Config) Validate() error {
	known := make(map[string]bool)
	for _, l := range syntax.Languages() {
		known[l] = true
	}
	for _, l := range c.Languages {
		if !known[l] {
			return fmt.Errorf("config: unknown language %q", l)
		}
	}
	for lang, policy := range c.Naming {
		if !known[lang] {
			return fmt.Errorf("config: naming for unknown language %q", lang)
		}
		if _, err := extract.ParseNamingPolicy(policy); err != nil {
			return fmt.Errorf("config: naming for %s: %w", lang, err)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

// NamingPolicies returns the parsed per-language naming overrides.
func (c *Config) NamingPolicies() (map[string]extract.NamingPolicy, error) {
	out := make(map[string]extract.NamingPolicy, len(c.Naming))
	for lang, policy := range c.Naming {
		p, err := extract.ParseNamingPolicy(policy)
		if err != nil {
			return nil, fmt.Errorf("config: naming for %s: %w", lang, err)
		}
		out[lang] = p
	}
	return out, nil
}
