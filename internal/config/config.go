package config

import (
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ava-labs/cargo-workspace-version/internal/errors"
)

// DefaultFileName is looked up in the workspace root when no --config is given.
const DefaultFileName = ".workspace-version.yaml"

// Output formats for console notices.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config represents the optional per-workspace configuration
type Config struct {
	// Manifest is the manifest file name in the root and in every member directory.
	Manifest string `yaml:"manifest"`
	// DependencyTables lists member tables scanned for intra-workspace pins.
	DependencyTables []string `yaml:"dependency_tables"`
	// WorkspaceDependencies also syncs member pins under the root's [workspace.dependencies].
	WorkspaceDependencies bool `yaml:"workspace_dependencies"`
	Format           string   `yaml:"format"`
	RequireClean     bool     `yaml:"require_clean"`
	MetricsTextfile  string   `yaml:"metrics_textfile,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)
	return c
}

func applyDefaults(c *Config) {
	if c.Manifest == "" {
		c.Manifest = "Cargo.toml"
	}
	if len(c.DependencyTables) == 0 {
		c.DependencyTables = []string{"dependencies"}
	}
	if c.Format == "" {
		c.Format = FormatText
	}
}

// Load reads a YAML configuration file. Environment references in the file are
// expanded first. A missing file yields defaults unless required is set.
func Load(configPath string, required bool) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return Default(), nil
		}
		return nil, errors.ConfigUnreadable(configPath, err)
	}

	expandedData := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expandedData))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil && !stdErrors.Is(err, io.EOF) {
		return nil, errors.ConfigUnreadable(configPath, fmt.Errorf("failed to unmarshal config: %w", err))
	}

	applyDefaults(&config)
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigInvalid(configPath, err.Error())
	}
	return &config, nil
}

// Validate checks field values after defaults are applied.
func (c *Config) Validate() error {
	if c.Manifest != filepath.Base(c.Manifest) || c.Manifest == "." || c.Manifest == ".." {
		return fmt.Errorf("manifest must be a file name, got %q", c.Manifest)
	}

	seen := make(map[string]bool, len(c.DependencyTables))
	for _, table := range c.DependencyTables {
		if strings.TrimSpace(table) == "" {
			return fmt.Errorf("dependency_tables contains an empty name")
		}
		if seen[table] {
			return fmt.Errorf("dependency_tables lists %q twice", table)
		}
		seen[table] = true
	}

	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("format must be %q or %q, got %q", FormatText, FormatJSON, c.Format)
	}
	return nil
}
