// Package config loads the run configuration: where the three source
// artifacts live, how the matrices are formatted, and the defaults the
// session starts with.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/dendra/pkg/dendra/internalerr"
)

// Artifact formats for the matrix artifacts.
const (
	FormatCSV  = "csv"
	FormatHTML = "html"
)

// Artifact locates one source artifact. Source is a filesystem path or
// an http(s) URL.
type Artifact struct {
	Source string `yaml:"source"`
	Format string `yaml:"format"` // csv (default) or html; ignored for the tree artifact
}

// Config is the full run configuration.
type Config struct {
	Artifacts struct {
		Tree         Artifact `yaml:"tree"`
		Scores       Artifact `yaml:"scores"`
		Explanations Artifact `yaml:"explanations"`
	} `yaml:"artifacts"`
	Threshold  float64  `yaml:"threshold"`
	Markers    []string `yaml:"markers"`
	SnapshotDB string   `yaml:"snapshot_db"`
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the parts that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Artifacts.Tree.Source == "" {
		return fmt.Errorf("%w: artifacts.tree.source is required", internalerr.ErrInvalidConfig)
	}
	for _, a := range []struct {
		name string
		art  Artifact
	}{
		{"scores", c.Artifacts.Scores},
		{"explanations", c.Artifacts.Explanations},
	} {
		switch a.art.Format {
		case "", FormatCSV, FormatHTML:
		default:
			return fmt.Errorf("%w: artifacts.%s.format %q (want csv or html)",
				internalerr.ErrInvalidConfig, a.name, a.art.Format)
		}
	}
	return nil
}
