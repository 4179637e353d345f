// Package config loads the project-level settings file that tells the
// server where templates live and which extensions to treat as templates.
package config

import (
	"os"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the workspace root when no explicit
// config path is given.
const DefaultFileName = ".jinjals.yaml"

type Config struct {
	// TemplateRoots are directories scanned by the workspace index,
	// relative to the workspace root unless absolute.
	TemplateRoots []string `yaml:"template_roots"`
	// Extensions are the filename suffixes recognized as templates, dot
	// included.
	Extensions []string `yaml:"extensions"`
}

func Default() *Config {
	return &Config{
		TemplateRoots: []string{"templates"},
		Extensions:    []string{".j2", ".jinja", ".jinja2"},
	}
}

// Load reads a config file from fs. A missing file is not an error; the
// defaults apply. Empty fields in a present file also fall back to the
// defaults so a partial config stays usable.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Errorf("parsing config %s: %w", path, err)
	}
	if len(cfg.TemplateRoots) == 0 {
		cfg.TemplateRoots = Default().TemplateRoots
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = Default().Extensions
	}
	return cfg, nil
}
