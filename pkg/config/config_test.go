package config_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/jinjals/pkg/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()

	cfg, err := config.Load(fs, "/project/.jinjals.yaml")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFullConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.jinjals.yaml", []byte(`
template_roots:
  - views
  - shared/templates
extensions:
  - .j2
`), 0o644))

	cfg, err := config.Load(fs, "/project/.jinjals.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"views", "shared/templates"}, cfg.TemplateRoots)
	assert.Equal(t, []string{".j2"}, cfg.Extensions)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.jinjals.yaml", []byte("template_roots: [views]\n"), 0o644))

	cfg, err := config.Load(fs, "/project/.jinjals.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"views"}, cfg.TemplateRoots)
	assert.Equal(t, config.Default().Extensions, cfg.Extensions)
}

func TestLoadMalformedConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.jinjals.yaml", []byte("template_roots: {not: [valid"), 0o644))

	_, err := config.Load(fs, "/project/.jinjals.yaml")
	assert.Error(t, err)
}
