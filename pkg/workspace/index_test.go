package workspace_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/jinjals/pkg/inference"
	"github.com/walteh/jinjals/pkg/workspace"
)

var extensions = []string{".j2", ".jinja", ".jinja2"}

func seededFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for p, text := range files {
		require.NoError(t, afero.WriteFile(fs, p, []byte(text), 0o644))
	}
	return fs
}

func TestRebuildIndexesTemplates(t *testing.T) {
	fs := seededFs(t, map[string]string{
		"/templates/base.j2":           `{% block content %}{% endblock %}`,
		"/templates/partials/nav.j2":   `{% macro nav_link(href) %}{{ href }}{% endmacro %}`,
		"/templates/README.md":         `not a template`,
		"/templates/styles/main.css":   `body {}`,
		"/templates/emails/hello.j2":   `{{ user.name }}`,
		"/templates/settings.jinja":    `{% set theme = "dark" %}`,
	})
	index := workspace.NewIndex(fs, []string{"/templates"}, extensions)

	require.NoError(t, index.Rebuild(context.Background()))

	assert.Equal(t, 4, index.Len())
	assert.Equal(t, []string{
		"file:///templates/base.j2",
		"file:///templates/emails/hello.j2",
		"file:///templates/partials/nav.j2",
		"file:///templates/settings.jinja",
	}, index.URIs())

	table, ok := index.Table("file:///templates/partials/nav.j2")
	require.True(t, ok)
	_, ok = table.LocalMacro("nav_link")
	assert.True(t, ok)
}

func TestRebuildReplacesPreviousContents(t *testing.T) {
	fs := seededFs(t, map[string]string{
		"/templates/a.j2": `{{ x }}`,
		"/templates/b.j2": `{{ y }}`,
	})
	index := workspace.NewIndex(fs, []string{"/templates"}, extensions)
	require.NoError(t, index.Rebuild(context.Background()))
	require.Equal(t, 2, index.Len())

	require.NoError(t, fs.Remove("/templates/b.j2"))
	require.NoError(t, index.Rebuild(context.Background()))

	assert.Equal(t, []string{"file:///templates/a.j2"}, index.URIs())
}

func TestRebuildContinuesPastMissingRoot(t *testing.T) {
	fs := seededFs(t, map[string]string{
		"/templates/a.j2": `{{ x }}`,
	})
	index := workspace.NewIndex(fs, []string{"/missing", "/templates"}, extensions)

	err := index.Rebuild(context.Background())
	assert.Error(t, err, "missing root is reported")
	assert.Equal(t, 1, index.Len(), "but the other root is still scanned")
}

func TestUpdatePathAddsChangesAndRemoves(t *testing.T) {
	fs := seededFs(t, map[string]string{
		"/templates/a.j2": `{% macro first() %}{% endmacro %}`,
	})
	index := workspace.NewIndex(fs, []string{"/templates"}, extensions)
	require.NoError(t, index.Rebuild(context.Background()))

	// new file
	require.NoError(t, afero.WriteFile(fs, "/templates/b.j2", []byte(`{{ z }}`), 0o644))
	require.NoError(t, index.UpdatePath(context.Background(), "/templates/b.j2"))
	assert.Equal(t, 2, index.Len())

	// edit
	require.NoError(t, afero.WriteFile(fs, "/templates/a.j2", []byte(`{% macro second() %}{% endmacro %}`), 0o644))
	require.NoError(t, index.UpdatePath(context.Background(), "/templates/a.j2"))
	table, ok := index.Table("file:///templates/a.j2")
	require.True(t, ok)
	_, stale := table.LocalMacro("first")
	assert.False(t, stale)
	_, fresh := table.LocalMacro("second")
	assert.True(t, fresh)

	// delete
	require.NoError(t, fs.Remove("/templates/b.j2"))
	require.NoError(t, index.UpdatePath(context.Background(), "/templates/b.j2"))
	assert.Equal(t, 1, index.Len())

	// non-template paths are ignored
	require.NoError(t, afero.WriteFile(fs, "/templates/notes.txt", []byte(`x`), 0o644))
	require.NoError(t, index.UpdatePath(context.Background(), "/templates/notes.txt"))
	assert.Equal(t, 1, index.Len())
}

func TestIndexServesRelationshipTraversal(t *testing.T) {
	fs := seededFs(t, map[string]string{
		"/templates/base.j2":  `{% block content %}{{ user.role }}{% endblock %}`,
		"/templates/child.j2": `{% extends "base.j2" %}{{ user.name }}`,
	})
	index := workspace.NewIndex(fs, []string{"/templates"}, extensions)
	require.NoError(t, index.Rebuild(context.Background()))

	props := inference.PropertiesIn(index, "file:///templates/child.j2", "user")
	assert.Equal(t, []string{"name", "role"}, props)
}

func TestAggregates(t *testing.T) {
	fs := seededFs(t, map[string]string{
		"/templates/forms.j2":  `{% macro field(name) %}{{ name }}{% endmacro %}{% macro submit() %}{% endmacro %}`,
		"/templates/layout.j2": `{% block header %}{% endblock %}{% set site_name = "demo" %}`,
	})
	index := workspace.NewIndex(fs, []string{"/templates"}, extensions)
	require.NoError(t, index.Rebuild(context.Background()))

	macros := index.AllMacros()
	require.Len(t, macros, 2)
	assert.Equal(t, "field", macros[0].Macro.Name)
	assert.Equal(t, "file:///templates/forms.j2", macros[0].URI)

	blocks := index.AllBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "header", blocks[0].Block.Name)

	vars := index.AllSetVariables()
	require.Len(t, vars, 1)
	assert.Equal(t, "site_name", vars[0].Info.Name)
	assert.Equal(t, inference.SourceSet, vars[0].Info.Source)
}
