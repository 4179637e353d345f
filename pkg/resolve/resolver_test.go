package resolve_test

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/walteh/jinjals/pkg/inference"
	"github.com/walteh/jinjals/pkg/position"
	"github.com/walteh/jinjals/pkg/resolve"
	"github.com/walteh/jinjals/pkg/workspace"
)

var extensions = []string{".j2", ".jinja", ".jinja2"}

// mapDocs is a TextSource over a plain map, standing in for the document
// manager.
type mapDocs map[string]string

func (m mapDocs) Text(u string) (string, bool) {
	text, ok := m[u]
	return text, ok
}

func (m mapDocs) URIs() []string {
	uris := make([]string, 0, len(m))
	for u := range m {
		uris = append(uris, u)
	}
	sort.Strings(uris)
	return uris
}

// fixture wires a resolver over on-disk files plus open documents.
func fixture(t *testing.T, disk, open map[string]string) (*resolve.Resolver, mapDocs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/templates", 0o755))
	for p, text := range disk {
		require.NoError(t, afero.WriteFile(fs, p, []byte(text), 0o644))
	}
	index := workspace.NewIndex(fs, []string{"/templates"}, extensions)
	require.NoError(t, index.Rebuild(context.Background()))

	engine := inference.NewEngine()
	docs := mapDocs{}
	for u, text := range open {
		engine.Analyze(context.Background(), u, text)
		docs[u] = text
	}
	return resolve.New(engine, index, docs), docs
}

// posOf converts the location of needle within text to editor coordinates,
// offset by extra bytes into the needle.
func posOf(t *testing.T, text, needle string, extra int) protocol.Position {
	t.Helper()
	at := strings.Index(text, needle)
	require.GreaterOrEqual(t, at, 0, "needle %q not found", needle)
	p := position.PosAt(text, at+extra)
	return protocol.Position{Line: uint32(p.Line - 1), Character: uint32(p.Column - 1)}
}

func TestDefinitionOfSetVariable(t *testing.T) {
	text := `{% set greeting = "hi" %}{{ greeting }}`
	r, _ := fixture(t, nil, map[string]string{"file:///templates/a.j2": text})

	locs, err := r.Definition("file:///templates/a.j2", text, posOf(t, text, "greeting }}", 2))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, uri.URI("file:///templates/a.j2"), locs[0].URI)
	assert.Equal(t, uint32(7), locs[0].Range.Start.Character, "definition is the set target, not the read site")
}

func TestDefinitionOfImportedMacro(t *testing.T) {
	formsText := `{% macro field(name) %}{{ name }}{% endmacro %}`
	pageText := `{% from "forms.j2" import field %}{{ field("a") }}`
	r, _ := fixture(t,
		map[string]string{"/templates/forms.j2": formsText},
		map[string]string{"file:///templates/page.j2": pageText},
	)

	locs, err := r.Definition("file:///templates/page.j2", pageText, posOf(t, pageText, `field("a")`, 1))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, uri.URI("file:///templates/forms.j2"), locs[0].URI)
	assert.Equal(t, uint32(9), locs[0].Range.Start.Character, "resolves to the macro keyword's name, not the import")
}

func TestDefinitionOfBlockPrefersDefiningFile(t *testing.T) {
	baseText := `{% block content %}{% endblock %}`
	childText := `{% extends "base.j2" %}{% block content %}{% endblock %}`
	r, _ := fixture(t,
		map[string]string{"/templates/base.j2": baseText},
		map[string]string{"file:///templates/child.j2": childText},
	)

	locs, err := r.Definition("file:///templates/child.j2", childText, posOf(t, childText, "content", 3))
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, uri.URI("file:///templates/child.j2"), locs[0].URI,
		"the open document defines the block locally, which shadows the parent")
}

func TestDefinitionMissesAreEmptyNotErrors(t *testing.T) {
	text := `{{ unknown_thing | upper }}`
	r, _ := fixture(t, nil, map[string]string{"file:///templates/a.j2": text})

	// a filter name has no in-workspace definition
	locs, err := r.Definition("file:///templates/a.j2", text, posOf(t, text, "upper", 2))
	require.NoError(t, err)
	assert.Empty(t, locs)

	// a position far past the end is structurally invalid input
	locs, err = r.Definition("file:///templates/a.j2", text, protocol.Position{Line: 99, Character: 0})
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestReferencesForMacroSpanWorkspace(t *testing.T) {
	formsText := `{% macro field(name) %}{{ name }}{% endmacro %}`
	pageText := `{% from "forms.j2" import field %}{{ field("a") }}`
	r, _ := fixture(t,
		map[string]string{"/templates/forms.j2": formsText},
		map[string]string{"file:///templates/page.j2": pageText},
	)

	locs, err := r.References("file:///templates/page.j2", pageText, posOf(t, pageText, `field("a")`, 1), true)
	require.NoError(t, err)
	require.Len(t, locs, 3, "import entry, call site and definition")

	var uris []string
	for _, loc := range locs {
		uris = append(uris, string(loc.URI))
	}
	assert.Contains(t, uris, "file:///templates/forms.j2")
	assert.Contains(t, uris, "file:///templates/page.j2")

	locs, err = r.References("file:///templates/page.j2", pageText, posOf(t, pageText, `field("a")`, 1), false)
	require.NoError(t, err)
	assert.Len(t, locs, 2, "excluding the declaration drops only the macro tag")
}

func TestReferencesForVariableStayLocal(t *testing.T) {
	text := `{% for item in items %}{{ item.name }}{{ item.id }}{% endfor %}`
	r, _ := fixture(t, nil, map[string]string{"file:///templates/a.j2": text})

	locs, err := r.References("file:///templates/a.j2", text, posOf(t, text, "item.name", 1), true)
	require.NoError(t, err)
	assert.Len(t, locs, 3, "loop target plus two reads")
}

func TestRenameMacroEditsEveryFile(t *testing.T) {
	formsText := `{% macro field(name) %}{{ name }}{% endmacro %}`
	pageText := `{% from "forms.j2" import field %}{{ field("a") }}`
	r, _ := fixture(t,
		map[string]string{"/templates/forms.j2": formsText},
		map[string]string{"file:///templates/page.j2": pageText},
	)

	edit, err := r.Rename("file:///templates/page.j2", pageText, posOf(t, pageText, `field("a")`, 1), "input_field")
	require.NoError(t, err)
	require.NotNil(t, edit)
	assert.Len(t, edit.Changes[uri.URI("file:///templates/page.j2")], 2)
	assert.Len(t, edit.Changes[uri.URI("file:///templates/forms.j2")], 1)
	for _, edits := range edit.Changes {
		for _, te := range edits {
			assert.Equal(t, "input_field", te.NewText)
		}
	}
}

func TestRenameToSameNameIsNoop(t *testing.T) {
	text := `{% set x = 1 %}{{ x }}`
	r, _ := fixture(t, nil, map[string]string{"file:///templates/a.j2": text})

	edit, err := r.Rename("file:///templates/a.j2", text, posOf(t, text, "x }}", 0), "x")
	require.NoError(t, err)
	assert.Nil(t, edit)
}

func TestHighlightsMarkWritesAndReads(t *testing.T) {
	text := `{% set count = 1 %}{{ count }}{{ count + 1 }}`
	r, _ := fixture(t, nil, map[string]string{"file:///templates/a.j2": text})

	highlights, err := r.Highlights("file:///templates/a.j2", text, posOf(t, text, "count }}", 0))
	require.NoError(t, err)
	require.Len(t, highlights, 3)
	assert.Equal(t, protocol.DocumentHighlightKindWrite, highlights[0].Kind)
	assert.Equal(t, protocol.DocumentHighlightKindRead, highlights[1].Kind)
	assert.Equal(t, protocol.DocumentHighlightKindRead, highlights[2].Kind)
}

func applyEdit(t *testing.T, text string, edit protocol.TextEdit) string {
	t.Helper()
	start := position.OffsetAt(text, int(edit.Range.Start.Line), int(edit.Range.Start.Character))
	end := position.OffsetAt(text, int(edit.Range.End.Line), int(edit.Range.End.Character))
	require.True(t, start >= 0 && end >= start && end <= len(text))
	return text[:start] + edit.NewText + text[end:]
}

func TestRemoveImportedName(t *testing.T) {
	r, _ := fixture(t, nil, nil)
	text := `{% from "f.j2" import a, b, c %}`

	tests := []struct {
		name   string
		remove string
		want   string
	}{
		{name: "middle name takes its trailing comma", remove: "b", want: `{% from "f.j2" import a, c %}`},
		{name: "last name takes its leading comma", remove: "c", want: `{% from "f.j2" import a, b %}`},
		{name: "first name takes its trailing comma", remove: "a", want: `{% from "f.j2" import b, c %}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edits := r.RemoveImportedName("file:///templates/a.j2", text, tt.remove)
			require.Len(t, edits, 1)
			assert.Equal(t, tt.want, applyEdit(t, text, edits[0]))
		})
	}

	t.Run("only name removes the whole tag", func(t *testing.T) {
		solo := `{% from "f.j2" import a %}{{ a() }}`
		edits := r.RemoveImportedName("file:///templates/a.j2", solo, "a")
		require.Len(t, edits, 1)
		assert.Equal(t, `{{ a() }}`, applyEdit(t, solo, edits[0]))
	})
}

func TestWorkspaceSymbolsScoreOrdering(t *testing.T) {
	r, _ := fixture(t, map[string]string{
		"/templates/a.j2": `{% macro render_button() %}{% endmacro %}`,
		"/templates/b.j2": `{% macro rbx() %}{% endmacro %}`,
		"/templates/c.j2": `{% block sidebar %}{% endblock %}{% set ribbon = 1 %}`,
	}, nil)

	syms := r.WorkspaceSymbols("rb")
	require.GreaterOrEqual(t, len(syms), 2)
	assert.Equal(t, "rbx", syms[0].Name, "prefix match outranks word-boundary match")
	assert.Equal(t, "render_button", syms[1].Name)
	assert.Equal(t, protocol.SymbolKindFunction, syms[0].Kind)

	for _, sym := range syms {
		assert.NotEqual(t, "sidebar", sym.Name, "non-matching names are excluded")
	}

	assert.Empty(t, r.WorkspaceSymbols(""), "empty query matches nothing")
}

func TestWorkspaceSymbolsPreferOpenDocument(t *testing.T) {
	diskText := `{% macro stale_name() %}{% endmacro %}`
	openText := `{% macro fresh_name() %}{% endmacro %}`
	r, _ := fixture(t,
		map[string]string{"/templates/a.j2": diskText},
		map[string]string{"file:///templates/a.j2": openText},
	)

	assert.Empty(t, r.WorkspaceSymbols("stale_name"), "indexed copy is shadowed by the open buffer")
	syms := r.WorkspaceSymbols("fresh_name")
	require.Len(t, syms, 1)
	assert.Equal(t, "fresh_name", syms[0].Name)
}
