package inference

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/walteh/jinjals/pkg/jinja"
)

// TableSource is anything that can hand out symbol-table snapshots by URI
// and resolve a relationship's template path to a URI. The engine implements
// it for open documents; the workspace index implements it for files on
// disk; the resolution facade composes the two.
type TableSource interface {
	Table(uri string) (*SymbolTable, bool)
	ResolveTemplatePath(fromURI, templatePath string) (string, bool)
}

// Engine owns the symbol tables of analyzed (typically open) documents.
type Engine struct {
	mu     sync.RWMutex
	tables map[string]*SymbolTable
	// paths reverse-maps template path fragments (basename, full path) to
	// the URI that was analyzed under them.
	paths map[string]string
}

var _ TableSource = (*Engine)(nil)

func NewEngine() *Engine {
	return &Engine{
		tables: make(map[string]*SymbolTable),
		paths:  make(map[string]string),
	}
}

// Analyze parses text and replaces the document's symbol table wholesale.
// Malformed input is best-effort: if parsing aborts before extraction the
// previous table is kept; recovered syntax errors keep whatever the partial
// AST yields.
func (e *Engine) Analyze(ctx context.Context, uri, text string) {
	logger := zerolog.Ctx(ctx)

	tpl, diags, err := jinja.Parse(text)
	if err != nil {
		logger.Debug().Str("uri", uri).Err(err).Msg("parse aborted, keeping previous symbol table")
		return
	}
	table := Extract(uri, text, tpl)

	e.mu.Lock()
	e.tables[uri] = table
	e.registerPathLocked(uri)
	e.mu.Unlock()

	logger.Debug().
		Str("uri", uri).
		Int("diagnostics", len(diags)).
		Int("variables", len(table.Variables)).
		Int("macros", len(table.Macros)).
		Int("blocks", len(table.Blocks)).
		Msg("document analyzed")
}

func (e *Engine) registerPathLocked(uri string) {
	p := strings.TrimPrefix(uri, "file://")
	e.paths[path.Base(p)] = uri
	e.paths[p] = uri
}

// Clear removes a closed document's table. The path index entry survives:
// other documents may still reference the template by name.
func (e *Engine) Clear(uri string) {
	e.mu.Lock()
	delete(e.tables, uri)
	e.mu.Unlock()
}

func (e *Engine) ClearAll() {
	e.mu.Lock()
	e.tables = make(map[string]*SymbolTable)
	e.paths = make(map[string]string)
	e.mu.Unlock()
}

// Table returns a snapshot of the document's symbol table.
func (e *Engine) Table(uri string) (*SymbolTable, bool) {
	e.mu.RLock()
	table, ok := e.tables[uri]
	e.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return table.Clone(), true
}

// URIs lists every analyzed document.
func (e *Engine) URIs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	uris := make([]string, 0, len(e.tables))
	for uri := range e.tables {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// ResolveTemplatePath maps a relationship's template path string to a URI:
// direct basename match first, then relative to the referencing document's
// directory, else a synthesized sibling URI. The basename-first heuristic
// can pick the wrong same-named file in a workspace with duplicate
// filenames; that imprecision is accepted rather than guessed around.
func (e *Engine) ResolveTemplatePath(fromURI, templatePath string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if uri, ok := e.paths[path.Base(templatePath)]; ok {
		return uri, true
	}
	joined := joinTemplatePath(fromURI, templatePath)
	if uri, ok := e.paths[strings.TrimPrefix(joined, "file://")]; ok {
		return uri, true
	}
	if _, ok := e.tables[joined]; ok {
		return joined, true
	}
	return joined, false
}

// joinTemplatePath resolves templatePath against the directory of fromURI,
// keeping whatever scheme prefix fromURI carries.
func joinTemplatePath(fromURI, templatePath string) string {
	scheme := ""
	rest := fromURI
	if strings.HasPrefix(fromURI, "file://") {
		scheme = "file://"
		rest = strings.TrimPrefix(fromURI, "file://")
	}
	return scheme + path.Join(path.Dir(rest), templatePath)
}

// VariablesFor lists every variable name known in the document.
func (e *Engine) VariablesFor(uri string) []string {
	table, ok := e.Table(uri)
	if !ok {
		return nil
	}
	return table.VariableNames()
}

// MacrosFor lists the document's locally defined macros.
func (e *Engine) MacrosFor(uri string) []MacroInfo {
	table, ok := e.Table(uri)
	if !ok {
		return nil
	}
	return table.Macros
}

// BlocksFor lists the document's locally defined blocks.
func (e *Engine) BlocksFor(uri string) []BlockInfo {
	table, ok := e.Table(uri)
	if !ok {
		return nil
	}
	return table.Blocks
}

// PropertiesFor unions the properties observed on a variable in the
// document and in every template reachable through its relationship edges.
func (e *Engine) PropertiesFor(uri, variable string) []string {
	return PropertiesIn(e, uri, variable)
}

// PropertiesIn is PropertiesFor over an arbitrary table source, so callers
// can combine open documents with a workspace index.
func PropertiesIn(src TableSource, uri, variable string) []string {
	props := make(map[string]struct{})
	visited := make(map[string]struct{})

	var visit func(u string)
	visit = func(u string) {
		if _, seen := visited[u]; seen {
			return
		}
		visited[u] = struct{}{}

		table, ok := src.Table(u)
		if !ok {
			return
		}
		for p := range table.Properties[variable] {
			props[p] = struct{}{}
		}
		for rel := range table.Relationships {
			if target, ok := src.ResolveTemplatePath(u, rel); ok {
				visit(target)
			}
		}
	}
	visit(uri)

	out := make([]string, 0, len(props))
	for p := range props {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// FindMacro locates the document whose local macro table defines name,
// searching the starting document first and then its relationship edges,
// cycle-guarded. This distinguishes "defined here" from "merely visible
// here via import".
func FindMacro(src TableSource, uri, name string) (MacroInfo, string, bool) {
	visited := make(map[string]struct{})

	var visit func(u string) (MacroInfo, string, bool)
	visit = func(u string) (MacroInfo, string, bool) {
		if _, seen := visited[u]; seen {
			return MacroInfo{}, "", false
		}
		visited[u] = struct{}{}

		table, ok := src.Table(u)
		if !ok {
			return MacroInfo{}, "", false
		}
		if macro, ok := table.LocalMacro(name); ok {
			return macro, u, true
		}
		for rel := range table.Relationships {
			if target, ok := src.ResolveTemplatePath(u, rel); ok {
				if macro, defURI, found := visit(target); found {
					return macro, defURI, true
				}
			}
		}
		return MacroInfo{}, "", false
	}
	return visit(uri)
}

// FindBlock locates a block definition by name, preferring the block's own
// source attribution over the requesting document.
func FindBlock(src TableSource, uri, name string) (BlockInfo, string, bool) {
	visited := make(map[string]struct{})

	var visit func(u string) (BlockInfo, string, bool)
	visit = func(u string) (BlockInfo, string, bool) {
		if _, seen := visited[u]; seen {
			return BlockInfo{}, "", false
		}
		visited[u] = struct{}{}

		table, ok := src.Table(u)
		if !ok {
			return BlockInfo{}, "", false
		}
		if block, ok := table.LocalBlock(name); ok {
			return block, block.SourceURI, true
		}
		for rel := range table.Relationships {
			if target, ok := src.ResolveTemplatePath(u, rel); ok {
				if block, defURI, found := visit(target); found {
					return block, defURI, true
				}
			}
		}
		return BlockInfo{}, "", false
	}
	return visit(uri)
}
