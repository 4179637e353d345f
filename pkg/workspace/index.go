// Package workspace maintains symbol tables for every template file on
// disk, independently of which documents are open in the editor. The index
// is rebuilt by scanning configured roots and kept current by path-level
// updates fed from the file watcher.
package workspace

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/jinjals/pkg/inference"
	"github.com/walteh/jinjals/pkg/jinja"
	"gitlab.com/tozd/go/errors"
)

// Index holds one symbol table per indexed template file. It satisfies
// inference.TableSource so relationship traversal can follow edges into
// files that are not open anywhere.
type Index struct {
	fs         afero.Fs
	roots      []string
	extensions []string

	mu     sync.RWMutex
	tables map[string]*inference.SymbolTable
	// paths reverse-maps basenames and full paths to indexed URIs, the same
	// shape the inference engine keeps for open documents.
	paths map[string]string
}

var _ inference.TableSource = (*Index)(nil)

// NewIndex builds an empty index over fs. roots are directories to scan;
// extensions are the template filename suffixes to accept, dot included.
func NewIndex(fs afero.Fs, roots []string, extensions []string) *Index {
	return &Index{
		fs:         fs,
		roots:      roots,
		extensions: extensions,
		tables:     make(map[string]*inference.SymbolTable),
		paths:      make(map[string]string),
	}
}

// pattern renders the accepted extensions as one doublestar glob, e.g.
// "**/*{.j2,.jinja}".
func (i *Index) pattern() string {
	return "**/*{" + strings.Join(i.extensions, ",") + "}"
}

// Rebuild rescans every root from scratch and swaps the result in
// wholesale. Unreadable or unparsable files are skipped and reported in the
// aggregated error; they never abort the scan.
func (i *Index) Rebuild(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	pattern := i.pattern()

	tables := make(map[string]*inference.SymbolTable)
	paths := make(map[string]string)
	var errs *multierror.Error

	for _, root := range i.roots {
		err := afero.Walk(i.fs, root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				errs = multierror.Append(errs, errors.Errorf("walking %s: %w", p, err))
				return nil
			}
			if info.IsDir() {
				return nil
			}
			if ok, _ := doublestar.Match(pattern, filepath.ToSlash(p)); !ok {
				return nil
			}
			uri := uriFor(p)
			table, err := i.indexFile(p)
			if err != nil {
				errs = multierror.Append(errs, err)
				// keep the last good entry until the file indexes cleanly again
				i.mu.RLock()
				previous, had := i.tables[uri]
				i.mu.RUnlock()
				if !had {
					return nil
				}
				table = previous
			}
			tables[uri] = table
			registerPath(paths, uri)
			return nil
		})
		if err != nil {
			errs = multierror.Append(errs, errors.Errorf("scanning root %s: %w", root, err))
		}
	}

	i.mu.Lock()
	i.tables = tables
	i.paths = paths
	i.mu.Unlock()

	logger.Debug().Int("templates", len(tables)).Msg("workspace index rebuilt")
	return errs.ErrorOrNil()
}

// UpdatePath re-indexes a single file after a filesystem change. A path
// that no longer exists is removed from the index; a path that does not
// look like a template is ignored.
func (i *Index) UpdatePath(ctx context.Context, p string) error {
	logger := zerolog.Ctx(ctx)
	uri := uriFor(p)

	if _, err := i.fs.Stat(p); err != nil {
		i.mu.Lock()
		delete(i.tables, uri)
		i.mu.Unlock()
		logger.Debug().Str("path", p).Msg("removed from workspace index")
		return nil
	}
	if ok, _ := doublestar.Match(i.pattern(), filepath.ToSlash(p)); !ok {
		return nil
	}

	table, err := i.indexFile(p)
	if err != nil {
		return err
	}
	i.mu.Lock()
	i.tables[uri] = table
	registerPath(i.paths, uri)
	i.mu.Unlock()

	logger.Debug().Str("path", p).Msg("workspace index updated")
	return nil
}

func (i *Index) indexFile(p string) (*inference.SymbolTable, error) {
	data, err := afero.ReadFile(i.fs, p)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", p, err)
	}
	tpl, _, err := jinja.Parse(string(data))
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", p, err)
	}
	return inference.Extract(uriFor(p), string(data), tpl), nil
}

// Table returns a snapshot of the file's symbol table.
func (i *Index) Table(uri string) (*inference.SymbolTable, bool) {
	i.mu.RLock()
	table, ok := i.tables[uri]
	i.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return table.Clone(), true
}

// ResolveTemplatePath maps a relationship's template path to an indexed
// URI, basename first, then relative to the referencing file.
func (i *Index) ResolveTemplatePath(fromURI, templatePath string) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if uri, ok := i.paths[path.Base(templatePath)]; ok {
		return uri, true
	}
	joined := path.Join(path.Dir(strings.TrimPrefix(fromURI, "file://")), templatePath)
	if uri, ok := i.paths[joined]; ok {
		return uri, true
	}
	if _, ok := i.tables["file://"+joined]; ok {
		return "file://" + joined, true
	}
	return "file://" + joined, false
}

// Source reads back the current text of an indexed template. Reference
// and rename queries need the text to re-walk the AST, not just the table.
func (i *Index) Source(uri string) (string, bool) {
	i.mu.RLock()
	_, ok := i.tables[uri]
	i.mu.RUnlock()
	if !ok {
		return "", false
	}
	data, err := afero.ReadFile(i.fs, strings.TrimPrefix(uri, "file://"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// URIs lists every indexed template, sorted.
func (i *Index) URIs() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	uris := make([]string, 0, len(i.tables))
	for uri := range i.tables {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Len reports how many templates are currently indexed.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.tables)
}

// MacroRef is a macro definition together with the file that defines it.
type MacroRef struct {
	URI   string
	Macro inference.MacroInfo
}

// BlockRef is a block definition together with the file that defines it.
type BlockRef struct {
	URI   string
	Block inference.BlockInfo
}

// VariableRef is a set-bound variable together with the file that binds it.
type VariableRef struct {
	URI  string
	Info inference.VariableInfo
}

// AllMacros collects every macro definition across the index, ordered by
// URI then source order.
func (i *Index) AllMacros() []MacroRef {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var out []MacroRef
	for _, uri := range sortedKeys(i.tables) {
		for _, macro := range i.tables[uri].Macros {
			out = append(out, MacroRef{URI: uri, Macro: macro})
		}
	}
	return out
}

// AllBlocks collects every block definition across the index.
func (i *Index) AllBlocks() []BlockRef {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var out []BlockRef
	for _, uri := range sortedKeys(i.tables) {
		for _, block := range i.tables[uri].Blocks {
			out = append(out, BlockRef{URI: uri, Block: block})
		}
	}
	return out
}

// AllSetVariables collects every set/set-block binding across the index.
// These are the variables worth surfacing as workspace symbols; loop
// variables and macro parameters are too local to be useful there.
func (i *Index) AllSetVariables() []VariableRef {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var out []VariableRef
	for _, uri := range sortedKeys(i.tables) {
		table := i.tables[uri]
		for _, name := range table.SetVariableNames() {
			for _, info := range table.Variables[name] {
				if info.Source == inference.SourceSet || info.Source == inference.SourceSetBlock {
					out = append(out, VariableRef{URI: uri, Info: info})
					break
				}
			}
		}
	}
	return out
}

func sortedKeys(m map[string]*inference.SymbolTable) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func uriFor(p string) string {
	return "file://" + filepath.ToSlash(p)
}

func registerPath(paths map[string]string, uri string) {
	p := strings.TrimPrefix(uri, "file://")
	paths[path.Base(p)] = uri
	paths[p] = uri
}
