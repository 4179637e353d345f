// Package resolve is the facade the protocol layer calls. It combines
// cursor classification, per-document inference and the workspace index to
// answer definition, references, rename, highlight and workspace-symbol
// queries. All results use 0-based editor coordinates; the conversion from
// the parser's 1-based spans happens here and nowhere else.
package resolve

import (
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/walteh/jinjals/pkg/cursor"
	"github.com/walteh/jinjals/pkg/inference"
	"github.com/walteh/jinjals/pkg/jinja"
	"github.com/walteh/jinjals/pkg/position"
	"github.com/walteh/jinjals/pkg/workspace"
)

// TextSource hands out the live text of open documents.
type TextSource interface {
	Text(uri string) (string, bool)
	URIs() []string
}

// Resolver answers symbol queries over open documents and the workspace.
type Resolver struct {
	engine *inference.Engine
	index  *workspace.Index
	docs   TextSource
}

func New(engine *inference.Engine, index *workspace.Index, docs TextSource) *Resolver {
	return &Resolver{engine: engine, index: index, docs: docs}
}

// tables is the combined view used by every cross-template traversal: an
// open document's live table always wins over the indexed copy of the same
// file.
func (r *Resolver) tables() inference.TableSource {
	return combined{open: r.engine, disk: r.index}
}

type combined struct {
	open inference.TableSource
	disk inference.TableSource
}

func (c combined) Table(uri string) (*inference.SymbolTable, bool) {
	if table, ok := c.open.Table(uri); ok {
		return table, true
	}
	return c.disk.Table(uri)
}

func (c combined) ResolveTemplatePath(fromURI, templatePath string) (string, bool) {
	if target, ok := c.open.ResolveTemplatePath(fromURI, templatePath); ok {
		return target, true
	}
	return c.disk.ResolveTemplatePath(fromURI, templatePath)
}

// symbolKind is the internal classification shared by definition,
// references, rename and highlight.
type symbolKind int

const (
	symbolNone symbolKind = iota
	symbolVariable
	symbolMacro
	symbolBlock
)

// symbolAt classifies the identifier under the cursor. Filter, test and
// tag names are builtins with no in-workspace definition, so they map to
// symbolNone.
func (r *Resolver) symbolAt(docURI, text string, offset int) (symbolKind, string) {
	if offset < 0 || offset > len(text) {
		return symbolNone, ""
	}
	tokens := jinja.Lex(text)
	cctx := cursor.Resolve(tokens, offset)

	name := cctx.Prefix
	if word, ok := cursor.WordAt(tokens, offset); ok {
		name = word.Lexeme
	}
	if name == "" {
		return symbolNone, ""
	}

	switch cctx.Kind {
	case cursor.KindBlockName:
		return symbolBlock, name
	case cursor.KindMacroName:
		return symbolMacro, name
	case cursor.KindVariable:
		// a macro call reads like a variable until the name resolves
		if _, _, ok := inference.FindMacro(r.tables(), docURI, name); ok {
			return symbolMacro, name
		}
		return symbolVariable, name
	default:
		return symbolNone, ""
	}
}

// Definition resolves the definition site of the symbol at pos.
func (r *Resolver) Definition(docURI, text string, pos protocol.Position) ([]protocol.Location, error) {
	offset := position.OffsetAt(text, int(pos.Line), int(pos.Character))
	kind, name := r.symbolAt(docURI, text, offset)

	switch kind {
	case symbolVariable:
		table, ok := r.tables().Table(docURI)
		if !ok {
			return nil, nil
		}
		info, ok := table.Definition(name)
		if !ok || info.Span == nil {
			return nil, nil
		}
		return []protocol.Location{locationFor(docURI, *info.Span)}, nil
	case symbolMacro:
		macro, defURI, ok := inference.FindMacro(r.tables(), docURI, name)
		if !ok {
			return nil, nil
		}
		return []protocol.Location{locationFor(defURI, macro.Span)}, nil
	case symbolBlock:
		block, defURI, ok := inference.FindBlock(r.tables(), docURI, name)
		if !ok {
			return nil, nil
		}
		return []protocol.Location{locationFor(defURI, block.Span)}, nil
	default:
		return nil, nil
	}
}

func locationFor(docURI string, span position.Span) protocol.Location {
	return protocol.Location{
		URI:   uri.URI(docURI),
		Range: rangeFor(span),
	}
}

// rangeFor is the single 1-based to 0-based conversion point.
func rangeFor(span position.Span) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{
			Line:      uint32(span.Start.Line - 1),
			Character: uint32(span.Start.Column - 1),
		},
		End: protocol.Position{
			Line:      uint32(span.End.Line - 1),
			Character: uint32(span.End.Column - 1),
		},
	}
}
