package resolve

import (
	"sort"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/walteh/jinjals/pkg/inference"
	"github.com/walteh/jinjals/pkg/jinja"
	"github.com/walteh/jinjals/pkg/position"
)

// reference is one occurrence of a symbol in one document.
type reference struct {
	span         position.Span
	isDefinition bool
}

// References lists every occurrence of the symbol at pos. Variables are
// document-scoped; macros and blocks are searched across every open
// document and every indexed workspace file.
func (r *Resolver) References(docURI, text string, pos protocol.Position, includeDeclaration bool) ([]protocol.Location, error) {
	offset := position.OffsetAt(text, int(pos.Line), int(pos.Character))
	kind, name := r.symbolAt(docURI, text, offset)
	if kind == symbolNone {
		return nil, nil
	}

	var out []protocol.Location
	for _, candidate := range r.candidateDocs(docURI, kind) {
		candidateText, ok := r.textFor(candidate, docURI, text)
		if !ok {
			continue
		}
		for _, ref := range collectReferences(docURI == candidate, candidateText, kind, name) {
			if ref.isDefinition && !includeDeclaration {
				continue
			}
			out = append(out, locationFor(candidate, ref.span))
		}
	}
	return out, nil
}

// Rename rewrites every occurrence of the symbol at pos, definitions
// included, to newName.
func (r *Resolver) Rename(docURI, text string, pos protocol.Position, newName string) (*protocol.WorkspaceEdit, error) {
	offset := position.OffsetAt(text, int(pos.Line), int(pos.Character))
	kind, name := r.symbolAt(docURI, text, offset)
	if kind == symbolNone || newName == "" || newName == name {
		return nil, nil
	}

	changes := make(map[uri.URI][]protocol.TextEdit)
	for _, candidate := range r.candidateDocs(docURI, kind) {
		candidateText, ok := r.textFor(candidate, docURI, text)
		if !ok {
			continue
		}
		for _, ref := range collectReferences(docURI == candidate, candidateText, kind, name) {
			changes[uri.URI(candidate)] = append(changes[uri.URI(candidate)], protocol.TextEdit{
				Range:   rangeFor(ref.span),
				NewText: newName,
			})
		}
	}
	if len(changes) == 0 {
		return nil, nil
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}

// Highlights marks every occurrence of the symbol at pos within the
// current document only, with binding sites as write occurrences.
func (r *Resolver) Highlights(docURI, text string, pos protocol.Position) ([]protocol.DocumentHighlight, error) {
	offset := position.OffsetAt(text, int(pos.Line), int(pos.Character))
	kind, name := r.symbolAt(docURI, text, offset)
	if kind == symbolNone {
		return nil, nil
	}

	var out []protocol.DocumentHighlight
	for _, ref := range collectReferences(true, text, kind, name) {
		hk := protocol.DocumentHighlightKindRead
		if ref.isDefinition {
			hk = protocol.DocumentHighlightKindWrite
		}
		out = append(out, protocol.DocumentHighlight{
			Range: rangeFor(ref.span),
			Kind:  hk,
		})
	}
	return out, nil
}

// candidateDocs lists the documents a reference search must visit. Open
// documents and indexed files are merged, duplicates removed.
func (r *Resolver) candidateDocs(docURI string, kind symbolKind) []string {
	if kind == symbolVariable {
		return []string{docURI}
	}
	seen := map[string]struct{}{docURI: {}}
	docs := []string{docURI}
	for _, u := range r.docs.URIs() {
		if _, dup := seen[u]; !dup {
			seen[u] = struct{}{}
			docs = append(docs, u)
		}
	}
	for _, u := range r.index.URIs() {
		if _, dup := seen[u]; !dup {
			seen[u] = struct{}{}
			docs = append(docs, u)
		}
	}
	sort.Strings(docs[1:])
	return docs
}

// textFor fetches a candidate's text, preferring the live buffer over the
// on-disk copy.
func (r *Resolver) textFor(candidate, docURI, docText string) (string, bool) {
	if candidate == docURI {
		return docText, true
	}
	if text, ok := r.docs.Text(candidate); ok {
		return text, true
	}
	return r.index.Source(candidate)
}

// collectReferences re-walks one document's AST for occurrences of name.
// isCurrent guards variable searches, which never leave the current file.
func collectReferences(isCurrent bool, text string, kind symbolKind, name string) []reference {
	tpl, _, err := jinja.Parse(text)
	if err != nil {
		return nil
	}

	var out []reference
	switch kind {
	case symbolVariable:
		if !isCurrent {
			return nil
		}
		out = variableReferences(text, tpl, name)
	case symbolMacro:
		jinja.Walk(tpl, func(n jinja.Node) {
			switch v := n.(type) {
			case *jinja.Macro:
				if v.Name == name {
					out = append(out, reference{span: v.NameSpan, isDefinition: true})
				}
			case *jinja.Call:
				if target, ok := v.Target.(*jinja.Name); ok && target.Name == name {
					out = append(out, reference{span: target.Span()})
				}
			case *jinja.FromImport:
				for _, imported := range v.Names {
					if imported.Name == name {
						out = append(out, reference{span: imported.Span})
					}
				}
			}
		})
	case symbolBlock:
		jinja.Walk(tpl, func(n jinja.Node) {
			if block, ok := n.(*jinja.Block); ok && block.Name == name {
				out = append(out, reference{span: block.NameSpan, isDefinition: true})
			}
		})
	}
	return out
}

// variableReferences collects every Name occurrence plus macro parameter
// declarations, flagging binding sites via the freshly extracted table.
func variableReferences(text string, tpl *jinja.Template, name string) []reference {
	table := inference.Extract("", text, tpl)
	bindings := make(map[position.Span]struct{})
	for _, info := range table.Variables[name] {
		if info.Span != nil {
			bindings[*info.Span] = struct{}{}
		}
	}

	var out []reference
	jinja.Walk(tpl, func(n jinja.Node) {
		if ident, ok := n.(*jinja.Name); ok && ident.Name == name {
			_, isDef := bindings[ident.Span()]
			out = append(out, reference{span: ident.Span(), isDefinition: isDef})
		}
	})
	// macro parameters are declarations but not Name nodes
	jinja.Walk(tpl, func(n jinja.Node) {
		if macro, ok := n.(*jinja.Macro); ok {
			for _, param := range macro.Params {
				if param.Name == name {
					out = append(out, reference{span: param.Span, isDefinition: true})
				}
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].span.Start.Offset < out[j].span.Start.Offset
	})
	return out
}
