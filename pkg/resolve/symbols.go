package resolve

import (
	"sort"

	"go.lsp.dev/protocol"

	"github.com/walteh/jinjals/pkg/fuzzy"
	"github.com/walteh/jinjals/pkg/inference"
	"github.com/walteh/jinjals/pkg/position"
)

// scoredSymbol pairs a candidate with its match score for sorting.
type scoredSymbol struct {
	info  protocol.SymbolInformation
	score int
}

// WorkspaceSymbols fuzzy-matches query against every macro, block and
// set-bound variable across the workspace index and the open documents. An
// open document's symbols shadow the indexed copy of the same file. An
// empty query returns nothing rather than everything.
func (r *Resolver) WorkspaceSymbols(query string) []protocol.SymbolInformation {
	if query == "" {
		return nil
	}

	open := make(map[string]struct{})
	var pool []scoredSymbol
	add := func(name string, kind protocol.SymbolKind, docURI string, span position.Span) {
		if score := fuzzy.Score(query, name); score > 0 {
			pool = append(pool, scoredSymbol{
				info: protocol.SymbolInformation{
					Name:     name,
					Kind:     kind,
					Location: locationFor(docURI, span),
				},
				score: score,
			})
		}
	}

	for _, docURI := range r.engine.URIs() {
		open[docURI] = struct{}{}
		table, ok := r.engine.Table(docURI)
		if !ok {
			continue
		}
		addTableSymbols(add, docURI, table)
	}
	for _, ref := range r.index.AllMacros() {
		if _, shadowed := open[ref.URI]; !shadowed {
			add(ref.Macro.Name, protocol.SymbolKindFunction, ref.URI, ref.Macro.Span)
		}
	}
	for _, ref := range r.index.AllBlocks() {
		if _, shadowed := open[ref.URI]; !shadowed {
			add(ref.Block.Name, protocol.SymbolKindNamespace, ref.URI, ref.Block.Span)
		}
	}
	for _, ref := range r.index.AllSetVariables() {
		if _, shadowed := open[ref.URI]; !shadowed && ref.Info.Span != nil {
			add(ref.Info.Name, protocol.SymbolKindVariable, ref.URI, *ref.Info.Span)
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].info.Name < pool[j].info.Name
	})

	out := make([]protocol.SymbolInformation, 0, len(pool))
	for _, s := range pool {
		out = append(out, s.info)
	}
	return out
}

func addTableSymbols(add func(string, protocol.SymbolKind, string, position.Span), docURI string, table *inference.SymbolTable) {
	for _, macro := range table.Macros {
		add(macro.Name, protocol.SymbolKindFunction, docURI, macro.Span)
	}
	for _, block := range table.Blocks {
		add(block.Name, protocol.SymbolKindNamespace, docURI, block.Span)
	}
	for _, name := range table.SetVariableNames() {
		if info, ok := table.Definition(name); ok && info.Span != nil {
			add(name, protocol.SymbolKindVariable, docURI, *info.Span)
		}
	}
}
