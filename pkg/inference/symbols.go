// Package inference extracts per-document symbol usage from template ASTs
// and propagates it across extends/include/import chains. It owns one symbol
// table per analyzed URI; tables are replaced wholesale on re-analysis and
// handed out only as snapshots.
package inference

import (
	"sort"

	"github.com/walteh/jinjals/pkg/position"
)

// VariableSource says how a variable came to exist in a document.
type VariableSource int

const (
	// SourceContext marks a variable that is read but never locally bound;
	// it must come from the render context.
	SourceContext VariableSource = iota
	SourceForLoop
	SourceSet
	SourceSetBlock
	SourceMacroParam
)

func (s VariableSource) String() string {
	switch s {
	case SourceForLoop:
		return "for loop"
	case SourceSet:
		return "set"
	case SourceSetBlock:
		return "set block"
	case SourceMacroParam:
		return "macro parameter"
	default:
		return "context"
	}
}

// VariableInfo is one binding site of a variable. Span is nil for
// SourceContext variables, which have no definition site.
type VariableInfo struct {
	Name   string
	Source VariableSource
	Span   *position.Span
	Detail string
}

// MacroInfo describes one macro definition. Defaults maps parameter names to
// the source text of their default value expressions.
type MacroInfo struct {
	Name     string
	Params   []string
	Defaults map[string]string
	Span     position.Span
}

// BlockInfo describes one block definition. SourceURI attributes a block
// inherited through an extends chain to the file that actually defines it.
type BlockInfo struct {
	Name      string
	Span      position.Span
	SourceURI string
}

// SymbolTable is the per-document aggregate of everything the inference
// walk extracted.
type SymbolTable struct {
	// Properties maps a variable name to the set of properties observed on
	// it anywhere in the document.
	Properties map[string]map[string]struct{}
	// Variables maps a variable name to its binding sites, in source order.
	Variables map[string][]VariableInfo
	Macros    []MacroInfo
	Blocks    []BlockInfo
	// Relationships holds the literal template paths referenced by
	// extends/include/import/from-import tags.
	Relationships map[string]struct{}
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		Properties:    make(map[string]map[string]struct{}),
		Variables:     make(map[string][]VariableInfo),
		Relationships: make(map[string]struct{}),
	}
}

// Clone returns a snapshot the caller may hold without synchronization.
func (t *SymbolTable) Clone() *SymbolTable {
	out := NewSymbolTable()
	for name, props := range t.Properties {
		set := make(map[string]struct{}, len(props))
		for p := range props {
			set[p] = struct{}{}
		}
		out.Properties[name] = set
	}
	for name, infos := range t.Variables {
		out.Variables[name] = append([]VariableInfo(nil), infos...)
	}
	out.Macros = append([]MacroInfo(nil), t.Macros...)
	out.Blocks = append([]BlockInfo(nil), t.Blocks...)
	for rel := range t.Relationships {
		out.Relationships[rel] = struct{}{}
	}
	return out
}

// LocalMacro finds a macro defined in this document (not merely visible
// through an import).
func (t *SymbolTable) LocalMacro(name string) (MacroInfo, bool) {
	for _, m := range t.Macros {
		if m.Name == name {
			return m, true
		}
	}
	return MacroInfo{}, false
}

// LocalBlock finds a block defined in this document.
func (t *SymbolTable) LocalBlock(name string) (BlockInfo, bool) {
	for _, b := range t.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return BlockInfo{}, false
}

// Definition returns the first real binding site of a variable, skipping
// context variables that have none.
func (t *SymbolTable) Definition(name string) (VariableInfo, bool) {
	for _, info := range t.Variables[name] {
		if info.Source != SourceContext && info.Span != nil {
			return info, true
		}
	}
	return VariableInfo{}, false
}

// VariableNames returns every known variable name, sorted.
func (t *SymbolTable) VariableNames() []string {
	names := make([]string, 0, len(t.Variables))
	for name := range t.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetVariableNames returns the names bound by set/set-block tags, sorted.
// These are the document's exportable top-level values.
func (t *SymbolTable) SetVariableNames() []string {
	var names []string
	for name, infos := range t.Variables {
		for _, info := range infos {
			if info.Source == SourceSet || info.Source == SourceSetBlock {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}
