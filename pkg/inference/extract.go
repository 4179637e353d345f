package inference

import (
	"fmt"

	"github.com/walteh/jinjals/pkg/jinja"
	"github.com/walteh/jinjals/pkg/position"
)

// Extract runs the single top-down walk that builds a document's symbol
// table from its AST. text is the original source, used to render default
// value expressions back to snippets.
func Extract(uri, text string, tpl *jinja.Template) *SymbolTable {
	x := &extractor{
		uri:   uri,
		text:  text,
		table: NewSymbolTable(),
		reads: make(map[string]struct{}),
	}
	x.stmts(tpl.Body)

	// variables that were read but never bound come from the render context
	for name := range x.reads {
		if _, bound := x.table.Variables[name]; bound {
			continue
		}
		x.table.Variables[name] = []VariableInfo{{
			Name:   name,
			Source: SourceContext,
			Detail: "provided by the render context",
		}}
	}
	return x.table
}

type extractor struct {
	uri   string
	text  string
	table *SymbolTable
	reads map[string]struct{} // names read anywhere in the document
}

func (x *extractor) snippet(span position.Span) string {
	start, end := span.Start.Offset, span.End.Offset
	if start < 0 || end > len(x.text) || start > end {
		return ""
	}
	return x.text[start:end]
}

func (x *extractor) bind(name *jinja.Name, source VariableSource, detail string) {
	if name == nil {
		return
	}
	span := name.Span()
	x.table.Variables[name.Name] = append(x.table.Variables[name.Name], VariableInfo{
		Name:   name.Name,
		Source: source,
		Span:   &span,
		Detail: detail,
	})
}

func (x *extractor) stmts(body []jinja.Node) {
	for _, n := range body {
		x.stmt(n)
	}
}

func (x *extractor) stmt(n jinja.Node) {
	switch v := n.(type) {
	case *jinja.Output:
		x.expr(v.Expr)
	case *jinja.If:
		x.expr(v.Test)
		x.stmts(v.Body)
		x.stmts(v.Else)
	case *jinja.For:
		for _, target := range v.Targets {
			x.bind(target, SourceForLoop, "for loop variable")
		}
		x.expr(v.Iter)
		x.stmts(v.Body)
		x.stmts(v.Else)
	case *jinja.Set:
		for _, target := range v.Targets {
			x.bind(target, SourceSet, "set variable")
		}
		x.expr(v.Value)
	case *jinja.SetBlock:
		x.bind(v.Target, SourceSetBlock, "set block variable")
		x.stmts(v.Body)
	case *jinja.Block:
		x.table.Blocks = append(x.table.Blocks, BlockInfo{
			Name:      v.Name,
			Span:      v.NameSpan,
			SourceURI: x.uri,
		})
		x.stmts(v.Body)
	case *jinja.Macro:
		x.macro(v)
	case *jinja.CallBlock:
		x.expr(v.Call)
		x.stmts(v.Body)
	case *jinja.Extends:
		x.relationship(v.Template)
	case *jinja.Include:
		x.relationship(v.Template)
	case *jinja.Import:
		x.relationship(v.Template)
	case *jinja.FromImport:
		x.relationship(v.Template)
	case *jinja.CustomTag:
		for _, arg := range v.Args {
			x.expr(arg)
		}
	}
}

func (x *extractor) macro(v *jinja.Macro) {
	info := MacroInfo{
		Name:     v.Name,
		Params:   make([]string, 0, len(v.Params)),
		Defaults: make(map[string]string),
		Span:     v.NameSpan,
	}
	for _, param := range v.Params {
		info.Params = append(info.Params, param.Name)
		if param.Default != nil {
			info.Defaults[param.Name] = x.snippet(param.Default.Span())
			x.expr(param.Default)
		}
		span := param.Span
		x.table.Variables[param.Name] = append(x.table.Variables[param.Name], VariableInfo{
			Name:   param.Name,
			Source: SourceMacroParam,
			Span:   &span,
			Detail: fmt.Sprintf("parameter of %s", v.Name),
		})
	}
	x.table.Macros = append(x.table.Macros, info)
	x.stmts(v.Body)
}

// relationship records a template-path edge when the reference is a string
// literal. Dynamic expressions are silently dropped: they cannot be resolved
// statically.
func (x *extractor) relationship(ref jinja.Node) {
	if ref == nil {
		return
	}
	if path, ok := jinja.TemplateString(ref); ok && path != "" {
		x.table.Relationships[path] = struct{}{}
		return
	}
	x.expr(ref)
}

// expr records property accesses and context variable reads inside any
// expression-bearing node.
func (x *extractor) expr(n jinja.Node) {
	if n == nil {
		return
	}
	switch v := n.(type) {
	case *jinja.Name:
		x.reads[v.Name] = struct{}{}
	case *jinja.GetAttr:
		if base, ok := baseVariableName(v.Target); ok {
			props, exists := x.table.Properties[base]
			if !exists {
				props = make(map[string]struct{})
				x.table.Properties[base] = props
			}
			props[v.Attr] = struct{}{}
		}
		x.expr(v.Target)
	case *jinja.GetItem:
		x.expr(v.Target)
		x.expr(v.Index)
	case *jinja.Call:
		x.expr(v.Target)
		for _, arg := range v.Args {
			x.expr(arg)
		}
		for _, kw := range v.Kwargs {
			x.expr(kw.Value)
		}
	case *jinja.Filter:
		x.expr(v.Target)
		for _, arg := range v.Args {
			x.expr(arg)
		}
		for _, kw := range v.Kwargs {
			x.expr(kw.Value)
		}
	case *jinja.Test:
		x.expr(v.Target)
		for _, arg := range v.Args {
			x.expr(arg)
		}
	case *jinja.Binary:
		x.expr(v.Left)
		x.expr(v.Right)
	case *jinja.Unary:
		x.expr(v.Expr)
	case *jinja.Group:
		x.expr(v.Expr)
	case *jinja.ListLiteral:
		for _, item := range v.Items {
			x.expr(item)
		}
	case *jinja.TupleLiteral:
		for _, item := range v.Items {
			x.expr(item)
		}
	case *jinja.DictLiteral:
		for _, item := range v.Items {
			x.expr(item.Key)
			x.expr(item.Value)
		}
	case *jinja.Literal:
		// nothing to record
	}
}

// baseVariableName unwraps nested attribute and subscript access down to the
// root identifier.
func baseVariableName(n jinja.Node) (string, bool) {
	for {
		switch v := n.(type) {
		case *jinja.Name:
			return v.Name, true
		case *jinja.GetAttr:
			n = v.Target
		case *jinja.GetItem:
			n = v.Target
		default:
			return "", false
		}
	}
}
