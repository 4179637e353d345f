package jinja

import "github.com/walteh/jinjals/pkg/position"

// Node is the closed union of AST node types. Every concrete node lives in
// this file; traversals switch over the concrete types and treat an unknown
// type as a walk-stopping bug rather than silently skipping it.
type Node interface {
	Span() position.Span
	node()
}

// Template is the root of a parsed document.
type Template struct {
	Body []Node
}

// ---- statements ----

// Output is a {{ expr }} print statement.
type Output struct {
	Expr Node
	span position.Span
}

// If is an {% if %} / {% elif %} / {% else %} chain. An elif branch is
// represented as a nested If in Else.
type If struct {
	Test Node
	Body []Node
	Else []Node
	span position.Span
}

// For is a {% for targets in iter %} loop.
type For struct {
	Targets []*Name
	Iter    Node
	Body    []Node
	Else    []Node
	span    position.Span
}

// Set is an inline {% set target = value %} assignment, possibly with a
// tuple-destructuring target list.
type Set struct {
	Targets []*Name
	Value   Node
	span    position.Span
}

// SetBlock is the block form {% set target %}...{% endset %}.
type SetBlock struct {
	Target *Name
	Body   []Node
	span   position.Span
}

// Block is a {% block name %} definition.
type Block struct {
	Name     string
	NameSpan position.Span
	Body     []Node
	span     position.Span
}

// MacroParam is a single macro parameter with an optional default value.
type MacroParam struct {
	Name    string
	Span    position.Span
	Default Node
}

// Macro is a {% macro name(params) %} definition.
type Macro struct {
	Name     string
	NameSpan position.Span
	Params   []MacroParam
	Body     []Node
	span     position.Span
}

// CallBlock is a {% call name(args) %} invocation with a body.
type CallBlock struct {
	Call *Call
	Body []Node
	span position.Span
}

// Extends is {% extends expr %}.
type Extends struct {
	Template Node
	span     position.Span
}

// Include is {% include expr %}.
type Include struct {
	Template Node
	span     position.Span
}

// Import is {% import expr as alias %}.
type Import struct {
	Template Node
	Alias    string
	span     position.Span
}

// ImportedName is one entry of a from-import name list, with its span in the
// source so rename edits can target it precisely.
type ImportedName struct {
	Name  string
	Alias string
	Span  position.Span
}

// FromImport is {% from expr import a, b as c %}.
type FromImport struct {
	Template Node
	Names    []ImportedName
	span     position.Span
}

// CustomTag is any {% tagname ... %} the parser does not recognize. Its
// argument expressions still contribute to variable extraction.
type CustomTag struct {
	Name string
	Args []Node
	span position.Span
}

// ---- expressions ----

// Name is a bare identifier reference.
type Name struct {
	Name string
	span position.Span
}

// GetAttr is attribute access, target.attr.
type GetAttr struct {
	Target   Node
	Attr     string
	AttrSpan position.Span
	span     position.Span
}

// GetItem is subscript access, target[index].
type GetItem struct {
	Target Node
	Index  Node
	span   position.Span
}

// Kwarg is a keyword argument in a call or filter.
type Kwarg struct {
	Name  string
	Value Node
}

// Call is a function or macro invocation.
type Call struct {
	Target Node
	Args   []Node
	Kwargs []Kwarg
	span   position.Span
}

// Filter is a pipe application, target | name(args).
type Filter struct {
	Target   Node
	Name     string
	NameSpan position.Span
	Args     []Node
	Kwargs   []Kwarg
	span     position.Span
}

// Test is a test application, target is [not] name(args).
type Test struct {
	Target   Node
	Name     string
	NameSpan position.Span
	Negated  bool
	Args     []Node
	span     position.Span
}

// Binary is an infix operation.
type Binary struct {
	Op    string
	Left  Node
	Right Node
	span  position.Span
}

// Unary is a prefix operation (not, -, +).
type Unary struct {
	Op   string
	Expr Node
	span position.Span
}

// Group is a parenthesized expression.
type Group struct {
	Expr Node
	span position.Span
}

// ListLiteral is [a, b, c].
type ListLiteral struct {
	Items []Node
	span  position.Span
}

// TupleLiteral is a, b or (a, b).
type TupleLiteral struct {
	Items []Node
	span  position.Span
}

// DictItem is one key/value pair of a dict literal.
type DictItem struct {
	Key   Node
	Value Node
}

// DictLiteral is {k: v, ...}.
type DictLiteral struct {
	Items []DictItem
	span  position.Span
}

// LiteralKind distinguishes literal value categories.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBool
	LiteralNone
)

// Literal is a constant value. For strings, Value holds the unquoted text
// and Raw the original lexeme.
type Literal struct {
	Kind  LiteralKind
	Value string
	Raw   string
	span  position.Span
}

func (n *Output) Span() position.Span       { return n.span }
func (n *If) Span() position.Span           { return n.span }
func (n *For) Span() position.Span          { return n.span }
func (n *Set) Span() position.Span          { return n.span }
func (n *SetBlock) Span() position.Span     { return n.span }
func (n *Block) Span() position.Span        { return n.span }
func (n *Macro) Span() position.Span        { return n.span }
func (n *CallBlock) Span() position.Span    { return n.span }
func (n *Extends) Span() position.Span      { return n.span }
func (n *Include) Span() position.Span      { return n.span }
func (n *Import) Span() position.Span       { return n.span }
func (n *FromImport) Span() position.Span   { return n.span }
func (n *CustomTag) Span() position.Span    { return n.span }
func (n *Name) Span() position.Span         { return n.span }
func (n *GetAttr) Span() position.Span      { return n.span }
func (n *GetItem) Span() position.Span      { return n.span }
func (n *Call) Span() position.Span         { return n.span }
func (n *Filter) Span() position.Span       { return n.span }
func (n *Test) Span() position.Span         { return n.span }
func (n *Binary) Span() position.Span       { return n.span }
func (n *Unary) Span() position.Span        { return n.span }
func (n *Group) Span() position.Span        { return n.span }
func (n *ListLiteral) Span() position.Span  { return n.span }
func (n *TupleLiteral) Span() position.Span { return n.span }
func (n *DictLiteral) Span() position.Span  { return n.span }
func (n *Literal) Span() position.Span      { return n.span }

func (*Output) node()       {}
func (*If) node()           {}
func (*For) node()          {}
func (*Set) node()          {}
func (*SetBlock) node()     {}
func (*Block) node()        {}
func (*Macro) node()        {}
func (*CallBlock) node()    {}
func (*Extends) node()      {}
func (*Include) node()      {}
func (*Import) node()       {}
func (*FromImport) node()   {}
func (*CustomTag) node()    {}
func (*Name) node()         {}
func (*GetAttr) node()      {}
func (*GetItem) node()      {}
func (*Call) node()         {}
func (*Filter) node()       {}
func (*Test) node()         {}
func (*Binary) node()       {}
func (*Unary) node()        {}
func (*Group) node()        {}
func (*ListLiteral) node()  {}
func (*TupleLiteral) node() {}
func (*DictLiteral) node()  {}
func (*Literal) node()      {}

// TemplateString returns the literal template path of a reference expression
// (the argument of extends/include/import). The second result is false when
// the expression is dynamic and cannot be resolved statically.
func TemplateString(n Node) (string, bool) {
	lit, ok := n.(*Literal)
	if !ok || lit.Kind != LiteralString {
		return "", false
	}
	return lit.Value, true
}
