// Package cursor classifies what kind of syntactic position a byte offset
// sits in, by walking the token stream around the cursor. It needs no
// semantic pass and is total over its inputs: malformed token streams and
// out-of-range offsets classify as KindNone.
package cursor

import (
	"strings"

	"github.com/walteh/jinjals/pkg/jinja"
)

// Kind is the classified syntactic role of a cursor position.
type Kind int

const (
	KindNone Kind = iota
	KindFilter
	KindTest
	KindProperty
	KindVariable
	KindTag
	KindEndTag
	KindBlockName
	KindMacroName
)

func (k Kind) String() string {
	switch k {
	case KindFilter:
		return "Filter"
	case KindTest:
		return "Test"
	case KindProperty:
		return "Property"
	case KindVariable:
		return "Variable"
	case KindTag:
		return "Tag"
	case KindEndTag:
		return "EndTag"
	case KindBlockName:
		return "BlockName"
	case KindMacroName:
		return "MacroName"
	default:
		return "None"
	}
}

// Context describes what completion, hover, definition, or rename should
// resolve against at a cursor position.
type Context struct {
	Kind Kind
	// Name is the owning symbol where one applies: the variable left of the
	// dot for KindProperty.
	Name string
	// Prefix is the partially typed word at the cursor, up to the cursor
	// offset. For KindEndTag it is the suffix after "end".
	Prefix string
}

// Resolve classifies the cursor position at offset within tokens.
func Resolve(tokens []jinja.Token, offset int) Context {
	active := activeTokenIndex(tokens, offset)
	if active < 0 {
		return Context{Kind: KindNone}
	}

	prefix := ""
	predFrom := active - 1
	tok := tokens[active]
	switch tok.Kind {
	case jinja.TokenIdent:
		// partial-typing case: only the part left of the cursor counts
		if offset > tok.Span.Start.Offset && offset <= tok.Span.End.Offset {
			prefix = tok.Lexeme[:offset-tok.Span.Start.Offset]
		}
	case jinja.TokenWhitespace:
		// cursor in blank space: classify from the tokens before it
	default:
		// cursor rides directly on an operator or delimiter; that token is
		// its own most significant predecessor
		predFrom = active
	}

	pred, ok := significantBefore(tokens, predFrom)
	if !ok {
		return Context{Kind: KindNone}
	}

	if ctx, ok := classifyByPredecessor(tokens, pred, prefix); ok {
		return ctx
	}
	return classifyByEnclosure(tokens, pred, prefix)
}

// activeTokenIndex finds the last token whose start is at or before the
// offset. EOF is a sentinel and never selected.
func activeTokenIndex(tokens []jinja.Token, offset int) int {
	if offset < 0 {
		return -1
	}
	active := -1
	for i, tok := range tokens {
		if tok.Kind == jinja.TokenEOF {
			break
		}
		if tok.Span.Start.Offset <= offset {
			active = i
		} else {
			break
		}
	}
	return active
}

// significantBefore walks backward from index i (inclusive) to the nearest
// non-whitespace token.
func significantBefore(tokens []jinja.Token, i int) (int, bool) {
	for ; i >= 0; i-- {
		if tokens[i].Kind != jinja.TokenWhitespace {
			return i, true
		}
	}
	return -1, false
}

func classifyByPredecessor(tokens []jinja.Token, pred int, prefix string) (Context, bool) {
	tok := tokens[pred]
	switch {
	case tok.Is(jinja.TokenOperator, "|"):
		return Context{Kind: KindFilter, Prefix: prefix}, true
	case tok.Is(jinja.TokenIdent, "is"):
		return Context{Kind: KindTest, Prefix: prefix}, true
	case tok.Is(jinja.TokenOperator, "."):
		// the owning variable is the identifier one step past the dot
		owner, ok := significantBefore(tokens, pred-1)
		if !ok || tokens[owner].Kind != jinja.TokenIdent {
			return Context{Kind: KindNone}, true
		}
		return Context{Kind: KindProperty, Name: tokens[owner].Lexeme, Prefix: prefix}, true
	case tok.Kind == jinja.TokenBlockStart:
		if rest, ok := strings.CutPrefix(prefix, "end"); ok {
			return Context{Kind: KindEndTag, Prefix: rest}, true
		}
		return Context{Kind: KindTag, Prefix: prefix}, true
	case tok.Kind == jinja.TokenVarStart:
		return Context{Kind: KindVariable, Prefix: prefix}, true
	case tok.Is(jinja.TokenIdent, "block"):
		if bs, ok := significantBefore(tokens, pred-1); ok && tokens[bs].Kind == jinja.TokenBlockStart {
			return Context{Kind: KindBlockName, Prefix: prefix}, true
		}
	case tok.Is(jinja.TokenIdent, "call"):
		if bs, ok := significantBefore(tokens, pred-1); ok && tokens[bs].Kind == jinja.TokenBlockStart {
			return Context{Kind: KindMacroName, Prefix: prefix}, true
		}
	}
	return Context{}, false
}

// classifyByEnclosure walks backward tracking delimiters to decide whether
// the cursor is nested inside a {% %} or {{ }} region at all, and if inside
// a block tag, which keyword leads it.
func classifyByEnclosure(tokens []jinja.Token, from int, prefix string) Context {
	for i := from; i >= 0; i-- {
		switch tokens[i].Kind {
		case jinja.TokenBlockEnd, jinja.TokenVarEnd, jinja.TokenText, jinja.TokenComment:
			// a closed region or raw text before the cursor: not nested
			return Context{Kind: KindNone}
		case jinja.TokenVarStart:
			return Context{Kind: KindVariable, Prefix: prefix}
		case jinja.TokenBlockStart:
			return classifyInsideTag(tokens, i, prefix)
		}
	}
	return Context{Kind: KindNone}
}

func classifyInsideTag(tokens []jinja.Token, blockStart int, prefix string) Context {
	keyword := ""
	for i := blockStart + 1; i < len(tokens); i++ {
		if tokens[i].Kind == jinja.TokenWhitespace {
			continue
		}
		if tokens[i].Kind == jinja.TokenIdent {
			keyword = tokens[i].Lexeme
		}
		break
	}
	switch keyword {
	case "block":
		return Context{Kind: KindBlockName, Prefix: prefix}
	case "call":
		return Context{Kind: KindMacroName, Prefix: prefix}
	case "extends", "include", "import", "from":
		// template path position, a string literal rather than a symbol
		return Context{Kind: KindNone}
	case "":
		return Context{Kind: KindTag, Prefix: prefix}
	default:
		// expression-bearing tags: if, for, set, elif, call arguments, ...
		return Context{Kind: KindVariable, Prefix: prefix}
	}
}
