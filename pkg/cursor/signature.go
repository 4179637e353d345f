package cursor

import "github.com/walteh/jinjals/pkg/jinja"

// Signature describes a call-argument position for signature help.
type Signature struct {
	// Callee is the identifier immediately preceding the open paren.
	Callee string
	// ActiveArg is the zero-based index of the argument the cursor is in.
	ActiveArg int
}

// SignatureContext finds the innermost unmatched open paren before the
// cursor and counts commas at that nesting level to produce the active
// argument index. It reports false when the cursor is not inside a call.
func SignatureContext(tokens []jinja.Token, offset int) (Signature, bool) {
	active := activeTokenIndex(tokens, offset)
	if active < 0 {
		return Signature{}, false
	}

	depth := 0
	commas := 0
	for i := active; i >= 0; i-- {
		tok := tokens[i]
		// the active token itself only counts when the cursor is past it
		if i == active && tok.Span.Start.Offset >= offset {
			continue
		}
		switch {
		case tok.Kind == jinja.TokenBlockEnd, tok.Kind == jinja.TokenVarEnd,
			tok.Kind == jinja.TokenText, tok.Kind == jinja.TokenComment:
			return Signature{}, false
		case tok.Is(jinja.TokenPunct, ")"):
			depth++
		case tok.Is(jinja.TokenPunct, "(") && depth > 0:
			depth--
		case tok.Is(jinja.TokenPunct, "(") && depth == 0:
			callee, ok := significantBefore(tokens, i-1)
			if !ok || tokens[callee].Kind != jinja.TokenIdent {
				return Signature{}, false
			}
			return Signature{Callee: tokens[callee].Lexeme, ActiveArg: commas}, true
		case tok.Is(jinja.TokenPunct, ",") && depth == 0:
			commas++
		}
	}
	return Signature{}, false
}

// WordAt returns the full identifier under the cursor, if any. Unlike the
// Prefix of a resolved Context, this is the whole lexeme; definition and
// rename operate on complete words rather than typed prefixes.
func WordAt(tokens []jinja.Token, offset int) (jinja.Token, bool) {
	for _, tok := range tokens {
		if tok.Kind == jinja.TokenEOF {
			break
		}
		if tok.Kind == jinja.TokenIdent && tok.Span.Contains(offset) {
			return tok, true
		}
	}
	return jinja.Token{}, false
}
