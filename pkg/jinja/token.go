package jinja

import (
	"fmt"

	"github.com/walteh/jinjals/pkg/position"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenComment
	TokenVarStart   // {{
	TokenVarEnd     // }}
	TokenBlockStart // {%
	TokenBlockEnd   // %}
	TokenIdent
	TokenNumber
	TokenString
	TokenOperator
	TokenPunct
	TokenWhitespace
	TokenEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "Text"
	case TokenComment:
		return "Comment"
	case TokenVarStart:
		return "VarStart"
	case TokenVarEnd:
		return "VarEnd"
	case TokenBlockStart:
		return "BlockStart"
	case TokenBlockEnd:
		return "BlockEnd"
	case TokenIdent:
		return "Ident"
	case TokenNumber:
		return "Number"
	case TokenString:
		return "String"
	case TokenOperator:
		return "Operator"
	case TokenPunct:
		return "Punct"
	case TokenWhitespace:
		return "Whitespace"
	case TokenEOF:
		return "EOF"
	default:
		return "Unknown"
	}
}

// Token is a single lexical token with its source span.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Span   position.Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Lexeme, t.Span.Start.Offset)
}

// Is reports whether the token has the given kind and lexeme.
func (t Token) Is(kind TokenKind, lexeme string) bool {
	return t.Kind == kind && t.Lexeme == lexeme
}

// StringValue returns the unquoted value of a String token. For any other
// kind it returns the raw lexeme.
func (t Token) StringValue() string {
	if t.Kind != TokenString || len(t.Lexeme) < 2 {
		return t.Lexeme
	}
	return t.Lexeme[1 : len(t.Lexeme)-1]
}
