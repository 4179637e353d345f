package jinja

import (
	"strings"

	"github.com/walteh/jinjals/pkg/position"
)

// Lexer state machine:
//
//	Root  — plain text until a "{{", "{%" or "{#" delimiter
//	Expr  — inside "{{ }}" or "{% %}", emitting identifiers, literals,
//	        operators, punctuation and whitespace runs
//
// Whitespace inside delimiters is emitted as real tokens rather than elided:
// the cursor context resolver needs to land on a whitespace token when the
// cursor sits in blank space.

type lexer struct {
	text   string
	pos    int
	line   int
	col    int
	tokens []Token
}

// Lex splits text into tokens. It never fails; unterminated delimiters
// simply run to the end of the input. The final token is always EOF.
func Lex(text string) []Token {
	lx := &lexer{text: text, line: 1, col: 1}
	lx.run()
	return lx.tokens
}

func (lx *lexer) run() {
	for lx.pos < len(lx.text) {
		switch {
		case lx.hasPrefix("{#"):
			lx.lexComment()
		case lx.hasPrefix("{{"):
			lx.lexDelim(TokenVarStart, "{{")
			lx.lexExpr(TokenVarEnd, "}}")
		case lx.hasPrefix("{%"):
			lx.lexDelim(TokenBlockStart, "{%")
			lx.lexExpr(TokenBlockEnd, "%}")
		default:
			lx.lexText()
		}
	}
	here := position.Pos{Line: lx.line, Column: lx.col, Offset: lx.pos}
	lx.tokens = append(lx.tokens, Token{Kind: TokenEOF, Span: position.Span{Start: here, End: here}})
}

func (lx *lexer) lexText() {
	start := lx.mark()
	for lx.pos < len(lx.text) {
		if lx.hasPrefix("{{") || lx.hasPrefix("{%") || lx.hasPrefix("{#") {
			break
		}
		lx.advance()
	}
	lx.emitFrom(TokenText, start)
}

func (lx *lexer) lexComment() {
	start := lx.mark()
	lx.advanceN(2) // {#
	for lx.pos < len(lx.text) && !lx.hasPrefix("#}") {
		lx.advance()
	}
	if lx.hasPrefix("#}") {
		lx.advanceN(2)
	}
	lx.emitFrom(TokenComment, start)
}

func (lx *lexer) lexDelim(kind TokenKind, delim string) {
	start := lx.mark()
	lx.advanceN(len(delim))
	// whitespace trim marker belongs to the delimiter token
	if lx.pos < len(lx.text) && lx.text[lx.pos] == '-' {
		lx.advance()
	}
	lx.emitFrom(kind, start)
}

func (lx *lexer) lexExpr(closeKind TokenKind, closeDelim string) {
	for lx.pos < len(lx.text) {
		c := lx.text[lx.pos]

		if lx.hasPrefix(closeDelim) || (c == '-' && lx.hasPrefixAt(1, closeDelim)) {
			start := lx.mark()
			if c == '-' {
				lx.advance()
			}
			lx.advanceN(len(closeDelim))
			lx.emitFrom(closeKind, start)
			return
		}

		switch {
		case isSpace(c):
			start := lx.mark()
			for lx.pos < len(lx.text) && isSpace(lx.text[lx.pos]) {
				lx.advance()
			}
			lx.emitFrom(TokenWhitespace, start)
		case isIdentStart(c):
			start := lx.mark()
			for lx.pos < len(lx.text) && isIdentPart(lx.text[lx.pos]) {
				lx.advance()
			}
			lx.emitFrom(TokenIdent, start)
		case c >= '0' && c <= '9':
			lx.lexNumber()
		case c == '\'' || c == '"':
			lx.lexString(c)
		case strings.IndexByte("()[]{},:", c) >= 0:
			start := lx.mark()
			lx.advance()
			lx.emitFrom(TokenPunct, start)
		default:
			lx.lexOperator()
		}
	}
}

func (lx *lexer) lexNumber() {
	start := lx.mark()
	for lx.pos < len(lx.text) && lx.text[lx.pos] >= '0' && lx.text[lx.pos] <= '9' {
		lx.advance()
	}
	if lx.pos+1 < len(lx.text) && lx.text[lx.pos] == '.' &&
		lx.text[lx.pos+1] >= '0' && lx.text[lx.pos+1] <= '9' {
		lx.advance()
		for lx.pos < len(lx.text) && lx.text[lx.pos] >= '0' && lx.text[lx.pos] <= '9' {
			lx.advance()
		}
	}
	lx.emitFrom(TokenNumber, start)
}

func (lx *lexer) lexString(quote byte) {
	start := lx.mark()
	lx.advance() // opening quote
	for lx.pos < len(lx.text) {
		c := lx.text[lx.pos]
		if c == '\\' && lx.pos+1 < len(lx.text) {
			lx.advanceN(2)
			continue
		}
		lx.advance()
		if c == quote {
			break
		}
	}
	lx.emitFrom(TokenString, start)
}

var multiCharOperators = []string{"==", "!=", "<=", ">=", "//", "**"}

func (lx *lexer) lexOperator() {
	start := lx.mark()
	for _, op := range multiCharOperators {
		if lx.hasPrefix(op) {
			lx.advanceN(len(op))
			lx.emitFrom(TokenOperator, start)
			return
		}
	}
	lx.advance()
	lx.emitFrom(TokenOperator, start)
}

func (lx *lexer) mark() position.Pos {
	return position.Pos{Line: lx.line, Column: lx.col, Offset: lx.pos}
}

func (lx *lexer) emitFrom(kind TokenKind, start position.Pos) {
	end := lx.mark()
	if start.Offset == end.Offset {
		return
	}
	lx.tokens = append(lx.tokens, Token{
		Kind:   kind,
		Lexeme: lx.text[start.Offset:end.Offset],
		Span:   position.Span{Start: start, End: end},
	})
}

func (lx *lexer) advance() {
	if lx.text[lx.pos] == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	lx.pos++
}

func (lx *lexer) advanceN(n int) {
	for i := 0; i < n && lx.pos < len(lx.text); i++ {
		lx.advance()
	}
}

func (lx *lexer) hasPrefix(s string) bool {
	return lx.hasPrefixAt(0, s)
}

func (lx *lexer) hasPrefixAt(skip int, s string) bool {
	return strings.HasPrefix(lx.text[min(lx.pos+skip, len(lx.text)):], s)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
