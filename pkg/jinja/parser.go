package jinja

import (
	"fmt"

	"github.com/walteh/jinjals/pkg/position"
	"gitlab.com/tozd/go/errors"
)

// Diagnostic is a parse problem with its source span. The parser is
// best-effort: it records diagnostics and keeps going so that editors can
// still query a document while the user is mid-edit.
type Diagnostic struct {
	Message string
	Span    position.Span
}

// Parse lexes and parses text into a Template. Diagnostics report recovered
// syntax problems; the returned template contains everything that could be
// extracted. The error is non-nil only when parsing aborted before producing
// any usable tree.
func Parse(text string) (tpl *Template, diags []Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			tpl = nil
			err = errors.Errorf("parsing template: %v", r)
		}
	}()

	p := &parser{tokens: Lex(text)}
	body := p.parseBody(nil)
	return &Template{Body: body}, p.diags, nil
}

type parser struct {
	tokens []Token
	pos    int
	diags  []Diagnostic
}

// ---- token navigation ----

func (p *parser) at(i int) Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF sentinel
	}
	return p.tokens[i]
}

// cur returns the current significant token, skipping whitespace.
func (p *parser) cur() Token {
	p.skipSpace()
	return p.at(p.pos)
}

func (p *parser) skipSpace() {
	for p.at(p.pos).Kind == TokenWhitespace {
		p.pos++
	}
}

func (p *parser) advance() Token {
	tok := p.cur()
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) prevEnd() position.Pos {
	for i := p.pos - 1; i >= 0; i-- {
		if p.tokens[i].Kind != TokenWhitespace {
			return p.tokens[i].Span.End
		}
	}
	return position.Pos{Line: 1, Column: 1}
}

func (p *parser) errorf(span position.Span, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{Message: fmt.Sprintf(format, args...), Span: span})
}

// expect consumes a token of the given kind/lexeme, recording a diagnostic
// when the stream has something else.
func (p *parser) expect(kind TokenKind, lexeme string) (Token, bool) {
	tok := p.cur()
	if tok.Kind != kind || (lexeme != "" && tok.Lexeme != lexeme) {
		p.errorf(tok.Span, "expected %q, found %q", lexeme, tok.Lexeme)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) expectIdent() (Token, bool) {
	tok := p.cur()
	if tok.Kind != TokenIdent {
		p.errorf(tok.Span, "expected identifier, found %q", tok.Lexeme)
		return tok, false
	}
	return p.advance(), true
}

// skipTag consumes everything up to and including the next BlockEnd.
func (p *parser) skipTag() {
	for {
		tok := p.advance()
		if tok.Kind == TokenBlockEnd || tok.Kind == TokenEOF {
			return
		}
	}
}

// peekTagKeyword returns the keyword identifier of the block tag starting at
// the current BlockStart token, without consuming anything.
func (p *parser) peekTagKeyword() string {
	i := p.pos + 1
	for p.at(i).Kind == TokenWhitespace {
		i++
	}
	if p.at(i).Kind == TokenIdent {
		return p.at(i).Lexeme
	}
	return ""
}

// ---- statements ----

// parseBody parses statements until EOF or until a block tag whose keyword
// satisfies stop. The stopping tag is left unconsumed for the caller.
func (p *parser) parseBody(stop func(keyword string) bool) []Node {
	var body []Node
	for {
		tok := p.at(p.pos)
		switch tok.Kind {
		case TokenEOF:
			return body
		case TokenText, TokenComment, TokenWhitespace:
			p.pos++
		case TokenVarStart:
			if stmt := p.parseOutput(); stmt != nil {
				body = append(body, stmt)
			}
		case TokenBlockStart:
			keyword := p.peekTagKeyword()
			if stop != nil && stop(keyword) {
				return body
			}
			if stmt := p.parseTag(keyword); stmt != nil {
				body = append(body, stmt)
			}
		default:
			// stray token outside any delimiter, e.g. an unbalanced close
			p.errorf(tok.Span, "unexpected %q", tok.Lexeme)
			p.pos++
		}
	}
}

func (p *parser) parseOutput() Node {
	start := p.advance() // VarStart
	if p.cur().Kind == TokenVarEnd {
		end := p.advance()
		p.errorf(end.Span, "empty output expression")
		return nil
	}
	expr := p.parseExpression()
	end, ok := p.expect(TokenVarEnd, "}}")
	if !ok {
		p.skipToKind(TokenVarEnd)
	}
	return &Output{Expr: expr, span: position.Span{Start: start.Span.Start, End: end.Span.End}}
}

func (p *parser) skipToKind(kind TokenKind) {
	for {
		tok := p.advance()
		if tok.Kind == kind || tok.Kind == TokenEOF {
			return
		}
	}
}

func (p *parser) parseTag(keyword string) Node {
	start := p.advance() // BlockStart
	switch keyword {
	case "if":
		return p.parseIf(start, "if")
	case "for":
		return p.parseFor(start)
	case "set":
		return p.parseSet(start)
	case "block":
		return p.parseBlock(start)
	case "macro":
		return p.parseMacro(start)
	case "call":
		return p.parseCall(start)
	case "extends", "include":
		return p.parseTemplateRef(start, keyword)
	case "import":
		return p.parseImport(start)
	case "from":
		return p.parseFromImport(start)
	case "":
		p.errorf(start.Span, "missing tag name")
		p.skipTag()
		return nil
	case "endif", "endfor", "endset", "endblock", "endmacro", "endcall", "else", "elif":
		p.errorf(start.Span, "unexpected %q tag", keyword)
		p.skipTag()
		return nil
	default:
		return p.parseCustomTag(start, keyword)
	}
}

// consumeEndTag eats a terminating tag like {% endfor %}.
func (p *parser) consumeEndTag() position.Pos {
	if p.at(p.pos).Kind != TokenBlockStart {
		return p.prevEnd()
	}
	p.advance() // BlockStart
	p.advance() // keyword (or whatever is there)
	// optional trailing name, e.g. {% endblock content %}
	for p.cur().Kind == TokenIdent {
		p.advance()
	}
	tok, ok := p.expect(TokenBlockEnd, "%}")
	if !ok {
		p.skipTag()
		return p.prevEnd()
	}
	return tok.Span.End
}

func (p *parser) parseIf(start Token, keyword string) Node {
	p.advance() // "if" / "elif"
	test := p.parseExpression()
	if _, ok := p.expect(TokenBlockEnd, "%}"); !ok {
		p.skipTag()
	}
	body := p.parseBody(func(kw string) bool {
		return kw == "elif" || kw == "else" || kw == "endif"
	})

	var elseBody []Node
	endPos := p.prevEnd()
	switch p.peekTagKeyword() {
	case "elif":
		bs := p.advance() // BlockStart of the elif, re-parsed as a nested if
		nested := p.parseIf(bs, "elif")
		elseBody = []Node{nested}
		endPos = nested.Span().End
	case "else":
		p.advance() // BlockStart
		p.advance() // "else"
		if _, ok := p.expect(TokenBlockEnd, "%}"); !ok {
			p.skipTag()
		}
		elseBody = p.parseBody(func(kw string) bool { return kw == "endif" })
		endPos = p.consumeEndTag()
	case "endif":
		endPos = p.consumeEndTag()
	default:
		p.errorf(p.cur().Span, "unterminated %q tag", keyword)
	}
	return &If{Test: test, Body: body, Else: elseBody, span: position.Span{Start: start.Span.Start, End: endPos}}
}

// parseTargets parses a comma separated identifier list, with optional
// parentheses around a destructuring tuple.
func (p *parser) parseTargets() []*Name {
	var targets []*Name
	parens := false
	if p.cur().Is(TokenPunct, "(") {
		parens = true
		p.advance()
	}
	for {
		tok, ok := p.expectIdent()
		if !ok {
			break
		}
		targets = append(targets, &Name{Name: tok.Lexeme, span: tok.Span})
		if !p.cur().Is(TokenPunct, ",") {
			break
		}
		p.advance()
	}
	if parens {
		p.expect(TokenPunct, ")")
	}
	return targets
}

func (p *parser) parseFor(start Token) Node {
	p.advance() // "for"
	targets := p.parseTargets()
	if _, ok := p.expect(TokenIdent, "in"); !ok {
		p.skipTag()
		return &For{Targets: targets, span: position.Span{Start: start.Span.Start, End: p.prevEnd()}}
	}
	iter := p.parseExpression()
	if _, ok := p.expect(TokenBlockEnd, "%}"); !ok {
		p.skipTag()
	}
	body := p.parseBody(func(kw string) bool { return kw == "else" || kw == "endfor" })

	var elseBody []Node
	if p.peekTagKeyword() == "else" {
		p.advance() // BlockStart
		p.advance() // "else"
		if _, ok := p.expect(TokenBlockEnd, "%}"); !ok {
			p.skipTag()
		}
		elseBody = p.parseBody(func(kw string) bool { return kw == "endfor" })
	}
	endPos := p.consumeEndTag()
	return &For{Targets: targets, Iter: iter, Body: body, Else: elseBody,
		span: position.Span{Start: start.Span.Start, End: endPos}}
}

func (p *parser) parseSet(start Token) Node {
	p.advance() // "set"
	targets := p.parseTargets()
	if p.cur().Is(TokenOperator, "=") {
		p.advance()
		value := p.parseExpression()
		end, ok := p.expect(TokenBlockEnd, "%}")
		if !ok {
			p.skipTag()
		}
		return &Set{Targets: targets, Value: value,
			span: position.Span{Start: start.Span.Start, End: end.Span.End}}
	}

	// block form: {% set x %}...{% endset %}
	if _, ok := p.expect(TokenBlockEnd, "%}"); !ok {
		p.skipTag()
	}
	body := p.parseBody(func(kw string) bool { return kw == "endset" })
	endPos := p.consumeEndTag()
	var target *Name
	if len(targets) > 0 {
		target = targets[0]
	}
	return &SetBlock{Target: target, Body: body,
		span: position.Span{Start: start.Span.Start, End: endPos}}
}

func (p *parser) parseBlock(start Token) Node {
	p.advance() // "block"
	nameTok, ok := p.expectIdent()
	if !ok {
		p.skipTag()
		return nil
	}
	if _, ok := p.expect(TokenBlockEnd, "%}"); !ok {
		p.skipTag()
	}
	body := p.parseBody(func(kw string) bool { return kw == "endblock" })
	endPos := p.consumeEndTag()
	return &Block{Name: nameTok.Lexeme, NameSpan: nameTok.Span, Body: body,
		span: position.Span{Start: start.Span.Start, End: endPos}}
}

func (p *parser) parseMacro(start Token) Node {
	p.advance() // "macro"
	nameTok, ok := p.expectIdent()
	if !ok {
		p.skipTag()
		return nil
	}
	var params []MacroParam
	if p.cur().Is(TokenPunct, "(") {
		p.advance()
		for !p.cur().Is(TokenPunct, ")") && p.cur().Kind != TokenEOF && p.cur().Kind != TokenBlockEnd {
			paramTok, ok := p.expectIdent()
			if !ok {
				break
			}
			param := MacroParam{Name: paramTok.Lexeme, Span: paramTok.Span}
			if p.cur().Is(TokenOperator, "=") {
				p.advance()
				param.Default = p.parseExpression()
			}
			params = append(params, param)
			if p.cur().Is(TokenPunct, ",") {
				p.advance()
			}
		}
		p.expect(TokenPunct, ")")
	}
	if _, ok := p.expect(TokenBlockEnd, "%}"); !ok {
		p.skipTag()
	}
	body := p.parseBody(func(kw string) bool { return kw == "endmacro" })
	endPos := p.consumeEndTag()
	return &Macro{Name: nameTok.Lexeme, NameSpan: nameTok.Span, Params: params, Body: body,
		span: position.Span{Start: start.Span.Start, End: endPos}}
}

func (p *parser) parseCall(start Token) Node {
	p.advance() // "call"
	expr := p.parseExpression()
	call, ok := expr.(*Call)
	if !ok {
		// tolerate a bare macro name: {% call greeter %}
		call = &Call{Target: expr, span: expr.Span()}
	}
	if _, ok := p.expect(TokenBlockEnd, "%}"); !ok {
		p.skipTag()
	}
	body := p.parseBody(func(kw string) bool { return kw == "endcall" })
	endPos := p.consumeEndTag()
	return &CallBlock{Call: call, Body: body,
		span: position.Span{Start: start.Span.Start, End: endPos}}
}

func (p *parser) parseTemplateRef(start Token, keyword string) Node {
	p.advance() // keyword
	ref := p.parseExpression()
	// include modifiers: {% include "x" ignore missing with context %}
	for p.cur().Kind == TokenIdent {
		p.advance()
	}
	end, ok := p.expect(TokenBlockEnd, "%}")
	if !ok {
		p.skipTag()
	}
	span := position.Span{Start: start.Span.Start, End: end.Span.End}
	if keyword == "extends" {
		return &Extends{Template: ref, span: span}
	}
	return &Include{Template: ref, span: span}
}

func (p *parser) parseImport(start Token) Node {
	p.advance() // "import"
	ref := p.parseExpression()
	alias := ""
	if p.cur().Is(TokenIdent, "as") {
		p.advance()
		if tok, ok := p.expectIdent(); ok {
			alias = tok.Lexeme
		}
	}
	end, ok := p.expect(TokenBlockEnd, "%}")
	if !ok {
		p.skipTag()
	}
	return &Import{Template: ref, Alias: alias,
		span: position.Span{Start: start.Span.Start, End: end.Span.End}}
}

func (p *parser) parseFromImport(start Token) Node {
	p.advance() // "from"
	ref := p.parseExpression()
	if _, ok := p.expect(TokenIdent, "import"); !ok {
		p.skipTag()
		return &FromImport{Template: ref, span: position.Span{Start: start.Span.Start, End: p.prevEnd()}}
	}
	var names []ImportedName
	for {
		tok, ok := p.expectIdent()
		if !ok {
			break
		}
		imported := ImportedName{Name: tok.Lexeme, Span: tok.Span}
		if p.cur().Is(TokenIdent, "as") {
			p.advance()
			if aliasTok, ok := p.expectIdent(); ok {
				imported.Alias = aliasTok.Lexeme
				imported.Span = position.Span{Start: tok.Span.Start, End: aliasTok.Span.End}
			}
		}
		names = append(names, imported)
		if !p.cur().Is(TokenPunct, ",") {
			break
		}
		p.advance()
	}
	end, ok := p.expect(TokenBlockEnd, "%}")
	if !ok {
		p.skipTag()
	}
	return &FromImport{Template: ref, Names: names,
		span: position.Span{Start: start.Span.Start, End: end.Span.End}}
}

func (p *parser) parseCustomTag(start Token, keyword string) Node {
	p.advance() // keyword
	var args []Node
	for p.cur().Kind != TokenBlockEnd && p.cur().Kind != TokenEOF {
		before := p.pos
		args = append(args, p.parseExpression())
		if p.pos == before {
			p.advance() // ensure progress on junk
		}
		if p.cur().Is(TokenPunct, ",") {
			p.advance()
		}
	}
	end, ok := p.expect(TokenBlockEnd, "%}")
	if !ok {
		p.skipTag()
	}
	return &CustomTag{Name: keyword, Args: args,
		span: position.Span{Start: start.Span.Start, End: end.Span.End}}
}

// ---- expressions ----

func (p *parser) parseExpression() Node {
	return p.parseOr()
}

func (p *parser) parseOr() Node {
	left := p.parseAnd()
	for p.cur().Is(TokenIdent, "or") {
		p.advance()
		right := p.parseAnd()
		left = &Binary{Op: "or", Left: left, Right: right, span: joinSpans(left, right)}
	}
	return left
}

func (p *parser) parseAnd() Node {
	left := p.parseNot()
	for p.cur().Is(TokenIdent, "and") {
		p.advance()
		right := p.parseNot()
		left = &Binary{Op: "and", Left: left, Right: right, span: joinSpans(left, right)}
	}
	return left
}

func (p *parser) parseNot() Node {
	if tok := p.cur(); tok.Is(TokenIdent, "not") {
		p.advance()
		expr := p.parseNot()
		return &Unary{Op: "not", Expr: expr,
			span: position.Span{Start: tok.Span.Start, End: expr.Span().End}}
	}
	return p.parseComparison()
}

func isComparisonOp(tok Token) bool {
	if tok.Kind == TokenOperator {
		switch tok.Lexeme {
		case "==", "!=", "<", ">", "<=", ">=":
			return true
		}
	}
	return tok.Is(TokenIdent, "in")
}

func (p *parser) parseComparison() Node {
	left := p.parseConcat()
	for {
		tok := p.cur()
		switch {
		case isComparisonOp(tok):
			p.advance()
			right := p.parseConcat()
			left = &Binary{Op: tok.Lexeme, Left: left, Right: right, span: joinSpans(left, right)}
		case tok.Is(TokenIdent, "is"):
			left = p.parseTest(left)
		default:
			return left
		}
	}
}

func (p *parser) parseTest(target Node) Node {
	p.advance() // "is"
	negated := false
	if p.cur().Is(TokenIdent, "not") {
		p.advance()
		negated = true
	}
	nameTok, ok := p.expectIdent()
	if !ok {
		return target
	}
	test := &Test{Target: target, Name: nameTok.Lexeme, NameSpan: nameTok.Span, Negated: negated}
	end := nameTok.Span.End
	if p.cur().Is(TokenPunct, "(") {
		args, _, argEnd := p.parseArgs()
		test.Args = args
		end = argEnd
	} else if tok := p.cur(); tok.Kind == TokenNumber || tok.Kind == TokenString {
		// bare argument form: {% if n is divisibleby 3 %}
		arg := p.parsePrimary()
		test.Args = []Node{arg}
		end = arg.Span().End
	}
	test.span = position.Span{Start: target.Span().Start, End: end}
	return test
}

func (p *parser) parseConcat() Node {
	left := p.parseAdd()
	for p.cur().Is(TokenOperator, "~") {
		p.advance()
		right := p.parseAdd()
		left = &Binary{Op: "~", Left: left, Right: right, span: joinSpans(left, right)}
	}
	return left
}

func (p *parser) parseAdd() Node {
	left := p.parseMul()
	for {
		tok := p.cur()
		if !tok.Is(TokenOperator, "+") && !tok.Is(TokenOperator, "-") {
			return left
		}
		p.advance()
		right := p.parseMul()
		left = &Binary{Op: tok.Lexeme, Left: left, Right: right, span: joinSpans(left, right)}
	}
}

func (p *parser) parseMul() Node {
	left := p.parseUnary()
	for {
		tok := p.cur()
		if tok.Kind != TokenOperator {
			return left
		}
		switch tok.Lexeme {
		case "*", "/", "//", "%":
			p.advance()
			right := p.parseUnary()
			left = &Binary{Op: tok.Lexeme, Left: left, Right: right, span: joinSpans(left, right)}
		default:
			return left
		}
	}
}

func (p *parser) parseUnary() Node {
	tok := p.cur()
	if tok.Is(TokenOperator, "-") || tok.Is(TokenOperator, "+") {
		p.advance()
		expr := p.parseUnary()
		return &Unary{Op: tok.Lexeme, Expr: expr,
			span: position.Span{Start: tok.Span.Start, End: expr.Span().End}}
	}
	return p.parsePower()
}

func (p *parser) parsePower() Node {
	left := p.parsePostfix()
	if p.cur().Is(TokenOperator, "**") {
		p.advance()
		right := p.parseUnary()
		return &Binary{Op: "**", Left: left, Right: right, span: joinSpans(left, right)}
	}
	return left
}

func (p *parser) parsePostfix() Node {
	expr := p.parsePrimary()
	for {
		tok := p.cur()
		switch {
		case tok.Is(TokenOperator, "."):
			p.advance()
			attrTok, ok := p.expectIdent()
			if !ok {
				return expr
			}
			expr = &GetAttr{Target: expr, Attr: attrTok.Lexeme, AttrSpan: attrTok.Span,
				span: position.Span{Start: expr.Span().Start, End: attrTok.Span.End}}
		case tok.Is(TokenPunct, "["):
			p.advance()
			index := p.parseExpression()
			end, ok := p.expect(TokenPunct, "]")
			if !ok {
				return expr
			}
			expr = &GetItem{Target: expr, Index: index,
				span: position.Span{Start: expr.Span().Start, End: end.Span.End}}
		case tok.Is(TokenPunct, "("):
			args, kwargs, end := p.parseArgs()
			expr = &Call{Target: expr, Args: args, Kwargs: kwargs,
				span: position.Span{Start: expr.Span().Start, End: end}}
		case tok.Is(TokenOperator, "|"):
			p.advance()
			nameTok, ok := p.expectIdent()
			if !ok {
				return expr
			}
			filter := &Filter{Target: expr, Name: nameTok.Lexeme, NameSpan: nameTok.Span}
			end := nameTok.Span.End
			if p.cur().Is(TokenPunct, "(") {
				args, kwargs, argEnd := p.parseArgs()
				filter.Args = args
				filter.Kwargs = kwargs
				end = argEnd
			}
			filter.span = position.Span{Start: expr.Span().Start, End: end}
			expr = filter
		default:
			return expr
		}
	}
}

// parseArgs parses a parenthesized argument list, returning positional
// arguments, keyword arguments, and the end position of the closing paren.
func (p *parser) parseArgs() ([]Node, []Kwarg, position.Pos) {
	open := p.advance() // "("
	var args []Node
	var kwargs []Kwarg
	end := open.Span.End
	for {
		tok := p.cur()
		if tok.Is(TokenPunct, ")") {
			end = p.advance().Span.End
			return args, kwargs, end
		}
		if tok.Kind == TokenEOF || tok.Kind == TokenBlockEnd || tok.Kind == TokenVarEnd {
			p.errorf(tok.Span, "unterminated argument list")
			return args, kwargs, p.prevEnd()
		}

		// keyword argument: name=value
		if tok.Kind == TokenIdent && p.peekAfterIdentIsAssign() {
			p.advance()
			p.advance() // "="
			kwargs = append(kwargs, Kwarg{Name: tok.Lexeme, Value: p.parseExpression()})
		} else {
			before := p.pos
			args = append(args, p.parseExpression())
			if p.pos == before {
				p.advance()
			}
		}
		if p.cur().Is(TokenPunct, ",") {
			p.advance()
		}
	}
}

// peekAfterIdentIsAssign reports whether the token after the current
// identifier is a bare "=" (not "==").
func (p *parser) peekAfterIdentIsAssign() bool {
	i := p.pos
	for p.at(i).Kind == TokenWhitespace {
		i++
	}
	i++ // identifier itself
	for p.at(i).Kind == TokenWhitespace {
		i++
	}
	return p.at(i).Is(TokenOperator, "=")
}

func (p *parser) parsePrimary() Node {
	tok := p.cur()
	switch tok.Kind {
	case TokenIdent:
		switch tok.Lexeme {
		case "true", "True", "false", "False":
			p.advance()
			return &Literal{Kind: LiteralBool, Value: tok.Lexeme, Raw: tok.Lexeme, span: tok.Span}
		case "none", "None", "null":
			p.advance()
			return &Literal{Kind: LiteralNone, Value: tok.Lexeme, Raw: tok.Lexeme, span: tok.Span}
		}
		p.advance()
		return &Name{Name: tok.Lexeme, span: tok.Span}
	case TokenNumber:
		p.advance()
		return &Literal{Kind: LiteralNumber, Value: tok.Lexeme, Raw: tok.Lexeme, span: tok.Span}
	case TokenString:
		p.advance()
		return &Literal{Kind: LiteralString, Value: tok.StringValue(), Raw: tok.Lexeme, span: tok.Span}
	case TokenPunct:
		switch tok.Lexeme {
		case "(":
			return p.parseGroupOrTuple(tok)
		case "[":
			return p.parseList(tok)
		case "{":
			return p.parseDict(tok)
		}
	}
	p.errorf(tok.Span, "expected expression, found %q", tok.Lexeme)
	// zero-width placeholder keeps parent spans sane without panicking
	return &Literal{Kind: LiteralNone, Value: "", Raw: "",
		span: position.Span{Start: tok.Span.Start, End: tok.Span.Start}}
}

func (p *parser) parseGroupOrTuple(open Token) Node {
	p.advance() // "("
	var items []Node
	for !p.cur().Is(TokenPunct, ")") && p.cur().Kind != TokenEOF &&
		p.cur().Kind != TokenBlockEnd && p.cur().Kind != TokenVarEnd {
		before := p.pos
		items = append(items, p.parseExpression())
		if p.pos == before {
			p.advance()
		}
		if p.cur().Is(TokenPunct, ",") {
			p.advance()
		}
	}
	end, _ := p.expect(TokenPunct, ")")
	span := position.Span{Start: open.Span.Start, End: end.Span.End}
	if len(items) == 1 {
		return &Group{Expr: items[0], span: span}
	}
	return &TupleLiteral{Items: items, span: span}
}

func (p *parser) parseList(open Token) Node {
	p.advance() // "["
	var items []Node
	for !p.cur().Is(TokenPunct, "]") && p.cur().Kind != TokenEOF &&
		p.cur().Kind != TokenBlockEnd && p.cur().Kind != TokenVarEnd {
		before := p.pos
		items = append(items, p.parseExpression())
		if p.pos == before {
			p.advance()
		}
		if p.cur().Is(TokenPunct, ",") {
			p.advance()
		}
	}
	end, _ := p.expect(TokenPunct, "]")
	return &ListLiteral{Items: items, span: position.Span{Start: open.Span.Start, End: end.Span.End}}
}

func (p *parser) parseDict(open Token) Node {
	p.advance() // "{"
	var items []DictItem
	for !p.cur().Is(TokenPunct, "}") && p.cur().Kind != TokenEOF &&
		p.cur().Kind != TokenBlockEnd && p.cur().Kind != TokenVarEnd {
		key := p.parseExpression()
		if _, ok := p.expect(TokenPunct, ":"); !ok {
			break
		}
		value := p.parseExpression()
		items = append(items, DictItem{Key: key, Value: value})
		if p.cur().Is(TokenPunct, ",") {
			p.advance()
		}
	}
	end, _ := p.expect(TokenPunct, "}")
	return &DictLiteral{Items: items, span: position.Span{Start: open.Span.Start, End: end.Span.End}}
}

func joinSpans(left, right Node) position.Span {
	return position.Span{Start: left.Span().Start, End: right.Span().End}
}
