package parser

import (
	"strconv"
	"strings"

	"github.com/phensley/less-scanner/internal/engine/ast"
)

// valueMode controls how operators are read. Inside parentheses '/' divides;
// outside it separates shorthand values. In guards the comparison operators
// and the and/or keywords end an operand.
type valueMode struct {
	inParens bool
	inGuard  bool
}

// parseList parses a comma list of space lists. It returns nil when no value
// is present.
func (p *lessParser) parseList(allowComma bool, mode valueMode) (ast.Node, error) {
	first, err := p.parseSpaceList(mode)
	if err != nil {
		return nil, err
	}
	if !allowComma || p.peek().kind != tComma {
		return first, nil
	}

	list := &ast.ExpressionList{}
	if first != nil {
		list.Values = append(list.Values, first)
	}
	for p.peek().kind == tComma {
		p.next()
		item, err := p.parseSpaceList(mode)
		if err != nil {
			return nil, err
		}
		if item != nil {
			list.Values = append(list.Values, item)
		}
	}
	return list, nil
}

func (p *lessParser) atValueEnd(mode valueMode) bool {
	t := p.peek()
	switch t.kind {
	case tComma, tSemicolon, tRParen, tRBrace, tLBrace, tRBracket, tEOF:
		return true
	case tDelim:
		switch t.text {
		case "!":
			return true
		case ">", "<", "=":
			return mode.inGuard
		}
	case tIdent:
		if mode.inGuard {
			word := strings.ToLower(t.text)
			return word == "and" || word == "or"
		}
	}
	return false
}

func (p *lessParser) parseSpaceList(mode valueMode) (ast.Node, error) {
	var terms []ast.Node
	for !p.atValueEnd(mode) {
		term, err := p.parseAdditive(mode)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	switch len(terms) {
	case 0:
		return nil, nil
	case 1:
		return terms[0], nil
	}
	return &ast.Expression{Values: terms}, nil
}

// atNegation matches a '-' glued to the operand that follows it but
// separated from the previous term, as in `@a -@b`.
func (p *lessParser) atNegation() bool {
	t, n := p.peek(), p.peekAt(1)
	if !t.isDelim("-") || n.space {
		return false
	}
	switch n.kind {
	case tAtKeyword, tLParen, tFunction, tIndirect, tInterp:
		return true
	}
	return false
}

func (p *lessParser) parseAdditive(mode valueMode) (ast.Node, error) {
	left, err := p.parseMultiplicative(mode)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		var op ast.Operator
		switch {
		case t.isDelim("+"):
			op = ast.OpAdd
		case t.isDelim("-") && !(t.space && p.atNegation()):
			op = ast.OpSubtract
		default:
			return left, nil
		}
		p.next()
		right, err := p.parseMultiplicative(mode)
		if err != nil {
			return nil, err
		}
		left = &ast.Operation{Op: op, Left: left, Right: right}
	}
}

func (p *lessParser) parseMultiplicative(mode valueMode) (ast.Node, error) {
	left, err := p.parseUnary(mode)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.isDelim("*"):
			p.next()
			right, err := p.parseUnary(mode)
			if err != nil {
				return nil, err
			}
			left = &ast.Operation{Op: ast.OpMultiply, Left: left, Right: right}
		case t.isDelim("/"):
			p.next()
			right, err := p.parseUnary(mode)
			if err != nil {
				return nil, err
			}
			if mode.inParens || mode.inGuard {
				left = &ast.Operation{Op: ast.OpDivide, Left: left, Right: right}
			} else {
				left = &ast.Shorthand{Left: left, Right: right}
			}
		default:
			return left, nil
		}
	}
}

func (p *lessParser) parseUnary(mode valueMode) (ast.Node, error) {
	if p.atNegation() {
		p.next()
		value, err := p.parsePrimary(mode)
		if err != nil {
			return nil, err
		}
		return &ast.Negative{Value: value}, nil
	}
	return p.parsePrimary(mode)
}

func (p *lessParser) parsePrimary(mode valueMode) (ast.Node, error) {
	t := p.next()
	switch t.kind {
	case tNumber:
		return newDimension(t.text, ""), nil
	case tPercentage:
		return newDimension(strings.TrimSuffix(t.text, "%"), "%"), nil
	case tDimension:
		num, unit := splitNumber(t.text)
		return newDimension(num, unit), nil
	case tString:
		return newQuoted(t.text), nil
	case tURL:
		return &ast.URL{Value: urlBody(t.text)}, nil
	case tUnicodeRange:
		return &ast.UnicodeRange{Value: t.text}, nil
	case tAtKeyword:
		return &ast.Variable{Name: t.text[1:]}, nil
	case tIndirect:
		return &ast.Variable{Name: t.text, Indirect: true}, nil
	case tInterp:
		return &ast.Variable{Name: t.text, Interpolated: true}, nil
	case tHash:
		if c, ok := ast.ParseHexColor(t.text); ok {
			return c, nil
		}
		return &ast.Keyword{Value: t.text}, nil
	case tIdent:
		return p.identValue(t, mode)
	case tFunction:
		return p.parseFunction(t)
	case tLParen:
		if err := p.push(); err != nil {
			return nil, err
		}
		defer p.pop()
		value, err := p.parseList(true, valueMode{inParens: true})
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tRParen, "expected ')'"); err != nil {
			return nil, err
		}
		return &ast.Paren{Value: value}, nil
	case tDelim:
		return p.delimValue(t)
	}
	return nil, p.unexpected(t, "in value")
}

func (p *lessParser) delimValue(t token) (ast.Node, error) {
	switch t.text {
	case "~":
		if n := p.peek(); n.kind == tString {
			p.next()
			q := newQuoted(n.text)
			q.Escaped = true
			return q, nil
		} else if n.isDelim("`") && !n.space {
			p.next()
			return p.delimValue(n)
		}
	case "%":
		if n := p.peek(); n.kind == tLParen && !n.space {
			p.next()
			return p.parseCallArgs("%")
		}
	case "`":
		// Inline javascript is kept as an opaque quoted value.
		start := t.offset + 1
		for {
			n := p.next()
			if n.kind == tEOF {
				return nil, p.errorf(t, "unterminated javascript expression")
			}
			if n.isDelim("`") {
				return &ast.Quoted{Value: string(p.src[start:n.offset]), Delim: '`', Escaped: true}, nil
			}
		}
	case "&", "*", ".", "#", "?", "|", "^", "$":
		return &ast.Keyword{Value: t.text}, nil
	}
	return nil, p.unexpected(t, "in value")
}

func (p *lessParser) identValue(t token, mode valueMode) (ast.Node, error) {
	if strings.EqualFold(t.text, "progid") && p.peek().kind == tColon && !p.peek().space {
		return &ast.Keyword{Value: p.rawUntilValueEnd(t)}, nil
	}
	if n := p.peek(); n.isDelim("=") && !n.space && !mode.inGuard {
		p.next()
		value, err := p.parsePrimary(mode)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Name: t.text, Value: value}, nil
	}
	switch t.text {
	case "true":
		return &ast.Bool{Value: true}, nil
	case "false":
		return &ast.Bool{Value: false}, nil
	}
	if ast.IsColorName(t.text) {
		return &ast.KeywordColor{Keyword: t.text}, nil
	}
	return &ast.Keyword{Value: t.text}, nil
}

// rawUntilValueEnd returns the source from t up to the end of the current
// declaration value, with runs of whitespace collapsed.
func (p *lessParser) rawUntilValueEnd(t token) string {
	depth := 0
	for {
		n := p.peek()
		stop := n.kind == tEOF
		switch n.kind {
		case tSemicolon, tRBrace:
			stop = stop || depth == 0
		case tDelim:
			stop = n.text == "!" && depth == 0
		case tLParen, tFunction:
			depth++
		case tRParen:
			if depth == 0 {
				stop = true
			}
			depth--
		}
		if stop {
			return strings.Join(strings.Fields(string(p.src[t.offset:n.offset])), " ")
		}
		p.next()
	}
}

func (p *lessParser) parseFunction(t token) (ast.Node, error) {
	name := strings.TrimSuffix(t.text, "(")
	if strings.EqualFold(name, "url") {
		if n := p.peek(); n.kind == tString {
			p.next()
			if _, err := p.expect(tRParen, "expected ')' after url"); err != nil {
				return nil, err
			}
			return &ast.URL{Value: unquote(n.text)}, nil
		}
		start := p.peek().offset
		if _, err := p.parseCallArgs(name); err != nil {
			return nil, err
		}
		end := p.toks[p.pos-1].offset
		return &ast.URL{Value: strings.TrimSpace(string(p.src[start:end]))}, nil
	}
	if strings.EqualFold(name, "if") {
		return p.parseIfCall(name)
	}
	return p.parseCallArgs(name)
}

// parseIfCall parses `if(condition, then, else)`. The condition uses guard
// syntax, `(@a > 1) and not (@b)`; anything else is an ordinary argument.
func (p *lessParser) parseIfCall(name string) (ast.Node, error) {
	if p.peek().kind == tLParen || p.peekIdent("not") {
		mark, depth := p.pos, p.depth
		cond, err := p.parseConditionOr()
		if err == nil {
			switch p.peek().kind {
			case tComma, tSemicolon, tRParen:
				return p.parseCallArgsFrom(name, cond)
			}
		}
		p.pos, p.depth = mark, depth
	}
	return p.parseCallArgs(name)
}

// parseCallArgs parses comma-separated arguments after the opening
// parenthesis and consumes the closing one.
func (p *lessParser) parseCallArgs(name string) (ast.Node, error) {
	return p.parseCallArgsFrom(name, nil)
}

// parseCallArgsFrom is parseCallArgs with the first argument already parsed
// when first is non-nil.
func (p *lessParser) parseCallArgsFrom(name string, first ast.Node) (ast.Node, error) {
	if err := p.push(); err != nil {
		return nil, err
	}
	defer p.pop()

	call := &ast.FunctionCall{Name: name}
	for {
		arg := first
		first = nil
		if arg == nil {
			var err error
			if arg, err = p.parseSpaceList(valueMode{inParens: true}); err != nil {
				return nil, err
			}
		}
		if arg != nil {
			call.Args = append(call.Args, arg)
		}
		switch t := p.next(); t.kind {
		case tComma, tSemicolon:
		case tRParen:
			return call, nil
		default:
			return nil, p.unexpected(t, "in arguments of "+name+"()")
		}
	}
}

func newDimension(num, unit string) *ast.Dimension {
	return &ast.Dimension{Value: canonicalNumber(num), Unit: unit}
}

// canonicalNumber renders num in its shortest decimal form, so `.5`, `0.50`
// and `+0.5` all read `0.5`.
func canonicalNumber(num string) string {
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return num
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// splitNumber splits a dimension token into its numeric part and unit.
func splitNumber(text string) (string, string) {
	i := 0
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		i++
	}
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i+1 < len(text) && text[i] == '.' && isDigit(text[i+1]) {
		i++
		for i < len(text) && isDigit(text[i]) {
			i++
		}
	}
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') {
		j := i + 1
		if j < len(text) && (text[j] == '+' || text[j] == '-') {
			j++
		}
		if j < len(text) && isDigit(text[j]) {
			for j < len(text) && isDigit(text[j]) {
				j++
			}
			i = j
		}
	}
	return text[:i], text[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func newQuoted(text string) *ast.Quoted {
	return &ast.Quoted{Value: unquote(text), Delim: text[0]}
}

func unquote(text string) string {
	if len(text) >= 2 && (text[0] == '"' || text[0] == '\'') && text[len(text)-1] == text[0] {
		return text[1 : len(text)-1]
	}
	if len(text) >= 1 && (text[0] == '"' || text[0] == '\'') {
		return text[1:]
	}
	return text
}

// urlBody strips `url(` and `)` from an unquoted url token.
func urlBody(text string) string {
	if i := strings.IndexByte(text, '('); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(text, ")")
	return unquote(strings.TrimSpace(text))
}
