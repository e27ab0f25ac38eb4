package parser

import (
	"strings"

	"github.com/phensley/less-scanner/internal/engine/ast"
)

func (p *lessParser) parseRuleset() (ast.Node, error) {
	sels, err := p.parseSelectors()
	if err != nil {
		return nil, err
	}
	ruleset := &ast.Ruleset{Selectors: sels}
	if p.peekIdent("when") {
		p.next()
		if ruleset.Guard, err = p.parseGuard(); err != nil {
			return nil, err
		}
	}
	if ruleset.Block, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return ruleset, nil
}

func (p *lessParser) parseSelectors() (*ast.Selectors, error) {
	sels := &ast.Selectors{}
	for {
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		sels.Selectors = append(sels.Selectors, sel)
		if p.peek().kind != tComma {
			return sels, nil
		}
		p.next()
	}
}

func (p *lessParser) atSelectorEnd() bool {
	t := p.peek()
	switch t.kind {
	case tComma, tLBrace, tEOF, tSemicolon, tRBrace:
		return true
	case tIdent:
		return t.space && strings.EqualFold(t.text, "when")
	}
	return false
}

func (p *lessParser) parseSelector() (*ast.Selector, error) {
	sel := &ast.Selector{}
	comb := ""
	for !p.atSelectorEnd() {
		t := p.peek()
		if t.isDelim(">") || t.isDelim("+") || t.isDelim("~") {
			p.next()
			comb = t.text
			continue
		}
		if comb == "" && t.space && len(sel.Elements) > 0 {
			comb = " "
		}
		el, err := p.parseElement(comb)
		if err != nil {
			return nil, err
		}
		sel.Elements = append(sel.Elements, el)
		comb = ""
	}
	if len(sel.Elements) == 0 {
		return nil, p.unexpected(p.peek(), "expected selector")
	}
	return sel, nil
}

func (p *lessParser) parseElement(comb string) (ast.Node, error) {
	t := p.next()
	text := func(name string) (ast.Node, error) {
		return &ast.TextElement{Combinator: comb, Name: name}, nil
	}

	switch t.kind {
	case tIdent, tHash, tPercentage, tNumber:
		return text(t.text)
	case tDimension:
		// Keyframe selectors such as `10.5%` lex as numbers with a unit.
		return text(t.text)
	case tInterp:
		return &ast.ValueElement{Combinator: comb, Value: &ast.Variable{Name: t.text, Interpolated: true}}, nil
	case tColon:
		name := ":"
		if n := p.peek(); n.kind == tColon && !n.space {
			p.next()
			name = "::"
		}
		n := p.next()
		switch n.kind {
		case tIdent:
			return text(name + n.text)
		case tFunction:
			return text(name + p.rawUntilClose(n))
		}
		return nil, p.unexpected(n, "in pseudo selector")
	case tLBracket:
		return p.parseAttribute(comb)
	case tDelim:
		switch t.text {
		case ".":
			n := p.peek()
			if n.space {
				break
			}
			switch n.kind {
			case tIdent:
				p.next()
				return text("." + n.text)
			case tInterp:
				p.next()
				return &ast.ValueElement{Combinator: comb, Value: &ast.Variable{Name: n.text, Interpolated: true}}, nil
			}
		case "&":
			if n := p.peek(); n.kind == tIdent && !n.space {
				p.next()
				return text("&" + n.text)
			}
			return text("&")
		case "*", "|":
			return text(t.text)
		}
	}
	return nil, p.unexpected(t, "in selector")
}

// rawUntilClose returns the text of fn through its matching ')', with runs
// of whitespace collapsed.
func (p *lessParser) rawUntilClose(fn token) string {
	depth := 1
	for depth > 0 {
		n := p.next()
		switch n.kind {
		case tLParen, tFunction:
			depth++
		case tRParen:
			depth--
			if depth == 0 {
				return strings.Join(strings.Fields(string(p.src[fn.offset:n.offset+1])), " ")
			}
		case tEOF:
			return strings.Join(strings.Fields(string(p.src[fn.offset:n.offset])), " ")
		}
	}
	return fn.text
}

func (p *lessParser) parseAttribute(comb string) (ast.Node, error) {
	attr := &ast.AttributeElement{Combinator: comb}
	t := p.next()
	switch t.kind {
	case tIdent:
		attr.Name = t.text
		attr.Parts = append(attr.Parts, &ast.Keyword{Value: t.text})
	case tInterp:
		attr.Name = "@{" + t.text + "}"
		attr.Parts = append(attr.Parts, &ast.Variable{Name: t.text, Interpolated: true})
	default:
		return nil, p.unexpected(t, "in attribute selector")
	}

	switch n := p.peek(); {
	case n.kind == tMatch:
		p.next()
		attr.Op = n.text
	case n.isDelim("="):
		p.next()
		attr.Op = "="
	}

	if attr.Op != "" {
		value, err := p.parsePrimary(valueMode{})
		if err != nil {
			return nil, err
		}
		attr.Parts = append(attr.Parts, value)
		// Case-sensitivity flag.
		if n := p.peek(); n.kind == tIdent && (n.text == "i" || n.text == "s") {
			p.next()
		}
	}

	if _, err := p.expect(tRBracket, "expected ']'"); err != nil {
		return nil, err
	}
	return attr, nil
}

func (p *lessParser) parseGuard() (*ast.Guard, error) {
	guard := &ast.Guard{}
	for {
		cond, err := p.parseConditionOr()
		if err != nil {
			return nil, err
		}
		guard.Conditions = append(guard.Conditions, cond)
		if p.peek().kind != tComma {
			return guard, nil
		}
		p.next()
	}
}

func (p *lessParser) parseConditionOr() (*ast.Condition, error) {
	left, err := p.parseConditionAnd()
	if err != nil {
		return nil, err
	}
	for p.peekIdent("or") {
		p.next()
		right, err := p.parseConditionAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Condition{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *lessParser) parseConditionAnd() (*ast.Condition, error) {
	left, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	for p.peekIdent("and") {
		p.next()
		right, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		left = &ast.Condition{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

// parseCondition parses `[not] ( operand [cmp operand] )`.
func (p *lessParser) parseCondition() (*ast.Condition, error) {
	negate := false
	if p.peekIdent("not") {
		p.next()
		negate = true
	}
	if _, err := p.expect(tLParen, "expected '(' in guard"); err != nil {
		return nil, err
	}
	if err := p.push(); err != nil {
		return nil, err
	}
	defer p.pop()

	var cond *ast.Condition
	if p.peek().kind == tLParen || p.peekIdent("not") {
		// A nested condition group, unless the parenthesis opens an operand
		// such as `((@a + 1) > 2)`.
		mark, depth := p.pos, p.depth
		inner, err := p.parseConditionOr()
		if err == nil && p.peek().kind == tRParen {
			cond = inner
		} else {
			p.pos, p.depth = mark, depth
		}
	}
	if cond == nil {
		mode := valueMode{inParens: true, inGuard: true}
		left, err := p.parseSpaceList(mode)
		if err != nil {
			return nil, err
		}
		if left == nil {
			return nil, p.unexpected(p.peek(), "in guard condition")
		}
		cond = &ast.Condition{Op: ast.OpTruth, Left: left}
		if op, ok := p.parseComparison(); ok {
			right, err := p.parseSpaceList(mode)
			if err != nil {
				return nil, err
			}
			if right == nil {
				return nil, p.unexpected(p.peek(), "after comparison")
			}
			cond.Op = op
			cond.Right = right
		}
	}

	if _, err := p.expect(tRParen, "expected ')' in guard"); err != nil {
		return nil, err
	}
	if negate {
		cond.Negate = !cond.Negate
	}
	return cond, nil
}

func (p *lessParser) parseComparison() (ast.Operator, bool) {
	t := p.peek()
	n := p.peekAt(1)
	glued := func(text string) bool { return n.isDelim(text) && !n.space }

	switch {
	case t.isDelim(">"):
		p.next()
		if glued("=") {
			p.next()
			return ast.OpGreaterEq, true
		}
		return ast.OpGreater, true
	case t.isDelim("<"):
		p.next()
		if glued("=") {
			p.next()
			return ast.OpLessEq, true
		}
		return ast.OpLess, true
	case t.isDelim("="):
		p.next()
		switch {
		case glued("<"):
			p.next()
			return ast.OpLessEq, true
		case glued(">"):
			p.next()
			return ast.OpGreaterEq, true
		}
		return ast.OpEquals, true
	case t.isDelim("!") && glued("="):
		p.next()
		p.next()
		return ast.OpNotEquals, true
	}
	return "", false
}

// parseFeatures parses a media query list up to '{' or ';'.
func (p *lessParser) parseFeatures() (*ast.Features, error) {
	features := &ast.Features{}
	for {
		query, err := p.parseMediaQuery()
		if err != nil {
			return nil, err
		}
		if query != nil {
			features.Features = append(features.Features, query)
		}
		if p.peek().kind != tComma {
			return features, nil
		}
		p.next()
	}
}

func (p *lessParser) parseMediaQuery() (ast.Node, error) {
	var terms []ast.Node
	for {
		t := p.peek()
		switch t.kind {
		case tComma, tLBrace, tSemicolon, tRBrace, tEOF:
			switch len(terms) {
			case 0:
				return nil, nil
			case 1:
				return terms[0], nil
			}
			return &ast.Expression{Values: terms}, nil
		case tLParen:
			p.next()
			feature, err := p.parseFeature()
			if err != nil {
				return nil, err
			}
			terms = append(terms, feature)
		case tIdent:
			p.next()
			terms = append(terms, &ast.Keyword{Value: t.text})
		default:
			value, err := p.parsePrimary(valueMode{})
			if err != nil {
				return nil, err
			}
			terms = append(terms, value)
		}
	}
}

// parseFeature parses a parenthesised media feature after its '('.
func (p *lessParser) parseFeature() (ast.Node, error) {
	if err := p.push(); err != nil {
		return nil, err
	}
	defer p.pop()

	t, n := p.peek(), p.peekAt(1)
	var node ast.Node
	switch {
	case t.kind == tIdent && n.kind == tColon:
		p.next()
		p.next()
		feature := &ast.Feature{Property: t.text}
		if ratio := p.parseRatio(); ratio != nil {
			feature.Value = ratio
		} else {
			value, err := p.parseSpaceList(valueMode{inParens: true})
			if err != nil {
				return nil, err
			}
			feature.Value = value
		}
		node = feature
	case t.kind == tIdent && n.kind == tRParen:
		p.next()
		node = &ast.Feature{Property: t.text}
	default:
		value, err := p.parseList(true, valueMode{inParens: true})
		if err != nil {
			return nil, err
		}
		node = &ast.Paren{Value: value}
	}

	if _, err := p.expect(tRParen, "expected ')' in media feature"); err != nil {
		return nil, err
	}
	return node, nil
}

// parseRatio matches `<integer> / <integer>` followed by ')'.
func (p *lessParser) parseRatio() *ast.Ratio {
	num, slash, den, end := p.peek(), p.peekAt(1), p.peekAt(2), p.peekAt(3)
	if num.kind != tNumber || !slash.isDelim("/") || den.kind != tNumber || end.kind != tRParen {
		return nil
	}
	p.next()
	p.next()
	p.next()
	return &ast.Ratio{Numerator: canonicalNumber(num.text), Denominator: canonicalNumber(den.text)}
}
