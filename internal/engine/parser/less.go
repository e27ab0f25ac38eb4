package parser

import (
	"strings"

	"github.com/phensley/less-scanner/internal/engine/ast"
)

// lessParser is a recursive-descent parser over the merged token stream.
type lessParser struct {
	path     string
	src      []byte
	toks     []token
	pos      int
	depth    int
	maxDepth int
}

func parseLess(path string, src []byte, maxDepth int) (*ast.Stylesheet, error) {
	toks, err := tokenize(src)
	if err != nil {
		if le, ok := err.(*lexError); ok {
			return nil, newParseError(path, src, le.offset, "%s", le.message)
		}
		return nil, newParseError(path, src, 0, "%v", err)
	}
	p := &lessParser{path: path, src: src, toks: toks, maxDepth: maxDepth}
	block, err := p.parseRules(true)
	if err != nil {
		return nil, err
	}
	return &ast.Stylesheet{Path: path, Block: block}, nil
}

func (p *lessParser) peek() token { return p.toks[p.pos] }

func (p *lessParser) peekAt(n int) token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *lessParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tEOF {
		p.pos++
	}
	return t
}

func (p *lessParser) peekIdent(word string) bool {
	t := p.peek()
	return t.kind == tIdent && strings.EqualFold(t.text, word)
}

func (p *lessParser) errorf(t token, format string, args ...any) error {
	return newParseError(p.path, p.src, t.offset, format, args...)
}

func (p *lessParser) unexpected(t token, context string) error {
	if t.kind == tEOF {
		return p.errorf(t, "unexpected end of input %s", context)
	}
	return p.errorf(t, "unexpected %q %s", describe(t), context)
}

func describe(t token) string {
	switch t.kind {
	case tInterp:
		return "@{" + t.text + "}"
	case tIndirect:
		return "@@" + t.text
	}
	return t.text
}

func (p *lessParser) expect(kind tokenKind, context string) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return t, p.unexpected(t, context)
	}
	return p.next(), nil
}

func (p *lessParser) push() error {
	if p.depth >= p.maxDepth {
		return p.errorf(p.peek(), "nesting exceeds %d levels", p.maxDepth)
	}
	p.depth++
	return nil
}

func (p *lessParser) pop() { p.depth-- }

// endStatement consumes a terminating ';'. A closing brace or end of input
// also ends a statement and is left for the caller.
func (p *lessParser) endStatement() error {
	switch t := p.peek(); t.kind {
	case tSemicolon:
		p.next()
		return nil
	case tRBrace, tEOF:
		return nil
	default:
		return p.unexpected(t, "expected ';'")
	}
}

// scanStatementEnd finds the first '{', ';' or '}' outside parentheses and
// brackets, starting at the current position.
func (p *lessParser) scanStatementEnd() (tokenKind, int) {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch t := p.toks[i]; t.kind {
		case tLParen, tFunction, tLBracket:
			depth++
		case tRParen, tRBracket:
			if depth > 0 {
				depth--
			}
		case tLBrace, tSemicolon, tRBrace:
			if depth == 0 {
				return t.kind, i
			}
		case tEOF:
			return tEOF, i
		}
	}
	return tEOF, len(p.toks) - 1
}

func (p *lessParser) parseRules(top bool) (*ast.Block, error) {
	block := &ast.Block{}
	for {
		t := p.peek()
		switch t.kind {
		case tEOF:
			if !top {
				return nil, p.errorf(t, "unexpected end of input, expected '}'")
			}
			return block, nil
		case tRBrace:
			if top {
				return nil, p.errorf(t, "unexpected '}'")
			}
			return block, nil
		case tSemicolon:
			p.next()
			continue
		}
		rule, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		block.Rules = append(block.Rules, rule)
	}
}

func (p *lessParser) parseBlock() (*ast.Block, error) {
	if _, err := p.expect(tLBrace, "expected '{'"); err != nil {
		return nil, err
	}
	if err := p.push(); err != nil {
		return nil, err
	}
	defer p.pop()

	block, err := p.parseRules(false)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tRBrace, "expected '}'"); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *lessParser) parseRule() (ast.Node, error) {
	if p.peek().kind == tAtKeyword {
		return p.parseAtRule()
	}
	end, _ := p.scanStatementEnd()
	if end == tLBrace {
		if p.atMixinDefinition() {
			return p.parseMixin()
		}
		return p.parseRuleset()
	}
	if p.atExtend() {
		return p.parseExtend()
	}
	if p.atMixinCall() {
		return p.parseMixinCall()
	}
	return p.parseDeclaration()
}

// atExtend matches a bodiless statement with a top-level `:extend(`, such as
// `&:extend(.b all);`.
func (p *lessParser) atExtend() bool {
	depth := 0
	for i := p.pos; i+1 < len(p.toks); i++ {
		switch t := p.toks[i]; t.kind {
		case tLParen, tFunction, tLBracket:
			depth++
		case tRParen, tRBracket:
			if depth > 0 {
				depth--
			}
		case tSemicolon, tRBrace, tLBrace, tEOF:
			return false
		case tColon:
			n := p.toks[i+1]
			if depth == 0 && n.kind == tFunction && !n.space && strings.EqualFold(n.text, "extend(") {
				return true
			}
		}
	}
	return false
}

// parseExtend returns the extending selector itself; the extend is one of
// its pseudo elements.
func (p *lessParser) parseExtend() (ast.Node, error) {
	sel, err := p.parseSelector()
	if err != nil {
		return nil, err
	}
	return sel, p.endStatement()
}

// atMixinDefinition matches `.name(` and `#name(`.
func (p *lessParser) atMixinDefinition() bool {
	t, n := p.peek(), p.peekAt(1)
	if t.isDelim(".") {
		return n.kind == tFunction && !n.space
	}
	return t.kind == tHash && n.kind == tLParen && !n.space
}

func (p *lessParser) atMixinCall() bool {
	t, n := p.peek(), p.peekAt(1)
	if t.isDelim(".") {
		return !n.space && (n.kind == tIdent || n.kind == tFunction)
	}
	return t.kind == tHash
}

func (p *lessParser) parseAtRule() (ast.Node, error) {
	t, n := p.peek(), p.peekAt(1)
	name := strings.ToLower(t.text)
	switch {
	case n.kind == tColon && !(n.space && isCSSAtRule(name)):
		return p.parseDefinition()
	case n.kind == tLParen && !n.space:
		return p.parseDetachedCall()
	case name == "@media":
		return p.parseMedia()
	case name == "@import":
		return p.parseImport()
	}
	return p.parseDirective()
}

func isCSSAtRule(name string) bool {
	switch strings.TrimPrefix(name, "@") {
	case "page", "media", "import", "font-face", "supports", "charset",
		"namespace", "document", "viewport", "counter-style", "keyframes":
		return true
	}
	return false
}

func (p *lessParser) parseDefinition() (ast.Node, error) {
	t := p.next()
	p.next()
	def := &ast.Definition{Name: t.text[1:]}

	if p.peek().kind == tLBrace {
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		def.Value = &ast.GenericBlock{Block: block}
		return def, nil
	}

	value, err := p.parseList(true, valueMode{})
	if err != nil {
		return nil, err
	}
	def.Value = value
	if _, err := p.parseImportant(); err != nil {
		return nil, err
	}
	return def, p.endStatement()
}

// parseDetachedCall handles `@ruleset();`.
func (p *lessParser) parseDetachedCall() (ast.Node, error) {
	t := p.next()
	p.next()
	args, err := p.parseMixinArgs()
	if err != nil {
		return nil, err
	}
	call := &ast.MixinCall{
		Selector: &ast.Selector{Elements: []ast.Node{&ast.TextElement{Name: t.text}}},
		Args:     args,
	}
	return call, p.endStatement()
}

func (p *lessParser) parseMedia() (ast.Node, error) {
	p.next()
	features, err := p.parseFeatures()
	if err != nil {
		return nil, err
	}
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.Media{Features: features, Block: block}, nil
}

func (p *lessParser) parseImport() (ast.Node, error) {
	p.next()
	imp := &ast.Import{}

	if p.peek().kind == tLParen {
		p.next()
		for {
			t := p.next()
			switch t.kind {
			case tIdent:
				imp.Options = append(imp.Options, strings.ToLower(t.text))
			case tComma:
			case tRParen:
			default:
				return nil, p.unexpected(t, "in import options")
			}
			if t.kind == tRParen {
				break
			}
		}
	}

	path, err := p.parsePrimary(valueMode{})
	if err != nil {
		return nil, err
	}
	imp.Path = path

	switch p.peek().kind {
	case tSemicolon, tRBrace, tEOF:
	default:
		features, err := p.parseFeatures()
		if err != nil {
			return nil, err
		}
		imp.Features = features
	}
	return imp, p.endStatement()
}

func (p *lessParser) parseDirective() (ast.Node, error) {
	t := p.next()
	end, at := p.scanStatementEnd()
	if end == tLBrace {
		// The prelude is not classified.
		p.pos = at
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.BlockDirective{Name: t.text, Block: block}, nil
	}

	dv := &ast.DirectiveValue{Name: t.text}
	if at > p.pos {
		value, err := p.parseList(true, valueMode{})
		if err != nil {
			return nil, err
		}
		dv.Value = value
	}
	return dv, p.endStatement()
}

func (p *lessParser) parseMixin() (ast.Node, error) {
	t := p.next()
	mixin := &ast.Mixin{}
	if t.kind == tHash {
		mixin.Name = t.text
		p.next()
	} else {
		fn := p.next()
		mixin.Name = "." + strings.TrimSuffix(fn.text, "(")
	}

	params, err := p.parseMixinParams()
	if err != nil {
		return nil, err
	}
	mixin.Params = params

	if p.peekIdent("when") {
		p.next()
		if mixin.Guard, err = p.parseGuard(); err != nil {
			return nil, err
		}
	}
	if mixin.Block, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return mixin, nil
}

// semicolonArgs reports whether the argument list starting at the current
// position uses ';' as its separator.
func (p *lessParser) semicolonArgs() bool {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].kind {
		case tLParen, tFunction:
			depth++
		case tRParen:
			if depth == 0 {
				return false
			}
			depth--
		case tSemicolon:
			if depth == 0 {
				return true
			}
		case tLBrace, tRBrace, tEOF:
			return false
		}
	}
	return false
}

func argSeparator(semicolon bool) (tokenKind, byte) {
	if semicolon {
		return tSemicolon, ';'
	}
	return tComma, ','
}

func (p *lessParser) atVariadic() bool {
	return p.peek().isDelim(".") && p.peekAt(1).isDelim(".") && p.peekAt(2).isDelim(".")
}

// parseMixinParams parses parameters after the opening parenthesis and
// consumes the closing one.
func (p *lessParser) parseMixinParams() (*ast.MixinParams, error) {
	sep, _ := argSeparator(p.semicolonArgs())
	params := &ast.MixinParams{}
	for {
		t := p.peek()
		if t.kind == tRParen {
			p.next()
			return params, nil
		}
		if t.kind == tEOF {
			return nil, p.unexpected(t, "in mixin parameters")
		}

		param, err := p.parseParameter(sep == tSemicolon)
		if err != nil {
			return nil, err
		}
		params.Params = append(params.Params, param)

		switch n := p.peek(); n.kind {
		case sep:
			p.next()
		case tRParen:
		default:
			return nil, p.unexpected(n, "in mixin parameters")
		}
	}
}

func (p *lessParser) skipVariadic() {
	p.next()
	p.next()
	p.next()
}

func (p *lessParser) parseParameter(allowComma bool) (*ast.Parameter, error) {
	if p.atVariadic() {
		p.skipVariadic()
		return &ast.Parameter{Variadic: true}, nil
	}

	t := p.peek()
	if t.kind == tAtKeyword {
		switch n := p.peekAt(1); {
		case n.kind == tColon:
			p.next()
			p.next()
			value, err := p.parseList(allowComma, valueMode{})
			if err != nil {
				return nil, err
			}
			return &ast.Parameter{Name: t.text[1:], Value: value}, nil
		case n.isDelim(".") && !n.space:
			p.next()
			if !p.atVariadic() {
				return nil, p.unexpected(p.peek(), "in mixin parameters")
			}
			p.skipVariadic()
			return &ast.Parameter{Name: t.text[1:], Variadic: true}, nil
		case n.kind == tComma || n.kind == tSemicolon || n.kind == tRParen:
			p.next()
			return &ast.Parameter{Name: t.text[1:]}, nil
		}
	}

	// Pattern-matching parameter.
	value, err := p.parseList(allowComma, valueMode{})
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, p.unexpected(p.peek(), "in mixin parameters")
	}
	return &ast.Parameter{Value: value}, nil
}

// parseMixinArgs parses call arguments after the opening parenthesis and
// consumes the closing one.
func (p *lessParser) parseMixinArgs() (*ast.MixinCallArgs, error) {
	sep, delim := argSeparator(p.semicolonArgs())
	args := &ast.MixinCallArgs{Delim: delim}
	for {
		t := p.peek()
		if t.kind == tRParen {
			p.next()
			return args, nil
		}
		if t.kind == tEOF {
			return nil, p.unexpected(t, "in mixin arguments")
		}

		arg := &ast.Argument{}
		if t.kind == tAtKeyword && p.peekAt(1).kind == tColon {
			p.next()
			p.next()
			arg.Name = t.text[1:]
		}
		value, err := p.parseList(sep == tSemicolon, valueMode{})
		if err != nil {
			return nil, err
		}
		if value == nil && arg.Name == "" {
			return nil, p.unexpected(p.peek(), "in mixin arguments")
		}
		arg.Value = value
		args.Args = append(args.Args, arg)

		switch n := p.peek(); n.kind {
		case sep:
			p.next()
		case tRParen:
		default:
			return nil, p.unexpected(n, "in mixin arguments")
		}
	}
}

func (p *lessParser) parseMixinCall() (ast.Node, error) {
	sel := &ast.Selector{}
	var args *ast.MixinCallArgs
	comb := ""

loop:
	for args == nil {
		t := p.peek()
		if comb == "" && t.space && len(sel.Elements) > 0 {
			comb = " "
		}
		switch {
		case t.isDelim(">"):
			p.next()
			comb = ">"
			continue
		case t.isDelim("."):
			p.next()
			n := p.next()
			switch n.kind {
			case tIdent:
				sel.Elements = append(sel.Elements, &ast.TextElement{Combinator: comb, Name: "." + n.text})
			case tFunction:
				sel.Elements = append(sel.Elements, &ast.TextElement{Combinator: comb, Name: "." + strings.TrimSuffix(n.text, "(")})
				a, err := p.parseMixinArgs()
				if err != nil {
					return nil, err
				}
				args = a
			default:
				return nil, p.unexpected(n, "in mixin call")
			}
		case t.kind == tHash:
			p.next()
			sel.Elements = append(sel.Elements, &ast.TextElement{Combinator: comb, Name: t.text})
			if n := p.peek(); n.kind == tLParen && !n.space {
				p.next()
				a, err := p.parseMixinArgs()
				if err != nil {
					return nil, err
				}
				args = a
			}
		default:
			break loop
		}
		comb = ""
	}

	call := &ast.MixinCall{Selector: sel, Args: args}
	important, err := p.parseImportant()
	if err != nil {
		return nil, err
	}
	call.Important = important
	return call, p.endStatement()
}

func (p *lessParser) parseImportant() (bool, error) {
	if !p.peek().isDelim("!") {
		return false, nil
	}
	p.next()
	t := p.next()
	if t.kind != tIdent || !strings.EqualFold(t.text, "important") {
		return false, p.unexpected(t, "after '!'")
	}
	return true, nil
}

func (p *lessParser) parseDeclaration() (ast.Node, error) {
	var name strings.Builder
	for {
		t := p.peek()
		if t.kind == tColon {
			break
		}
		if name.Len() > 0 && t.space {
			return nil, p.unexpected(t, "in property name")
		}
		switch t.kind {
		case tIdent, tDelim:
			name.WriteString(t.text)
		case tInterp:
			name.WriteString("@{" + t.text + "}")
		default:
			return nil, p.unexpected(t, "expected property")
		}
		p.next()
	}
	if name.Len() == 0 {
		return nil, p.unexpected(p.peek(), "expected property")
	}
	p.next()

	rule := &ast.Rule{Property: &ast.Property{Name: name.String()}}
	value, err := p.parseList(true, valueMode{})
	if err != nil {
		return nil, err
	}
	rule.Value = value
	if rule.Important, err = p.parseImportant(); err != nil {
		return nil, err
	}
	return rule, p.endStatement()
}
