package parser

import (
	"strings"

	"github.com/phensley/less-scanner/internal/engine/ast"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
)

func cssLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_css.Language())
}

// cssBackend parses plain CSS with tree-sitter and converts the concrete
// syntax tree into the shared stylesheet model.
type cssBackend struct {
	pool *ParserPool
}

func newCSSBackend() *cssBackend {
	return &cssBackend{pool: NewParserPool(cssLanguage())}
}

func (b *cssBackend) parse(path string, src []byte) (*ast.Stylesheet, error) {
	sp := b.pool.Get()
	defer b.pool.Put(sp)

	tree := sp.Parse(src, nil)
	if tree == nil {
		return nil, &ParseError{Path: path, Line: 1, Column: 1, Message: "tree-sitter returned no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		bad := firstError(root)
		if bad == nil {
			bad = root
		}
		pos := bad.StartPosition()
		return nil, &ParseError{
			Path:    path,
			Line:    int(pos.Row) + 1,
			Column:  int(pos.Column) + 1,
			Message: "syntax error near " + quoteSnippet(nodeText(bad, src)),
		}
	}

	c := &cssConverter{src: src}
	return &ast.Stylesheet{Path: path, Block: c.block(root)}, nil
}

func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return nil
}

func quoteSnippet(text string) string {
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	return "'" + strings.Join(strings.Fields(text), " ") + "'"
}

// nodeText returns the source bytes spanned by a node as a trimmed string.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return strings.TrimSpace(string(source[start:end]))
}

type cssConverter struct {
	src []byte
}

func (c *cssConverter) text(node *sitter.Node) string { return nodeText(node, c.src) }

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

func namedChildren(node *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil && child.Kind() != "comment" {
			out = append(out, child)
		}
	}
	return out
}

// block converts the statements of a stylesheet or block node.
func (c *cssConverter) block(node *sitter.Node) *ast.Block {
	block := &ast.Block{}
	if node == nil {
		return block
	}
	for _, child := range namedChildren(node) {
		if rule := c.statement(child); rule != nil {
			block.Rules = append(block.Rules, rule)
		}
	}
	return block
}

func (c *cssConverter) statement(node *sitter.Node) ast.Node {
	switch node.Kind() {
	case "rule_set":
		return &ast.Ruleset{
			Selectors: c.selectors(childOfKind(node, "selectors")),
			Block:     c.block(childOfKind(node, "block")),
		}
	case "declaration":
		return c.declaration(node)
	case "media_statement":
		return c.media(node)
	case "import_statement":
		return c.importStatement(node)
	case "keyframes_statement":
		return &ast.BlockDirective{
			Name:  c.atName(node),
			Block: c.keyframes(childOfKind(node, "keyframe_block_list")),
		}
	case "supports_statement", "scope_statement":
		return &ast.BlockDirective{Name: c.atName(node), Block: c.block(childOfKind(node, "block"))}
	case "charset_statement", "namespace_statement":
		return &ast.DirectiveValue{Name: c.atName(node), Value: c.valueSequence(namedChildren(node))}
	case "at_rule":
		name := c.text(childOfKind(node, "at_keyword"))
		if block := childOfKind(node, "block"); block != nil {
			return &ast.BlockDirective{Name: name, Block: c.block(block)}
		}
		var queries []ast.Node
		for _, child := range namedChildren(node) {
			if child.Kind() != "at_keyword" {
				queries = append(queries, c.query(child))
			}
		}
		return &ast.DirectiveValue{Name: name, Value: sequence(queries)}
	}
	return nil
}

// atName returns the leading at-keyword of a statement, e.g. "@keyframes".
func (c *cssConverter) atName(node *sitter.Node) string {
	if first := node.Child(0); first != nil {
		return c.text(first)
	}
	return ""
}

func (c *cssConverter) keyframes(list *sitter.Node) *ast.Block {
	block := &ast.Block{}
	if list == nil {
		return block
	}
	for _, kf := range namedChildren(list) {
		if kf.Kind() != "keyframe_block" {
			continue
		}
		sel := &ast.Selector{}
		for _, child := range namedChildren(kf) {
			if child.Kind() != "block" {
				sel.Elements = append(sel.Elements, &ast.TextElement{Name: c.text(child)})
				break
			}
		}
		block.Rules = append(block.Rules, &ast.Ruleset{
			Selectors: &ast.Selectors{Selectors: []*ast.Selector{sel}},
			Block:     c.block(childOfKind(kf, "block")),
		})
	}
	return block
}

func (c *cssConverter) declaration(node *sitter.Node) ast.Node {
	rule := &ast.Rule{Property: &ast.Property{Name: c.text(childOfKind(node, "property_name"))}}

	var groups [][]ast.Node
	var current []ast.Node
	var prev *sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			if child.Kind() == "," {
				groups = append(groups, current)
				current = nil
				prev = nil
			}
			continue
		}
		switch child.Kind() {
		case "property_name", "comment":
		case "important":
			rule.Important = true
			prev = nil
		default:
			current, prev = c.appendValue(current, prev, child)
		}
	}
	groups = append(groups, current)
	rule.Value = list(groups)
	return rule
}

// list folds comma-separated groups of space-separated values.
func list(groups [][]ast.Node) ast.Node {
	items := make([]ast.Node, 0, len(groups))
	for _, g := range groups {
		if v := sequence(g); v != nil {
			items = append(items, v)
		}
	}
	switch {
	case len(items) == 0:
		return nil
	case len(groups) == 1:
		return items[0]
	}
	return &ast.ExpressionList{Values: items}
}

func sequence(values []ast.Node) ast.Node {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	}
	return &ast.Expression{Values: values}
}

func (c *cssConverter) valueSequence(nodes []*sitter.Node) ast.Node {
	var values []ast.Node
	var prev *sitter.Node
	for _, n := range nodes {
		values, prev = c.appendValue(values, prev, n)
	}
	return sequence(values)
}

// appendValue converts child onto values. prev is the node behind the last
// element of values, or nil. It returns the node to pass as prev next time.
func (c *cssConverter) appendValue(values []ast.Node, prev, child *sitter.Node) ([]ast.Node, *sitter.Node) {
	if n := len(values); n > 0 && prev != nil {
		if sh, ok := c.shorthand(values[n-1], prev, child); ok {
			values[n-1] = sh
			return values, nil
		}
	}
	v := c.value(child)
	if v == nil {
		return values, nil
	}
	return append(values, v), child
}

// shorthand rejoins `12px/1.5`, which the grammar splits into the number
// `12` and the plain value `px/1.5`.
func (c *cssConverter) shorthand(left ast.Node, prev, child *sitter.Node) (ast.Node, bool) {
	if child.Kind() != "plain_value" || prev.EndByte() != child.StartByte() {
		return nil, false
	}
	dim, ok := left.(*ast.Dimension)
	if !ok {
		return nil, false
	}
	unit, rest, ok := strings.Cut(c.text(child), "/")
	if !ok || rest == "" || !isUnit(unit) || (unit != "" && dim.Unit != "") {
		return nil, false
	}
	return &ast.Shorthand{
		Left:  &ast.Dimension{Value: dim.Value, Unit: dim.Unit + unit},
		Right: shorthandOperand(rest),
	}, true
}

func shorthandOperand(text string) ast.Node {
	if num, unit := splitNumber(text); num != "" && isDigit(num[len(num)-1]) && isUnit(unit) {
		return newDimension(num, unit)
	}
	return identNode(text)
}

func isUnit(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '%' && (ch < 'a' || ch > 'z') && (ch < 'A' || ch > 'Z') {
			return false
		}
	}
	return true
}

// isUnicodeRange matches `U+0025-00FF`, `u+4??` and similar.
func isUnicodeRange(text string) bool {
	if len(text) < 3 || (text[0] != 'U' && text[0] != 'u') || text[1] != '+' {
		return false
	}
	for i := 2; i < len(text); i++ {
		ch := text[i]
		if !isDigit(ch) && ch != '?' && ch != '-' && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}

func (c *cssConverter) value(node *sitter.Node) ast.Node {
	text := c.text(node)
	switch node.Kind() {
	case "plain_value", "identifier", "keyword_query":
		if isUnicodeRange(text) {
			return &ast.UnicodeRange{Value: text}
		}
		return identNode(text)
	case "integer_value", "float_value":
		unit := c.text(childOfKind(node, "unit"))
		return newDimension(strings.TrimSuffix(text, unit), unit)
	case "color_value":
		if color, ok := ast.ParseHexColor(text); ok {
			return color
		}
		return &ast.Keyword{Value: text}
	case "string_value":
		return newQuoted(text)
	case "call_expression":
		return c.call(node)
	case "binary_expression":
		children := namedChildren(node)
		if len(children) != 2 {
			return &ast.Keyword{Value: text}
		}
		return &ast.Operation{
			Op:    binaryOperator(c.operatorText(node)),
			Left:  c.value(children[0]),
			Right: c.value(children[1]),
		}
	case "parenthesized_value":
		return &ast.Paren{Value: c.valueSequence(namedChildren(node))}
	case "grid_value":
		return c.valueSequence(namedChildren(node))
	case "important", "comment":
		return nil
	}
	return &ast.Keyword{Value: text}
}

func identNode(text string) ast.Node {
	if ast.IsColorName(text) {
		return &ast.KeywordColor{Keyword: text}
	}
	return &ast.Keyword{Value: text}
}

// operatorText returns the first anonymous child of node.
func (c *cssConverter) operatorText(node *sitter.Node) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && !child.IsNamed() {
			return child.Kind()
		}
	}
	return ""
}

func binaryOperator(op string) ast.Operator {
	switch op {
	case "+":
		return ast.OpAdd
	case "-":
		return ast.OpSubtract
	case "*":
		return ast.OpMultiply
	case "/":
		return ast.OpDivide
	case "and":
		return ast.OpAnd
	case "or":
		return ast.OpOr
	}
	return ast.Operator(op)
}

func (c *cssConverter) call(node *sitter.Node) ast.Node {
	name := c.text(childOfKind(node, "function_name"))
	args := childOfKind(node, "arguments")
	if strings.EqualFold(name, "url") {
		body := c.text(args)
		body = strings.TrimSuffix(strings.TrimPrefix(body, "("), ")")
		return &ast.URL{Value: unquote(strings.TrimSpace(body))}
	}

	call := &ast.FunctionCall{Name: name}
	if args == nil {
		return call
	}
	var current []ast.Node
	var prev *sitter.Node
	flush := func() {
		if v := sequence(current); v != nil {
			call.Args = append(call.Args, v)
		}
		current = nil
		prev = nil
	}
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			if child.Kind() == "," || child.Kind() == ";" {
				flush()
			}
			continue
		}
		current, prev = c.appendValue(current, prev, child)
	}
	flush()
	return call
}

func (c *cssConverter) media(node *sitter.Node) ast.Node {
	features := &ast.Features{}
	for _, child := range namedChildren(node) {
		if child.Kind() == "block" {
			continue
		}
		features.Features = append(features.Features, c.query(child))
	}
	return &ast.Media{Features: features, Block: c.block(childOfKind(node, "block"))}
}

func (c *cssConverter) importStatement(node *sitter.Node) ast.Node {
	children := namedChildren(node)
	imp := &ast.Import{}
	if len(children) == 0 {
		return imp
	}
	imp.Path = c.value(children[0])
	if len(children) > 1 {
		imp.Features = &ast.Features{}
		for _, q := range children[1:] {
			imp.Features.Features = append(imp.Features.Features, c.query(q))
		}
	}
	return imp
}

func (c *cssConverter) query(node *sitter.Node) ast.Node {
	switch node.Kind() {
	case "keyword_query":
		return &ast.Keyword{Value: c.text(node)}
	case "feature_query":
		feature := &ast.Feature{Property: c.text(childOfKind(node, "feature_name"))}
		var values []*sitter.Node
		for _, child := range namedChildren(node) {
			if child.Kind() != "feature_name" {
				values = append(values, child)
			}
		}
		if ratio := c.ratio(values); ratio != nil {
			feature.Value = ratio
		} else {
			feature.Value = c.valueSequence(values)
		}
		return feature
	case "binary_query":
		children := namedChildren(node)
		if len(children) != 2 {
			return &ast.Keyword{Value: c.text(node)}
		}
		return &ast.Expression{Values: []ast.Node{
			c.query(children[0]),
			&ast.Keyword{Value: c.operatorText(node)},
			c.query(children[1]),
		}}
	case "unary_query":
		children := namedChildren(node)
		if len(children) != 1 {
			return &ast.Keyword{Value: c.text(node)}
		}
		return &ast.Expression{Values: []ast.Node{
			&ast.Keyword{Value: c.operatorText(node)},
			c.query(children[0]),
		}}
	case "parenthesized_query":
		children := namedChildren(node)
		if len(children) == 1 {
			return &ast.Paren{Value: c.query(children[0])}
		}
	}
	if v := c.value(node); v != nil {
		return v
	}
	return &ast.Keyword{Value: c.text(node)}
}

// ratio recognises `16/9` in a media feature value.
func (c *cssConverter) ratio(values []*sitter.Node) *ast.Ratio {
	if len(values) != 1 || values[0].Kind() != "binary_expression" || c.operatorText(values[0]) != "/" {
		return nil
	}
	parts := namedChildren(values[0])
	if len(parts) != 2 || parts[0].Kind() != "integer_value" || parts[1].Kind() != "integer_value" {
		return nil
	}
	return &ast.Ratio{Numerator: canonicalNumber(c.text(parts[0])), Denominator: canonicalNumber(c.text(parts[1]))}
}

func (c *cssConverter) selectors(node *sitter.Node) *ast.Selectors {
	sels := &ast.Selectors{}
	if node == nil {
		return sels
	}
	for _, child := range namedChildren(node) {
		sel := &ast.Selector{}
		c.flatten(child, "", sel)
		sels.Selectors = append(sels.Selectors, sel)
	}
	return sels
}

var combinators = map[string]string{
	"descendant_selector":       " ",
	"child_selector":            ">",
	"sibling_selector":          "~",
	"adjacent_sibling_selector": "+",
}

func isSelectorKind(kind string) bool {
	return strings.HasSuffix(kind, "_selector") || kind == "tag_name"
}

// flatten appends the compound selectors of node to sel in source order.
func (c *cssConverter) flatten(node *sitter.Node, comb string, sel *ast.Selector) {
	kind := node.Kind()
	children := namedChildren(node)

	if next, ok := combinators[kind]; ok && len(children) >= 2 {
		c.flatten(children[0], comb, sel)
		c.flatten(children[len(children)-1], next, sel)
		return
	}

	// Compound selectors nest their left-hand part as the first child.
	text := c.text(node)
	if len(children) > 0 && isSelectorKind(children[0].Kind()) {
		c.flatten(children[0], comb, sel)
		comb = ""
		text = strings.TrimSpace(string(c.src[children[0].EndByte():node.EndByte()]))
	}

	if kind == "attribute_selector" {
		attr := &ast.AttributeElement{Combinator: comb}
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			switch {
			case child.Kind() == "attribute_name":
				attr.Name = c.text(child)
				attr.Parts = append(attr.Parts, &ast.Keyword{Value: attr.Name})
			case !child.IsNamed() && child.Kind() != "[" && child.Kind() != "]":
				attr.Op = child.Kind()
			case child.IsNamed() && !isSelectorKind(child.Kind()):
				if v := c.value(child); v != nil {
					attr.Parts = append(attr.Parts, v)
				}
			}
		}
		sel.Elements = append(sel.Elements, attr)
		return
	}

	sel.Elements = append(sel.Elements, &ast.TextElement{Combinator: comb, Name: text})
}
