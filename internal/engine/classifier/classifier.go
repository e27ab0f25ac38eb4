// Package classifier walks parsed stylesheets and buckets every node into
// the named counters of a counter.Store.
package classifier

import (
	"strconv"

	"github.com/phensley/less-scanner/internal/engine/ast"
	"github.com/phensley/less-scanner/internal/engine/counter"
)

// DefaultMaxDepth bounds the traversal. Subtrees below it are not descended
// and are counted once under the "depth_limit" syntax key.
const DefaultMaxDepth = 1024

// Syntax keys emitted by the block traversal, in addition to the node kinds.
const (
	SyntaxRule           = "rule"
	SyntaxMixinCall      = "mixin_call"
	SyntaxBlockDirective = "block_directive"
	SyntaxGenericBlock   = "generic_block"
	SyntaxMedia          = "media"
	SyntaxMixin          = "mixin"
	SyntaxRuleset        = "ruleset"
	SyntaxNumber         = "number"
	SyntaxDimension      = "dimension"
	SyntaxKeyword        = "keyword"
	SyntaxCondition      = "condition"
	SyntaxDepthLimit     = "depth_limit"
)

// Scanner owns one counter.Store and fills it from every tree it is given.
// A Scanner must only be used from one goroutine.
type Scanner struct {
	stats    *counter.Store
	maxDepth int
	depth    int
	files    int
}

func New() *Scanner {
	return &Scanner{stats: counter.NewStore(), maxDepth: DefaultMaxDepth}
}

// WithMaxDepth overrides the traversal depth bound.
func (s *Scanner) WithMaxDepth(depth int) *Scanner {
	if depth > 0 {
		s.maxDepth = depth
	}
	return s
}

// Scan classifies every node of sheet.
func (s *Scanner) Scan(sheet *ast.Stylesheet) {
	if sheet == nil {
		return
	}
	s.files++
	s.depth = 0
	s.scanBlock(sheet.Block)
}

// Files returns the number of trees scanned.
func (s *Scanner) Files() int { return s.files }

// Snapshot returns a copy of the accumulated counters.
func (s *Scanner) Snapshot() *counter.Store {
	return s.stats.Clone()
}

func (s *Scanner) syntax(key string) {
	s.stats.Incr(counter.Syntax, key)
}

func (s *Scanner) enter() bool {
	if s.depth >= s.maxDepth {
		s.syntax(SyntaxDepthLimit)
		return false
	}
	s.depth++
	return true
}

func (s *Scanner) leave() { s.depth-- }

func (s *Scanner) scanBlock(block *ast.Block) {
	if block == nil {
		return
	}
	if !s.enter() {
		return
	}
	defer s.leave()

	for _, rule := range block.Rules {
		if rule == nil {
			continue
		}
		switch n := rule.(type) {
		case *ast.MixinCall:
			s.scanNode(n)
			s.syntax(SyntaxMixinCall)

		case *ast.Rule:
			s.scanNode(n)
			s.syntax(SyntaxRule)

		case *ast.BlockDirective:
			s.syntax(SyntaxBlockDirective)
			s.stats.Incr(counter.Directives, n.Name)
			s.scanBlock(n.Block)

		case *ast.GenericBlock:
			s.syntax(SyntaxGenericBlock)
			s.scanBlock(n.Block)

		case *ast.Media:
			s.syntax(SyntaxMedia)
			if n.Features != nil {
				s.scanNode(n.Features)
			}
			s.scanBlock(n.Block)

		case *ast.Mixin:
			s.syntax(SyntaxMixin)
			if n.Guard != nil {
				s.scanNode(n.Guard)
			}
			if n.Params != nil {
				s.scanNode(n.Params)
			}
			s.scanBlock(n.Block)

		case *ast.Ruleset:
			s.syntax(SyntaxRuleset)
			if n.Selectors != nil {
				s.scanNode(n.Selectors)
			}
			if n.Guard != nil {
				s.scanNode(n.Guard)
			}
			s.scanBlock(n.Block)

		case *ast.Definition, *ast.DirectiveValue, *ast.Import, *ast.Selector:
			s.scanNode(n)
		}
	}
}

func (s *Scanner) scanNodes(nodes []ast.Node) {
	for _, n := range nodes {
		s.scanNode(n)
	}
}

func (s *Scanner) scanNode(node ast.Node) {
	if node == nil {
		return
	}
	if !s.enter() {
		return
	}
	defer s.leave()

	switch n := node.(type) {
	case *ast.Argument:
		s.syntax(string(ast.KindArgument))
		s.scanNode(n.Value)

	case *ast.Assignment:
		s.syntax(string(ast.KindAssignment))
		s.scanNode(n.Value)

	case *ast.Definition:
		s.syntax(string(ast.KindDefinition))
		s.scanNode(n.Value)

	case *ast.DirectiveValue:
		s.syntax(string(ast.KindDirectiveValue))
		s.stats.Incr(counter.Directives, n.Name)
		s.scanNode(n.Value)

	case *ast.Parameter:
		s.syntax(string(ast.KindParameter))
		s.scanNode(n.Value)

	case *ast.Paren:
		s.syntax(string(ast.KindParen))
		s.scanNode(n.Value)

	case *ast.KeywordColor:
		s.syntax(string(ast.KindKeywordColor))
		s.stats.Incr(counter.Keywords, n.Keyword)
		s.stats.Incr(counter.ColorKeywords, n.Keyword)

	case *ast.RGBColor:
		s.syntax(string(ast.KindRGBColor))
		s.stats.Incr(counter.Colors, n.Canonical())

	case *ast.Condition:
		if n.Op == ast.OpTruth {
			s.syntax(SyntaxCondition)
		} else {
			s.syntax(operationKey(n.Op))
		}
		if n.Negate {
			s.syntax("operation_not")
		}
		s.scanNode(n.Left)
		s.scanNode(n.Right)

	case *ast.Guard:
		s.syntax(string(ast.KindGuard))
		for _, c := range n.Conditions {
			s.scanNode(c)
		}

	case *ast.Dimension:
		if n.Unit != "" {
			s.syntax(SyntaxDimension)
		} else {
			s.syntax(SyntaxNumber)
		}
		s.stats.Incr(counter.Dimensions, n.Value+n.Unit)

	case *ast.AttributeElement:
		s.syntax(string(ast.KindAttributeElement))
		s.scanNodes(n.Parts)

	case *ast.ValueElement:
		s.syntax(string(ast.KindValueElement))
		s.scanNode(n.Value)

	case *ast.TextElement:
		s.syntax(string(ast.KindTextElement))
		s.stats.Incr(counter.Elements, n.Name)

	case *ast.Expression:
		s.syntax(string(ast.KindExpression))
		s.scanNodes(n.Values)

	case *ast.ExpressionList:
		s.syntax(string(ast.KindExpressionList))
		s.scanNodes(n.Values)

	case *ast.Bool:
		s.syntax(SyntaxKeyword)
		s.stats.Incr(counter.Keywords, strconv.FormatBool(n.Value))

	case *ast.Feature:
		s.syntax(string(ast.KindFeature))
		s.stats.Incr(counter.Properties, n.Property)
		s.scanNode(n.Value)

	case *ast.Features:
		s.syntax(string(ast.KindFeatures))
		s.scanNodes(n.Features)

	case *ast.FunctionCall:
		s.syntax(string(ast.KindFunctionCall))
		s.stats.Incr(counter.Functions, n.Name)
		s.scanNodes(n.Args)

	case *ast.Import:
		s.syntax(string(ast.KindImport))
		if n.Features != nil {
			s.scanNode(n.Features)
		}
		s.scanNode(n.Path)

	case *ast.Keyword:
		s.syntax(SyntaxKeyword)
		s.stats.Incr(counter.Keywords, n.Value)

	case *ast.MixinCallArgs:
		s.syntax(string(ast.KindMixinCallArgs))
		for _, arg := range n.Args {
			s.scanNode(arg)
		}

	case *ast.MixinParams:
		s.syntax(string(ast.KindMixinParams))
		for _, param := range n.Params {
			s.scanNode(param)
		}

	case *ast.MixinCall:
		// Tagged by the block traversal.
		if n.Args != nil {
			s.scanNode(n.Args)
		}
		if n.Selector != nil {
			s.scanNode(n.Selector)
		}

	case *ast.Operation:
		s.syntax(operationKey(n.Op))
		s.scanNode(n.Left)
		s.scanNode(n.Right)

	case *ast.Property:
		s.syntax(string(ast.KindProperty))
		s.stats.Incr(counter.Properties, n.Name)

	case *ast.Quoted:
		s.syntax(string(ast.KindQuoted))

	case *ast.Ratio:
		s.syntax(string(ast.KindRatio))
		s.stats.Incr(counter.Ratios, n.Numerator+"/"+n.Denominator)

	case *ast.Rule:
		// Tagged by the block traversal.
		if n.Property != nil {
			s.scanNode(n.Property)
		}
		s.scanNode(n.Value)

	case *ast.Selector:
		s.syntax(string(ast.KindSelector))
		s.scanNodes(n.Elements)

	case *ast.Selectors:
		s.syntax(string(ast.KindSelectors))
		for _, sel := range n.Selectors {
			s.scanNode(sel)
		}

	case *ast.Shorthand:
		s.syntax(string(ast.KindShorthand))
		s.scanNode(n.Left)
		s.scanNode(n.Right)

	case *ast.UnicodeRange:
		s.syntax(string(ast.KindUnicodeRange))

	case *ast.URL:
		s.syntax(string(ast.KindURL))

	case *ast.Variable:
		s.syntax(string(ast.KindVariable))
		s.stats.Incr(counter.Variables, n.Name)

	case *ast.Negative:
		s.syntax(string(ast.KindNegative))
		s.scanNode(n.Value)

	case *ast.GenericBlock:
		// Detached rulesets appear as definition values.
		s.syntax(SyntaxGenericBlock)
		s.scanBlock(n.Block)
	}
}

func operationKey(op ast.Operator) string {
	return "operation_" + string(op)
}
