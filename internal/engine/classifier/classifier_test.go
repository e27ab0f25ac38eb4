package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phensley/less-scanner/internal/engine/ast"
	"github.com/phensley/less-scanner/internal/engine/counter"
)

func sheet(rules ...ast.Node) *ast.Stylesheet {
	return &ast.Stylesheet{Path: "test.less", Block: &ast.Block{Rules: rules}}
}

func declaration(name string, value ast.Node) *ast.Rule {
	return &ast.Rule{Property: &ast.Property{Name: name}, Value: value}
}

func TestScan_DimensionBucketing(t *testing.T) {
	s := New()
	s.Scan(sheet(declaration("width", &ast.Dimension{Value: "10", Unit: "px"})))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Dimensions, "10px"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxDimension))
	assert.Equal(t, 0, stats.Get(counter.Syntax, SyntaxNumber))
	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxRule))
	assert.Equal(t, 1, stats.Get(counter.Properties, "width"))

	s = New()
	s.Scan(sheet(declaration("z-index", &ast.Dimension{Value: "10"})))
	stats = s.Snapshot()
	assert.Equal(t, 1, stats.Get(counter.Dimensions, "10"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxNumber))
	assert.Equal(t, 0, stats.Get(counter.Syntax, SyntaxDimension))
}

func TestScan_ColorBucketing(t *testing.T) {
	white, ok := ast.ParseHexColor("#fff")
	require.True(t, ok)
	full, ok := ast.ParseHexColor("#FFFFFF")
	require.True(t, ok)

	s := New()
	s.Scan(sheet(
		declaration("color", white),
		declaration("background", full),
		declaration("border-color", &ast.KeywordColor{Keyword: "red"}),
	))
	stats := s.Snapshot()

	assert.Equal(t, 2, stats.Get(counter.Colors, "#ffffff"))
	assert.Equal(t, 1, stats.Counter(counter.Colors).Len())
	assert.Equal(t, 1, stats.Get(counter.ColorKeywords, "red"))
	assert.Equal(t, 1, stats.Get(counter.Keywords, "red"))
	assert.Equal(t, 2, stats.Get(counter.Syntax, string(ast.KindRGBColor)))
}

// (@a + @b > 10)
func TestScan_GuardOperators(t *testing.T) {
	guard := &ast.Guard{Conditions: []*ast.Condition{{
		Op: ast.OpGreater,
		Left: &ast.Operation{
			Op:    ast.OpAdd,
			Left:  &ast.Variable{Name: "a"},
			Right: &ast.Variable{Name: "b"},
		},
		Right: &ast.Dimension{Value: "10"},
	}}}

	s := New()
	s.Scan(sheet(&ast.Mixin{Name: ".m", Guard: guard, Block: &ast.Block{}}))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Syntax, "operation_add"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, "operation_gt"))
	assert.Equal(t, 2, stats.Get(counter.Syntax, string(ast.KindVariable)))
	assert.Equal(t, 1, stats.Get(counter.Variables, "a"))
	assert.Equal(t, 1, stats.Get(counter.Variables, "b"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxMixin))
	assert.Equal(t, 1, stats.Get(counter.Syntax, string(ast.KindGuard)))
	assert.Equal(t, 0, stats.Get(counter.Syntax, SyntaxCondition))
}

func TestScan_NegatedTruthCondition(t *testing.T) {
	guard := &ast.Guard{Conditions: []*ast.Condition{{
		Op:     ast.OpTruth,
		Left:   &ast.Variable{Name: "enabled"},
		Negate: true,
	}}}
	s := New()
	s.Scan(sheet(&ast.Ruleset{
		Selectors: &ast.Selectors{Selectors: []*ast.Selector{{Elements: []ast.Node{&ast.TextElement{Name: ".a"}}}}},
		Guard:     guard,
		Block:     &ast.Block{},
	}))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxCondition))
	assert.Equal(t, 1, stats.Get(counter.Syntax, "operation_not"))
	assert.Equal(t, 1, stats.Get(counter.Variables, "enabled"))
	assert.Equal(t, 1, stats.Get(counter.Elements, ".a"))
}

func TestScan_SameTreeTwiceDoublesCounts(t *testing.T) {
	tree := sheet(
		declaration("margin", &ast.Expression{Values: []ast.Node{
			&ast.Dimension{Value: "0"},
			&ast.Keyword{Value: "auto"},
		}}),
		&ast.MixinCall{
			Selector: &ast.Selector{Elements: []ast.Node{&ast.TextElement{Name: ".clearfix"}}},
			Args:     &ast.MixinCallArgs{Delim: ','},
		},
	)

	once := New()
	once.Scan(tree)
	twice := New()
	twice.Scan(tree)
	twice.Scan(tree)

	a, b := once.Snapshot(), twice.Snapshot()
	for _, section := range counter.Sections {
		a.Counter(section).Each(func(key string, count int) {
			assert.Equal(t, 2*count, b.Get(section, key), "%s/%s", section, key)
		})
		assert.Equal(t, a.Counter(section).Len(), b.Counter(section).Len())
	}
	assert.Equal(t, 2, twice.Files())
}

func TestScan_EmptyInput(t *testing.T) {
	s := New()
	s.Scan(nil)
	s.Scan(&ast.Stylesheet{Path: "empty.less"})
	s.Scan(sheet())
	assert.True(t, s.Snapshot().Empty())
	assert.Equal(t, 2, s.Files())
}

func TestScan_NilHolesSkipped(t *testing.T) {
	s := New()
	s.Scan(sheet(
		nil,
		&ast.Rule{Property: nil, Value: nil},
		&ast.Mixin{Name: ".m"},
		&ast.Media{},
		&ast.Definition{Name: "x"},
		&ast.FunctionCall{Name: "darken", Args: []ast.Node{nil, &ast.Keyword{Value: "a"}}},
	))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxRule))
	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxMixin))
	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxMedia))
	assert.Equal(t, 1, stats.Get(counter.Syntax, string(ast.KindDefinition)))
	assert.Equal(t, 0, stats.Get(counter.Syntax, string(ast.KindFunctionCall)))
	assert.Equal(t, 0, stats.Counter(counter.Properties).Len())
}

func TestScan_BlockLevelSelector(t *testing.T) {
	s := New()
	s.Scan(sheet(&ast.Selector{Elements: []ast.Node{
		&ast.TextElement{Name: "&"},
		&ast.TextElement{Name: ":extend(.b)"},
	}}))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Elements, "&"))
	assert.Equal(t, 1, stats.Get(counter.Elements, ":extend(.b)"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, string(ast.KindSelector)))
	assert.Equal(t, 0, stats.Counter(counter.Properties).Len())
}

func TestScan_DefinitionRecursesIntoValue(t *testing.T) {
	s := New()
	s.Scan(sheet(&ast.Definition{Name: "base", Value: &ast.FunctionCall{
		Name: "darken",
		Args: []ast.Node{&ast.Variable{Name: "brand"}, &ast.Dimension{Value: "10", Unit: "%"}},
	}}))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Functions, "darken"))
	assert.Equal(t, 1, stats.Get(counter.Variables, "brand"))
	assert.Equal(t, 0, stats.Get(counter.Variables, "base"))
	assert.Equal(t, 1, stats.Get(counter.Dimensions, "10%"))
}

func TestScan_Directives(t *testing.T) {
	s := New()
	s.Scan(sheet(
		&ast.BlockDirective{Name: "@font-face", Block: &ast.Block{Rules: []ast.Node{
			declaration("font-family", &ast.Quoted{Value: "Open Sans", Delim: '"'}),
		}}},
		&ast.DirectiveValue{Name: "@charset", Value: &ast.Quoted{Value: "UTF-8", Delim: '"'}},
		&ast.Import{
			Path:     &ast.URL{Value: "base.css"},
			Features: &ast.Features{Features: []ast.Node{&ast.Keyword{Value: "screen"}}},
		},
	))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Directives, "@font-face"))
	assert.Equal(t, 1, stats.Get(counter.Directives, "@charset"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxBlockDirective))
	assert.Equal(t, 1, stats.Get(counter.Syntax, string(ast.KindDirectiveValue)))
	assert.Equal(t, 1, stats.Get(counter.Syntax, string(ast.KindImport)))
	assert.Equal(t, 1, stats.Get(counter.Syntax, string(ast.KindURL)))
	assert.Equal(t, 2, stats.Get(counter.Syntax, string(ast.KindQuoted)))
	assert.Equal(t, 1, stats.Get(counter.Keywords, "screen"))
}

func TestScan_MediaFeaturesAndRatios(t *testing.T) {
	s := New()
	s.Scan(sheet(&ast.Media{
		Features: &ast.Features{Features: []ast.Node{
			&ast.Expression{Values: []ast.Node{
				&ast.Keyword{Value: "screen"},
				&ast.Keyword{Value: "and"},
				&ast.Feature{Property: "min-aspect-ratio", Value: &ast.Ratio{Numerator: "16", Denominator: "9"}},
			}},
		}},
		Block: &ast.Block{},
	}))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Ratios, "16/9"))
	assert.Equal(t, 1, stats.Get(counter.Properties, "min-aspect-ratio"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, string(ast.KindFeature)))
	assert.Equal(t, 1, stats.Get(counter.Syntax, string(ast.KindFeatures)))
}

func TestScan_SelectorsAndShorthand(t *testing.T) {
	s := New()
	s.Scan(sheet(&ast.Ruleset{
		Selectors: &ast.Selectors{Selectors: []*ast.Selector{{Elements: []ast.Node{
			&ast.TextElement{Name: "a"},
			&ast.AttributeElement{Combinator: "", Name: "href", Op: "^=", Parts: []ast.Node{
				&ast.Keyword{Value: "href"},
				&ast.Quoted{Value: "http", Delim: '"'},
			}},
			&ast.ValueElement{Combinator: " ", Value: &ast.Variable{Name: "child", Interpolated: true}},
		}}}},
		Block: &ast.Block{Rules: []ast.Node{
			declaration("font", &ast.Shorthand{
				Left:  &ast.Dimension{Value: "12", Unit: "px"},
				Right: &ast.Dimension{Value: "1.5"},
			}),
			declaration("width", &ast.Negative{Value: &ast.Variable{Name: "gutter"}}),
		}},
	}))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Elements, "a"))
	assert.Equal(t, 1, stats.Get(counter.Keywords, "href"))
	assert.Equal(t, 1, stats.Get(counter.Variables, "child"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, string(ast.KindShorthand)))
	assert.Equal(t, 1, stats.Get(counter.Syntax, string(ast.KindNegative)))
	assert.Equal(t, 1, stats.Get(counter.Dimensions, "12px"))
	assert.Equal(t, 1, stats.Get(counter.Dimensions, "1.5"))
	assert.Equal(t, 2, stats.Get(counter.Syntax, SyntaxRule))
	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxRuleset))
}

func TestScan_DetachedRulesetDefinition(t *testing.T) {
	s := New()
	s.Scan(sheet(&ast.Definition{Name: "detached", Value: &ast.GenericBlock{Block: &ast.Block{Rules: []ast.Node{
		declaration("color", &ast.KeywordColor{Keyword: "blue"}),
	}}}}))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxGenericBlock))
	assert.Equal(t, 1, stats.Get(counter.ColorKeywords, "blue"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxRule))
}

func TestScan_BoolRecordsKeyword(t *testing.T) {
	s := New()
	s.Scan(sheet(&ast.Definition{Name: "flag", Value: &ast.Bool{Value: true}}))
	assert.Equal(t, 1, s.Snapshot().Get(counter.Keywords, "true"))
}

func TestScan_DepthLimit(t *testing.T) {
	var value ast.Node = &ast.Dimension{Value: "1"}
	for i := 0; i < 20; i++ {
		value = &ast.Paren{Value: value}
	}

	s := New().WithMaxDepth(8)
	s.Scan(sheet(declaration("width", value)))
	stats := s.Snapshot()

	assert.Equal(t, 1, stats.Get(counter.Syntax, SyntaxDepthLimit))
	assert.Equal(t, 0, stats.Get(counter.Dimensions, "1"))

	// The depth counter resets between trees.
	s.Scan(sheet(declaration("height", &ast.Dimension{Value: "2"})))
	assert.Equal(t, 1, s.Snapshot().Get(counter.Dimensions, "2"))
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := New()
	s.Scan(sheet(declaration("color", &ast.Keyword{Value: "inherit"})))
	snap := s.Snapshot()
	s.Scan(sheet(declaration("color", &ast.Keyword{Value: "inherit"})))

	assert.Equal(t, 1, snap.Get(counter.Keywords, "inherit"))
	assert.Equal(t, 2, s.Snapshot().Get(counter.Keywords, "inherit"))
}
