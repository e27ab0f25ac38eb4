package parser

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phensley/less-scanner/internal/core/errors"
	"github.com/phensley/less-scanner/internal/engine/ast"
	"github.com/phensley/less-scanner/internal/engine/classifier"
	"github.com/phensley/less-scanner/internal/engine/counter"
)

func parseCSSString(t *testing.T, src string) *ast.Stylesheet {
	t.Helper()
	p := New(Options{CSSBackend: BackendTreeSitter})
	sheet, err := p.ParseFile("site.css", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, sheet.Block)
	return sheet
}

func TestCSSBackend_Ruleset(t *testing.T) {
	sheet := parseCSSString(t, "a.b > c, #d:hover { color: #FFF; margin: 0 auto; background: url(x.png); }\n")
	require.Len(t, sheet.Block.Rules, 1)

	rs, ok := sheet.Block.Rules[0].(*ast.Ruleset)
	require.True(t, ok, "got %T", sheet.Block.Rules[0])
	require.Len(t, rs.Selectors.Selectors, 2)
	assert.Equal(t, []ast.Node{
		&ast.TextElement{Name: "a"},
		&ast.TextElement{Name: ".b"},
		&ast.TextElement{Combinator: ">", Name: "c"},
	}, rs.Selectors.Selectors[0].Elements)
	assert.Equal(t, []ast.Node{
		&ast.TextElement{Name: "#d"},
		&ast.TextElement{Name: ":hover"},
	}, rs.Selectors.Selectors[1].Elements)

	require.Len(t, rs.Block.Rules, 3)
	color := rs.Block.Rules[0].(*ast.Rule)
	assert.Equal(t, "color", color.Property.Name)
	rgb, ok := color.Value.(*ast.RGBColor)
	require.True(t, ok, "got %T", color.Value)
	assert.Equal(t, "#ffffff", rgb.Canonical())

	margin := rs.Block.Rules[1].(*ast.Rule)
	assert.Equal(t, &ast.Expression{Values: []ast.Node{
		&ast.Dimension{Value: "0"},
		&ast.Keyword{Value: "auto"},
	}}, margin.Value)

	background := rs.Block.Rules[2].(*ast.Rule)
	assert.Equal(t, &ast.URL{Value: "x.png"}, background.Value)
}

func TestCSSBackend_FunctionsAndLists(t *testing.T) {
	sheet := parseCSSString(t, "p { font-family: Arial, sans-serif; width: calc(100% - 2px); color: red !important; }")
	rs := sheet.Block.Rules[0].(*ast.Ruleset)
	require.Len(t, rs.Block.Rules, 3)

	family := rs.Block.Rules[0].(*ast.Rule)
	assert.Equal(t, &ast.ExpressionList{Values: []ast.Node{
		&ast.Keyword{Value: "Arial"},
		&ast.Keyword{Value: "sans-serif"},
	}}, family.Value)

	width := rs.Block.Rules[1].(*ast.Rule)
	call, ok := width.Value.(*ast.FunctionCall)
	require.True(t, ok, "got %T", width.Value)
	assert.Equal(t, "calc", call.Name)
	require.Len(t, call.Args, 1)

	color := rs.Block.Rules[2].(*ast.Rule)
	assert.True(t, color.Important)
	assert.Equal(t, &ast.KeywordColor{Keyword: "red"}, color.Value)
}

func TestCSSBackend_Media(t *testing.T) {
	sheet := parseCSSString(t, "@media screen and (min-width: 10px) { a { top: 0; } }")
	require.Len(t, sheet.Block.Rules, 1)
	media, ok := sheet.Block.Rules[0].(*ast.Media)
	require.True(t, ok, "got %T", sheet.Block.Rules[0])
	require.Len(t, media.Features.Features, 1)
	require.Len(t, media.Block.Rules, 1)
}

func TestCSSBackend_SyntaxError(t *testing.T) {
	p := New(Options{CSSBackend: BackendTreeSitter})
	_, err := p.ParseFile("broken.css", []byte("a { color: red; }\n}}} {{ b"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParseFailure))

	var pe *ParseError
	require.True(t, stderrors.As(err, &pe))
	assert.Equal(t, "broken.css", pe.Path)
	assert.GreaterOrEqual(t, pe.Line, 1)
}

func TestCSSBackend_LessFilesIgnoreIt(t *testing.T) {
	p := New(Options{CSSBackend: BackendTreeSitter})
	sheet, err := p.ParseFile("theme.less", []byte("@x: 1px; a { b: @x; }"))
	require.NoError(t, err)
	_, ok := sheet.Block.Rules[0].(*ast.Definition)
	assert.True(t, ok)
}

func TestCSSBackend_ShorthandAndUnicodeRange(t *testing.T) {
	sheet := parseCSSString(t, "a { font: 12px/1.5 Arial; unicode-range: U+0025-00FF; }")
	rs := sheet.Block.Rules[0].(*ast.Ruleset)
	require.Len(t, rs.Block.Rules, 2)

	font := rs.Block.Rules[0].(*ast.Rule)
	assert.Equal(t, &ast.Expression{Values: []ast.Node{
		&ast.Shorthand{Left: &ast.Dimension{Value: "12", Unit: "px"}, Right: &ast.Dimension{Value: "1.5"}},
		&ast.Keyword{Value: "Arial"},
	}}, font.Value)

	ranges := rs.Block.Rules[1].(*ast.Rule)
	assert.Equal(t, &ast.UnicodeRange{Value: "U+0025-00FF"}, ranges.Value)
}

func classify(t *testing.T, backend Backend, path, src string) *counter.Store {
	t.Helper()
	sheet, err := New(Options{CSSBackend: backend}).ParseFile(path, []byte(src))
	require.NoError(t, err)
	s := classifier.New()
	s.Scan(sheet)
	return s.Snapshot()
}

func TestBackendsAgree(t *testing.T) {
	cases := []string{
		"a { font: 12px/1.5 Arial; unicode-range: U+0025-00FF; }",
		"p { margin: 0 auto; color: red; }",
	}
	for _, src := range cases {
		less := classify(t, BackendLESS, "site.css", src)
		tree := classify(t, BackendTreeSitter, "site.css", src)
		assert.True(t, less.Equal(tree), "backends disagree on %q:\nless: %v\ntree-sitter: %v", src, less, tree)
	}

	stats := classify(t, BackendTreeSitter, "site.css", "a { font: 12px/1.5 Arial; unicode-range: U+0025-00FF; }")
	assert.Equal(t, 1, stats.Get(counter.Dimensions, "12px"))
	assert.Equal(t, 1, stats.Get(counter.Dimensions, "1.5"))
	assert.Equal(t, 0, stats.Get(counter.Keywords, "px/1.5"))
	assert.Equal(t, 0, stats.Get(counter.Keywords, "U+0025-00FF"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, "shorthand"))
	assert.Equal(t, 1, stats.Get(counter.Syntax, "unicode_range"))
}
