// Package ast defines the syntax tree produced by the stylesheet parsers.
//
// The node set is closed: every variant is a pointer type declared in this
// package and implements Node through an unexported marker method, so
// consumers can switch over the concrete types knowing no other package can
// add one.
package ast

// Node is implemented by every syntax tree node.
type Node interface {
	Kind() Kind
	aNode()
}

// Kind names a node variant. The string value is the name used when the node
// is counted by structural kind.
type Kind string

const (
	KindStylesheet       Kind = "stylesheet"
	KindBlock            Kind = "block"
	KindRule             Kind = "rule"
	KindDefinition       Kind = "definition"
	KindMixinCall        Kind = "mixin_call"
	KindBlockDirective   Kind = "block_directive"
	KindDirectiveValue   Kind = "directive_value"
	KindGenericBlock     Kind = "generic_block"
	KindMedia            Kind = "media"
	KindMixin            Kind = "mixin"
	KindRuleset          Kind = "ruleset"
	KindImport           Kind = "import"
	KindArgument         Kind = "argument"
	KindAssignment       Kind = "assignment"
	KindParameter        Kind = "parameter"
	KindParen            Kind = "paren"
	KindKeywordColor     Kind = "keyword_color"
	KindRGBColor         Kind = "rgb_color"
	KindCondition        Kind = "condition"
	KindGuard            Kind = "guard"
	KindDimension        Kind = "dimension"
	KindAttributeElement Kind = "attribute_element"
	KindValueElement     Kind = "value_element"
	KindTextElement      Kind = "text_element"
	KindExpression       Kind = "expression"
	KindExpressionList   Kind = "expression_list"
	KindBool             Kind = "bool"
	KindFeature          Kind = "feature"
	KindFeatures         Kind = "features"
	KindFunctionCall     Kind = "function_call"
	KindKeyword          Kind = "keyword"
	KindMixinCallArgs    Kind = "mixin_call_args"
	KindMixinParams      Kind = "mixin_params"
	KindOperation        Kind = "operation"
	KindProperty         Kind = "property"
	KindQuoted           Kind = "quoted"
	KindRatio            Kind = "ratio"
	KindSelector         Kind = "selector"
	KindSelectors        Kind = "selectors"
	KindShorthand        Kind = "shorthand"
	KindUnicodeRange     Kind = "unicode_range"
	KindURL              Kind = "url"
	KindVariable         Kind = "variable"
	KindNegative         Kind = "negative"
)

// Operator is the operator of an Operation or Condition.
type Operator string

const (
	OpAdd       Operator = "add"
	OpSubtract  Operator = "subtract"
	OpMultiply  Operator = "multiply"
	OpDivide    Operator = "divide"
	OpAnd       Operator = "and"
	OpOr        Operator = "or"
	OpEquals    Operator = "eq"
	OpNotEquals Operator = "ne"
	OpGreater   Operator = "gt"
	OpGreaterEq Operator = "gte"
	OpLess      Operator = "lt"
	OpLessEq    Operator = "lte"
	// OpTruth marks a condition with a single operand, e.g. `when (@flag)`.
	OpTruth Operator = ""
)

type node struct{}

func (node) aNode() {}

// Stylesheet is the root of a parsed file.
type Stylesheet struct {
	node
	Path  string
	Block *Block
}

// Block is an ordered sequence of rule-level nodes. Entries may be nil.
type Block struct {
	node
	Rules []Node
}

// Rule is a declaration, `property: value`.
type Rule struct {
	node
	Property  *Property
	Value     Node
	Important bool
}

// Definition is a variable definition, `@name: value`.
type Definition struct {
	node
	Name  string
	Value Node
}

// MixinCall invokes a mixin: `.m(args)` or `#ns > .m;`.
type MixinCall struct {
	node
	Selector  *Selector
	Args      *MixinCallArgs
	Important bool
}

// BlockDirective is an at-rule with a body such as `@font-face { ... }`.
type BlockDirective struct {
	node
	Name  string
	Block *Block
}

// DirectiveValue is an at-rule without a body such as `@charset "utf-8";`.
type DirectiveValue struct {
	node
	Name  string
	Value Node
}

// GenericBlock is an anonymous block, e.g. a detached ruleset.
type GenericBlock struct {
	node
	Block *Block
}

// Media is an `@media` block.
type Media struct {
	node
	Features *Features
	Block    *Block
}

// Mixin is a parametric mixin definition.
type Mixin struct {
	node
	Name   string
	Params *MixinParams
	Guard  *Guard
	Block  *Block
}

// Ruleset is a selector list with a body, optionally guarded.
type Ruleset struct {
	node
	Selectors *Selectors
	Guard     *Guard
	Block     *Block
}

// Import is an `@import` statement.
type Import struct {
	node
	Path     Node
	Features *Features
	Options  []string
}

// Argument is one argument of a mixin call. Name is empty for positional
// arguments.
type Argument struct {
	node
	Name  string
	Value Node
}

// Assignment is an IE-style `name=value` function argument.
type Assignment struct {
	node
	Name  string
	Value Node
}

// Parameter is one parameter of a mixin definition. Value holds the default
// or, for pattern parameters, the matched literal.
type Parameter struct {
	node
	Name     string
	Value    Node
	Variadic bool
}

// Paren is a parenthesized value.
type Paren struct {
	node
	Value Node
}

// KeywordColor is a named color such as `red`.
type KeywordColor struct {
	node
	Keyword string
}

// RGBColor is a numeric color literal.
type RGBColor struct {
	node
	R, G, B uint8
	A       float64
	// Source is the text the color was parsed from.
	Source string
}

// Condition is one clause of a guard.
type Condition struct {
	node
	Op     Operator
	Left   Node
	Right  Node
	Negate bool
}

// Guard is the `when` clause of a mixin or ruleset. Comma separated
// conditions are alternatives.
type Guard struct {
	node
	Conditions []*Condition
}

// Dimension is a number with an optional unit. Value is the shortest decimal
// rendering of the number.
type Dimension struct {
	node
	Value string
	Unit  string
}

// AttributeElement is an attribute selector, `[name op value]`.
type AttributeElement struct {
	node
	Combinator string
	Name       string
	Op         string
	Parts      []Node
}

// ValueElement is a selector element whose name is a value, e.g. `@{name}`.
type ValueElement struct {
	node
	Combinator string
	Value      Node
}

// TextElement is a plain selector element such as `.btn`, `div` or `&`.
type TextElement struct {
	node
	Combinator string
	Name       string
}

// Expression is a space separated value list.
type Expression struct {
	node
	Values []Node
}

// ExpressionList is a comma separated value list.
type ExpressionList struct {
	node
	Values []Node
}

// Bool is a `true` or `false` literal.
type Bool struct {
	node
	Value bool
}

// Feature is one media feature, `(property: value)`. Value may be nil.
type Feature struct {
	node
	Property string
	Value    Node
}

// Features is a media query list.
type Features struct {
	node
	Features []Node
}

// FunctionCall is `name(args...)`.
type FunctionCall struct {
	node
	Name string
	Args []Node
}

// Keyword is a bare identifier.
type Keyword struct {
	node
	Value string
}

// MixinCallArgs holds the arguments of a mixin call.
type MixinCallArgs struct {
	node
	Args []*Argument
	// Delim is the argument separator, ',' or ';'.
	Delim byte
}

// MixinParams holds the parameters of a mixin definition.
type MixinParams struct {
	node
	Params []*Parameter
}

// Operation is a binary arithmetic operation.
type Operation struct {
	node
	Op    Operator
	Left  Node
	Right Node
}

// Property is a declaration property name.
type Property struct {
	node
	Name string
}

// Quoted is a string literal.
type Quoted struct {
	node
	Value   string
	Delim   byte
	Escaped bool
}

// Ratio is a media feature ratio such as `16/9`.
type Ratio struct {
	node
	Numerator   string
	Denominator string
}

// Selector is a sequence of elements.
type Selector struct {
	node
	Elements []Node
}

// Selectors is a comma separated selector list.
type Selectors struct {
	node
	Selectors []*Selector
}

// Shorthand is a slash separated pair outside parentheses, `12px/1.5`.
type Shorthand struct {
	node
	Left  Node
	Right Node
}

// UnicodeRange is a `U+0025-00FF` literal.
type UnicodeRange struct {
	node
	Value string
}

// URL is a `url(...)` literal.
type URL struct {
	node
	Value string
}

// Variable is a variable reference. Name excludes the leading `@`.
type Variable struct {
	node
	Name string
	// Indirect is set for `@@name`.
	Indirect bool
	// Interpolated is set for `@{name}`.
	Interpolated bool
}

// Negative is a negated value, `-@x`.
type Negative struct {
	node
	Value Node
}

func (*Stylesheet) Kind() Kind       { return KindStylesheet }
func (*Block) Kind() Kind            { return KindBlock }
func (*Rule) Kind() Kind             { return KindRule }
func (*Definition) Kind() Kind       { return KindDefinition }
func (*MixinCall) Kind() Kind        { return KindMixinCall }
func (*BlockDirective) Kind() Kind   { return KindBlockDirective }
func (*DirectiveValue) Kind() Kind   { return KindDirectiveValue }
func (*GenericBlock) Kind() Kind     { return KindGenericBlock }
func (*Media) Kind() Kind            { return KindMedia }
func (*Mixin) Kind() Kind            { return KindMixin }
func (*Ruleset) Kind() Kind          { return KindRuleset }
func (*Import) Kind() Kind           { return KindImport }
func (*Argument) Kind() Kind         { return KindArgument }
func (*Assignment) Kind() Kind       { return KindAssignment }
func (*Parameter) Kind() Kind        { return KindParameter }
func (*Paren) Kind() Kind            { return KindParen }
func (*KeywordColor) Kind() Kind     { return KindKeywordColor }
func (*RGBColor) Kind() Kind         { return KindRGBColor }
func (*Condition) Kind() Kind        { return KindCondition }
func (*Guard) Kind() Kind            { return KindGuard }
func (*Dimension) Kind() Kind        { return KindDimension }
func (*AttributeElement) Kind() Kind { return KindAttributeElement }
func (*ValueElement) Kind() Kind     { return KindValueElement }
func (*TextElement) Kind() Kind      { return KindTextElement }
func (*Expression) Kind() Kind       { return KindExpression }
func (*ExpressionList) Kind() Kind   { return KindExpressionList }
func (*Bool) Kind() Kind             { return KindBool }
func (*Feature) Kind() Kind          { return KindFeature }
func (*Features) Kind() Kind         { return KindFeatures }
func (*FunctionCall) Kind() Kind     { return KindFunctionCall }
func (*Keyword) Kind() Kind          { return KindKeyword }
func (*MixinCallArgs) Kind() Kind    { return KindMixinCallArgs }
func (*MixinParams) Kind() Kind      { return KindMixinParams }
func (*Operation) Kind() Kind        { return KindOperation }
func (*Property) Kind() Kind         { return KindProperty }
func (*Quoted) Kind() Kind           { return KindQuoted }
func (*Ratio) Kind() Kind            { return KindRatio }
func (*Selector) Kind() Kind         { return KindSelector }
func (*Selectors) Kind() Kind        { return KindSelectors }
func (*Shorthand) Kind() Kind        { return KindShorthand }
func (*UnicodeRange) Kind() Kind     { return KindUnicodeRange }
func (*URL) Kind() Kind              { return KindURL }
func (*Variable) Kind() Kind         { return KindVariable }
func (*Negative) Kind() Kind         { return KindNegative }
