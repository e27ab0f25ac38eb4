package parser

import (
	"bytes"
	"errors"
	"io"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tFunction
	tAtKeyword
	tHash
	tString
	tURL
	tDelim
	tNumber
	tPercentage
	tDimension
	tUnicodeRange
	tMatch
	tColon
	tSemicolon
	tComma
	tLBracket
	tRBracket
	tLParen
	tRParen
	tLBrace
	tRBrace
	// tInterp is `@{name}`; text holds the name.
	tInterp
	// tIndirect is `@@name`; text holds the name.
	tIndirect
)

type token struct {
	kind   tokenKind
	text   string
	offset int
	// space is set when whitespace or a comment precedes the token.
	space bool
}

func (t token) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

func (t token) isDelim(text string) bool { return t.is(tDelim, text) }

var tokenKinds = map[css.TokenType]tokenKind{
	css.IdentToken:               tIdent,
	css.CustomPropertyNameToken:  tIdent,
	css.FunctionToken:            tFunction,
	css.AtKeywordToken:           tAtKeyword,
	css.HashToken:                tHash,
	css.StringToken:              tString,
	css.URLToken:                 tURL,
	css.DelimToken:               tDelim,
	css.NumberToken:              tNumber,
	css.PercentageToken:          tPercentage,
	css.DimensionToken:           tDimension,
	css.UnicodeRangeToken:        tUnicodeRange,
	css.IncludeMatchToken:        tMatch,
	css.DashMatchToken:           tMatch,
	css.PrefixMatchToken:         tMatch,
	css.SuffixMatchToken:         tMatch,
	css.SubstringMatchToken:      tMatch,
	css.ColonToken:               tColon,
	css.SemicolonToken:           tSemicolon,
	css.CommaToken:               tComma,
	css.LeftBracketToken:         tLBracket,
	css.RightBracketToken:        tRBracket,
	css.LeftParenthesisToken:     tLParen,
	css.RightParenthesisToken:    tRParen,
	css.LeftBraceToken:           tLBrace,
	css.RightBraceToken:          tRBrace,
	css.CustomPropertyValueToken: tIdent,
}

type lexError struct {
	offset  int
	message string
}

func (e *lexError) Error() string { return e.message }

// tokenize lexes LESS source. Line comments are blanked first because the
// CSS lexer does not know them; offsets are preserved.
func tokenize(src []byte) ([]token, error) {
	clean := blankLineComments(src)
	lexer := css.NewLexer(parse.NewInputBytes(clean))

	var toks []token
	offset := 0
	space := false
	for {
		tt, data := lexer.Next()
		start := offset
		offset += len(data)

		switch tt {
		case css.ErrorToken:
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, &lexError{offset: start, message: err.Error()}
			}
			toks = append(toks, token{kind: tEOF, offset: start, space: space})
			return mergeLessTokens(toks), nil
		case css.WhitespaceToken, css.CommentToken, css.CDOToken, css.CDCToken:
			space = true
			continue
		case css.BadStringToken:
			return nil, &lexError{offset: start, message: "unterminated string"}
		case css.BadURLToken:
			return nil, &lexError{offset: start, message: "malformed url()"}
		}

		kind, ok := tokenKinds[tt]
		if !ok {
			kind = tDelim
		}
		toks = append(toks, token{kind: kind, text: string(data), offset: start, space: space})
		space = false
	}
}

// mergeLessTokens folds `@{name}` and `@@name` into single tokens.
func mergeLessTokens(toks []token) []token {
	out := make([]token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.isDelim("@") && i+3 < len(toks) &&
			toks[i+1].kind == tLBrace && !toks[i+1].space &&
			toks[i+2].kind == tIdent && !toks[i+2].space &&
			toks[i+3].kind == tRBrace && !toks[i+3].space {
			out = append(out, token{kind: tInterp, text: toks[i+2].text, offset: t.offset, space: t.space})
			i += 3
			continue
		}
		if t.isDelim("@") && i+1 < len(toks) && toks[i+1].kind == tAtKeyword && !toks[i+1].space {
			out = append(out, token{kind: tIndirect, text: toks[i+1].text[1:], offset: t.offset, space: t.space})
			i++
			continue
		}
		out = append(out, t)
	}
	return out
}

// blankLineComments replaces `// ...` comments with spaces, leaving strings,
// block comments and unquoted url() bodies alone.
func blankLineComments(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	n := len(out)
	for i := 0; i < n; i++ {
		switch c := out[i]; c {
		case '"', '\'':
			for i++; i < n && out[i] != c && out[i] != '\n'; i++ {
				if out[i] == '\\' {
					i++
				}
			}
		case '/':
			if i+1 >= n {
				continue
			}
			switch out[i+1] {
			case '*':
				end := bytes.Index(out[i+2:], []byte("*/"))
				if end < 0 {
					return out
				}
				i += end + 3
			case '/':
				for i < n && out[i] != '\n' {
					out[i] = ' '
					i++
				}
			}
		case 'u', 'U':
			if i+4 > n || !bytes.EqualFold(out[i:i+4], []byte("url(")) {
				continue
			}
			if i > 0 && isNameByte(out[i-1]) {
				continue
			}
			j := i + 4
			for j < n && (out[j] == ' ' || out[j] == '\t') {
				j++
			}
			if j < n && (out[j] == '"' || out[j] == '\'') {
				i = j - 1
				continue
			}
			end := bytes.IndexByte(out[j:], ')')
			if end < 0 {
				return out
			}
			i = j + end
		}
	}
	return out
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
