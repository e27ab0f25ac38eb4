// Package parser turns LESS and CSS source into the stylesheet model consumed
// by the classifier.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/phensley/less-scanner/internal/core/errors"
	"github.com/phensley/less-scanner/internal/engine/ast"
)

// Backend selects the parser used for a file.
type Backend string

const (
	BackendLESS       Backend = "less"
	BackendTreeSitter Backend = "tree-sitter"
)

// DefaultMaxDepth bounds block and parenthesis nesting.
const DefaultMaxDepth = 256

type Options struct {
	// CSSBackend parses files with a .css extension. LESS files always use
	// the LESS parser.
	CSSBackend Backend
	MaxDepth   int
}

func DefaultOptions() Options {
	return Options{CSSBackend: BackendLESS, MaxDepth: DefaultMaxDepth}
}

// ParseBackend validates a backend name.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case BackendLESS, BackendTreeSitter:
		return b, nil
	case "":
		return BackendLESS, nil
	}
	return "", errors.New(errors.CodeValidationError, fmt.Sprintf("unknown css backend %q (want less or tree-sitter)", name))
}

// Parser is safe for concurrent use.
type Parser struct {
	opts Options
	css  *cssBackend
}

func New(opts Options) *Parser {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.CSSBackend == "" {
		opts.CSSBackend = BackendLESS
	}
	p := &Parser{opts: opts}
	if opts.CSSBackend == BackendTreeSitter {
		p.css = newCSSBackend()
	}
	return p
}

// BackendFor reports which backend ParseFile uses for path.
func (p *Parser) BackendFor(path string) Backend {
	if strings.EqualFold(filepath.Ext(path), ".css") {
		return p.opts.CSSBackend
	}
	return BackendLESS
}

// ParseFile parses content read from path. Failures carry CodeParseFailure
// and wrap a *ParseError.
func (p *Parser) ParseFile(path string, content []byte) (*ast.Stylesheet, error) {
	backend := p.BackendFor(path)

	var (
		sheet *ast.Stylesheet
		err   error
	)
	if backend == BackendTreeSitter {
		sheet, err = p.css.parse(path, content)
	} else {
		sheet, err = parseLess(path, content, p.opts.MaxDepth)
	}
	if err != nil {
		return nil, wrapParseError(err, path, backend)
	}
	return sheet, nil
}
