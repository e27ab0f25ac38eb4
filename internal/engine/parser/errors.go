package parser

import (
	"bytes"
	"fmt"

	"github.com/phensley/less-scanner/internal/core/errors"
)

// ParseError locates a syntax error in one stylesheet.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
}

func newParseError(path string, src []byte, offset int, format string, args ...any) *ParseError {
	line, col := position(src, offset)
	return &ParseError{Path: path, Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

// position converts a byte offset into 1-based line and column.
func position(src []byte, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	head := src[:offset]
	line := bytes.Count(head, []byte{'\n'}) + 1
	col := offset - bytes.LastIndexByte(head, '\n')
	return line, col
}

// wrapParseError tags err as a parse failure for path.
func wrapParseError(err error, path string, backend Backend) error {
	wrapped := errors.Wrap(err, errors.CodeParseFailure, "parse failed")
	wrapped = errors.AddContext(wrapped, errors.CtxPath, path)
	return errors.AddContext(wrapped, errors.CtxBackend, string(backend))
}
