package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeMissingPath, "no such file")
		if err.Error() != "[MISSING_PATH] no such file" {
			t.Errorf("expected [MISSING_PATH] no such file, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("unexpected '}'")
		err := Wrap(original, CodeParseFailure, "parse failed")
		expected := "[PARSE_FAILURE] parse failed: unexpected '}'"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("ContextIsSorted", func(t *testing.T) {
		err := AddContext(New(CodeTransportFailure, "worker died"), CtxWorker, 3)
		err = AddContext(err, CtxOperation, "report")
		expected := "[TRANSPORT_FAILURE] worker died {operation=report worker=3}"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("AddContextKeepsOuterWrapping", func(t *testing.T) {
		inner := New(CodeParseFailure, "bad token")
		outer := fmt.Errorf("scan a.less: %w", inner)
		err := AddContext(outer, CtxPath, "a.less")
		if err != outer {
			t.Fatalf("expected the original chain to be returned")
		}
		if !IsCode(err, CodeParseFailure) {
			t.Error("expected IsCode to see the wrapped code")
		}
	})

	t.Run("AddContextPlainError", func(t *testing.T) {
		err := AddContext(errors.New("boom"), CtxPath, "x.less")
		if !IsCode(err, CodeInternal) {
			t.Error("expected plain errors to become internal")
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "invalid input")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("CodeOf", func(t *testing.T) {
		code, ok := CodeOf(fmt.Errorf("ctx: %w", New(CodeMissingPath, "gone")))
		if !ok || code != CodeMissingPath {
			t.Errorf("expected MISSING_PATH, got %q ok=%v", code, ok)
		}
		if _, ok := CodeOf(errors.New("plain")); ok {
			t.Error("expected no code for a plain error")
		}
	})
}
