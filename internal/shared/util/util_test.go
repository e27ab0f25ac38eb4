package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanPattern(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./vendor/less  ", expected: "vendor/less"},
		{name: "Backslashes", input: `themes\dark\*.less`, expected: "themes/dark/*.less"},
		{name: "Relative", input: "themes/../vendor", expected: "vendor"},
		{name: "BaseName", input: "*.min.css", expected: "*.min.css"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CleanPattern(tc.input); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestIsPathPattern(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"vendor/less":  true,
		`vendor\less`:  true,
		"*.min.css":    false,
		"node_modules": false,
	}
	for pattern, expected := range cases {
		if got := IsPathPattern(pattern); got != expected {
			t.Fatalf("IsPathPattern(%q) = %v, expected %v", pattern, got, expected)
		}
	}
}

func TestWriteReportFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats", "nested", "colors.tsv")
	if err := WriteReportFile(path, []byte("key\tcount\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != "key\tcount\n" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestProgressLimiter(t *testing.T) {
	if NewProgressLimiter(0) != nil {
		t.Fatal("expected a zero rate to disable progress")
	}
	var disabled *ProgressLimiter
	if disabled.Allow() {
		t.Fatal("nil limiter must never allow")
	}

	now := time.Unix(1700000000, 0)
	l := NewProgressLimiter(2)
	l.now = func() time.Time { return now }

	if !l.Allow() {
		t.Fatal("expected the first notice to be allowed")
	}
	if l.Allow() {
		t.Fatal("expected a second notice in the same instant to be throttled")
	}
	now = now.Add(600 * time.Millisecond)
	if !l.Allow() {
		t.Fatal("expected a notice after the refill interval")
	}
}

func TestHeapAllocMB(t *testing.T) {
	buf := make([]byte, 8<<20)
	if HeapAllocMB() == 0 {
		t.Fatal("expected a non-zero heap with 8 MiB live")
	}
	_ = buf[len(buf)-1]
}
