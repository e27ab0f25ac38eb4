package ast

import "testing"

func TestRGBColorCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#fff", "#ffffff"},
		{"#FFFFFF", "#ffffff"},
		{"#1a2B3c", "#1a2b3c"},
		{"#f008", "rgba(255, 0, 0, 0.533)"},
		{"#00000000", "rgba(0, 0, 0, 0)"},
		{"#336699ff", "#336699"},
	}
	for _, tt := range tests {
		c, ok := ParseHexColor(tt.in)
		if !ok {
			t.Fatalf("ParseHexColor(%q) failed", tt.in)
		}
		if got := c.Canonical(); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if c.Source != tt.in {
			t.Errorf("Source = %q, want %q", c.Source, tt.in)
		}
	}
}

func TestParseHexColorRejects(t *testing.T) {
	for _, in := range []string{"fff", "#ff", "#fffff", "#ggg", "#main", ""} {
		if _, ok := ParseHexColor(in); ok {
			t.Errorf("ParseHexColor(%q) should fail", in)
		}
	}
}

func TestIsColorName(t *testing.T) {
	for _, name := range []string{"red", "Red", "cornflowerblue","transparent", "lightgoldenrodyellow"} {
		if !IsColorName(name) {
			t.Errorf("expected %q to be a color name", name)
		}
	}
	for _, name := range []string{"solid", "auto", "inherit", "bold"} {
		if IsColorName(name) {
			t.Errorf("expected %q not to be a color name", name)
		}
	}
}
