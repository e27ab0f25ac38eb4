package ast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Canonical renders the color the same way regardless of how it was written:
// opaque colors as lowercase `#rrggbb`, translucent ones as `rgba(r, g, b, a)`.
func (c *RGBColor) Canonical() string {
	if c.A < 1 {
		return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, formatAlpha(c.A))
	}
	rgb := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
	return rgb.Hex()
}

func formatAlpha(a float64) string {
	if a < 0 {
		a = 0
	}
	return strconv.FormatFloat(math.Round(a*1000)/1000, 'f', -1, 64)
}

// ParseHexColor parses `#rgb`, `#rgba`, `#rrggbb` or `#rrggbbaa`.
func ParseHexColor(text string) (*RGBColor, bool) {
	hex := strings.TrimPrefix(text, "#")
	if len(hex) == len(text) {
		return nil, false
	}
	switch len(hex) {
	case 3, 4:
		expanded := make([]byte, 0, len(hex)*2)
		for i := 0; i < len(hex); i++ {
			expanded = append(expanded, hex[i], hex[i])
		}
		hex = string(expanded)
	case 6, 8:
	default:
		return nil, false
	}

	var channels [4]uint8
	channels[3] = 0xff
	for i := 0; i < len(hex)/2; i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, false
		}
		channels[i] = uint8(v)
	}
	return &RGBColor{
		R:      channels[0],
		G:      channels[1],
		B:      channels[2],
		A:      float64(channels[3]) / 255,
		Source: text,
	}, true
}

// IsColorName reports whether name is a CSS named color. Matching is case
// insensitive.
func IsColorName(name string) bool {
	lower := strings.ToLower(name)
	if lower == "transparent" {
		return true
	}
	_, ok := colornames.Map[lower]
	return ok
}
