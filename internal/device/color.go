package device

import (
	"strconv"
	"strings"
)

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// DefaultColor is used when a message has no valid color.
var DefaultColor = RGB{R: 255, G: 215, B: 0}

// ParseColor parses "#rrggbb" or "rrggbb", case-insensitive. Anything else
// reports false.
func ParseColor(s string) (RGB, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return RGB{}, false
	}

	var parts [3]uint8
	for i := range parts {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return RGB{}, false
		}
		parts[i] = uint8(v)
	}

	return RGB{R: parts[0], G: parts[1], B: parts[2]}, true
}

// ColorOrDefault parses s and falls back to DefaultColor.
func ColorOrDefault(s string) RGB {
	if c, ok := ParseColor(s); ok {
		return c
	}
	return DefaultColor
}
