package rarity

import (
	"fmt"
	"strings"
)

// Color is an opaque "#RRGGBB" color.
type Color string

// Gold is the fixed color of burst rays.
const Gold Color = "#FFD700"

// ParseColor accepts "#RRGGBB", "RRGGBB" or "0xRRGGBB".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	c := Color("#" + strings.ToUpper(s))
	if err := c.Validate(); err != nil {
		return "", err
	}
	return c, nil
}

// Validate checks the "#RRGGBB" form.
func (c Color) Validate() error {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return fmt.Errorf("color %q: want #RRGGBB", s)
	}
	for _, r := range s[1:] {
		if !isHex(r) {
			return fmt.Errorf("color %q: invalid hex digit %q", s, r)
		}
	}
	return nil
}

// FFmpeg returns the color in ffmpeg's 0xRRGGBB syntax.
func (c Color) FFmpeg() string {
	return "0x" + strings.TrimPrefix(string(c), "#")
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
