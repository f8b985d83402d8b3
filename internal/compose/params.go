package compose

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/celebrate/internal/particles"
	"github.com/abhisek/celebrate/internal/rarity"
)

// VideoParams are the fixed output parameters of one clip.
type VideoParams struct {
	Width    int
	Height   int
	FPS      int
	Duration time.Duration
}

// DefaultVideoParams matches the app's animation: 720x1280 at 30 fps, 1.5 s.
func DefaultVideoParams() VideoParams {
	return VideoParams{
		Width:    720,
		Height:   1280,
		FPS:      30,
		Duration: 1500 * time.Millisecond,
	}
}

// Validate checks that every parameter is positive.
func (v VideoParams) Validate() error {
	var errs []string
	if v.Width <= 0 || v.Height <= 0 {
		errs = append(errs, fmt.Sprintf("resolution %dx%d must be positive", v.Width, v.Height))
	}
	if v.FPS <= 0 {
		errs = append(errs, fmt.Sprintf("fps %d must be positive", v.FPS))
	}
	if v.Duration <= 0 {
		errs = append(errs, fmt.Sprintf("duration %s must be positive", v.Duration))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid video params: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Canvas returns the simulation canvas for these params.
func (v VideoParams) Canvas() particles.Canvas {
	return particles.Canvas{Width: v.Width, Height: v.Height}
}

// Size is the ffmpeg "WxH" form.
func (v VideoParams) Size() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// Seconds is the duration in ffmpeg's decimal-seconds form.
func (v VideoParams) Seconds() string {
	return formatNumber(v.Duration.Seconds())
}

// Frames is the number of frames the clip will contain.
func (v VideoParams) Frames() int {
	return int(v.Duration.Seconds()*float64(v.FPS) + 0.5)
}

// Background is the base canvas: transparent unless an opaque color was
// chosen explicitly.
type Background struct {
	Color rarity.Color
}

// Transparent is the default background.
var Transparent = Background{}

// ParseBackground accepts "transparent" (or "") or a #RRGGBB color.
func ParseBackground(s string) (Background, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "transparent") {
		return Transparent, nil
	}
	c, err := rarity.ParseColor(s)
	if err != nil {
		return Background{}, fmt.Errorf("background: %w", err)
	}
	return Background{Color: c}, nil
}

// IsTransparent reports whether the background has no color.
func (b Background) IsTransparent() bool {
	return b.Color == ""
}

func (b Background) String() string {
	if b.IsTransparent() {
		return "transparent"
	}
	return string(b.Color)
}

func (b Background) ffmpeg() string {
	if b.IsTransparent() {
		return "black@0.0"
	}
	return b.Color.FFmpeg()
}

// formatNumber renders the shortest decimal that round-trips.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
