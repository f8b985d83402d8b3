package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/celebrate/internal/rarity"
)

// Color palette
var (
	Primary = lipgloss.Color("#8B5CF6") // Vivid Purple
	Accent  = lipgloss.Color("#FFD700") // Gold
	Success = lipgloss.Color("#22C55E") // Green
	Error   = lipgloss.Color("#F43F5E") // Rose
	Warning = lipgloss.Color("#F97316") // Orange
	Text    = lipgloss.Color("#F8FAFC") // White
	TextDim = lipgloss.Color("#94A3B8") // Slate
	Border  = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Padding(0, 1)

	Cell = lipgloss.NewStyle().
		Padding(0, 1)
)

// States
var (
	Pending = lipgloss.NewStyle().
		Foreground(TextDim)

	Running = lipgloss.NewStyle().
		Foreground(Accent)

	Succeeded = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	Failed = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Primary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)

// TierColor returns the display color of a tier: the first palette entry of
// its profile.
func TierColor(t rarity.Tier) color.Color {
	p, err := rarity.Resolve(string(t))
	if err != nil {
		return TextDim
	}
	return lipgloss.Color(string(p.ColorAt(0)))
}

// Tier renders a tier label in its color.
func Tier(t rarity.Tier) string {
	return lipgloss.NewStyle().Foreground(TierColor(t)).Bold(true).Render(t.DisplayName())
}

// Swatch renders a small block of c followed by its hex value.
func Swatch(c rarity.Color) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(string(c))).Render("■") + " " + string(c)
}
