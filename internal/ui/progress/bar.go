package progress

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/celebrate/internal/ui/theme"
)

// Bar displays finished jobs out of the batch as a horizontal bar.
type Bar struct {
	Done  int
	Total int
	Width int
}

// Percent is the finished fraction in [0, 1].
func (b Bar) Percent() float64 {
	if b.Total <= 0 {
		return 0
	}
	p := float64(b.Done) / float64(b.Total)
	return min(max(p, 0), 1)
}

// View renders the bar followed by "done/total".
func (b Bar) View() string {
	count := fmt.Sprintf("  %d/%d", b.Done, b.Total)

	barWidth := b.Width - len(count)
	if barWidth < 4 {
		barWidth = 4
	}

	filled := int(float64(barWidth) * b.Percent())
	empty := barWidth - filled

	return theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", empty)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(count)
}
