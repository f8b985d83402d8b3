// Package report renders batch summaries, profiles and history as tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/abhisek/celebrate/internal/rarity"
	"github.com/abhisek/celebrate/internal/render"
	"github.com/abhisek/celebrate/internal/store"
	"github.com/abhisek/celebrate/internal/ui/theme"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Header
			}
			return theme.Cell
		}).
		Headers(headers...)
}

// Summary writes the per-tier outcome of a run.
func Summary(w io.Writer, sum *render.Summary) error {
	t := newTable("TIER", "STATUS", "LAYERS", "ELAPSED", "SIZE", "OUTPUT / ERROR")
	for _, job := range sum.Jobs {
		detail := job.Output
		if job.Err != nil {
			detail = job.Err.Error()
		}
		t.Row(
			tierLabel(job.Tier),
			StatusLabel(job.Status),
			strconv.Itoa(job.Layers),
			FormatElapsed(job.Elapsed),
			FormatSize(job.Size),
			truncate(detail, 60),
		)
	}

	footer := fmt.Sprintf("%d succeeded, %d failed in %s", sum.Succeeded(), sum.Failed(), FormatElapsed(sum.Elapsed))
	if sum.OK() {
		footer = theme.Succeeded.Render(footer)
	} else {
		footer = theme.Failed.Render(footer)
	}

	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n", theme.Hint.Render("run "+sum.RunID), t.Render(), footer)
	return err
}

// Profiles writes the rarity table.
func Profiles(w io.Writer, profiles []rarity.Profile) error {
	t := newTable("TIER", "PARTICLES", "SIZE", "PALETTE", "EFFECTS", "RAYS")
	for _, p := range profiles {
		swatches := make([]string, 0, len(p.Palette()))
		for _, c := range p.Palette() {
			swatches = append(swatches, theme.Swatch(c))
		}
		effects := make([]string, 0, len(p.Effects()))
		for _, e := range p.Effects() {
			effects = append(effects, string(e))
		}
		if len(effects) == 0 {
			effects = append(effects, "-")
		}
		t.Row(
			theme.Tier(p.Tier),
			strconv.Itoa(p.ParticleCount),
			fmt.Sprintf("%d-%d", p.SizeRange.Min, p.SizeRange.Max),
			strings.Join(swatches, "  "),
			strings.Join(effects, ", "),
			strconv.Itoa(p.BurstRayCount()),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// History writes recorded job events, newest first.
func History(w io.Writer, events []store.JobEvent) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, theme.Hint.Render("no renders recorded yet"))
		return err
	}

	t := newTable("WHEN", "RUN", "TIER", "STATUS", "LAYERS", "ELAPSED", "SIZE", "DETAIL")
	for _, ev := range events {
		detail := ev.Output
		if ev.ErrorMessage != "" {
			detail = ev.ErrorKind + ": " + ev.ErrorMessage
		}
		t.Row(
			ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
			shortID(ev.RunID),
			tierLabel(ev.Tier),
			StatusLabel(render.Status(ev.Status)),
			strconv.Itoa(ev.Layers),
			FormatElapsed(time.Duration(ev.ElapsedMs)*time.Millisecond),
			FormatSize(ev.SizeBytes),
			truncate(detail, 50),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// StatusLabel renders a status in its color.
func StatusLabel(s render.Status) string {
	switch s {
	case render.StatusSucceeded:
		return theme.Succeeded.Render("✓ " + string(s))
	case render.StatusFailed:
		return theme.Failed.Render("✗ " + string(s))
	case render.StatusRunning:
		return theme.Running.Render(string(s))
	default:
		return theme.Pending.Render(string(s))
	}
}

// FormatSize prints bytes the way the render log does: KB with one decimal.
func FormatSize(n int64) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}

// FormatElapsed rounds to milliseconds.
func FormatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

func tierLabel(s string) string {
	t, err := rarity.ParseTier(s)
	if err != nil {
		return s
	}
	return theme.Tier(t)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
