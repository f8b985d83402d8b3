// Package progress is the live terminal view of a render batch.
package progress

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/celebrate/internal/render"
	"github.com/abhisek/celebrate/internal/ui/report"
	"github.com/abhisek/celebrate/internal/ui/theme"
)

const defaultWidth = 60

// JobMsg carries a job transition from the runner.
type JobMsg render.Event

// DoneMsg is sent once the run returns.
type DoneMsg struct {
	Summary *render.Summary
	Err     error
}

// Model tracks every job of one run.
type Model struct {
	spinner spinner.Model
	order   []string
	jobs    map[string]render.Job
	total   int

	cancel    context.CancelFunc
	canceling bool
	done      bool
	err       error
	width     int
}

// New creates a Model expecting total jobs. cancel is invoked when the user
// interrupts.
func New(total int, cancel context.CancelFunc) Model {
	return Model{
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(theme.Running)),
		jobs:    make(map[string]render.Job),
		total:   total,
		cancel:  cancel,
		width:   defaultWidth,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = min(msg.Width, defaultWidth)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil && !m.canceling {
				m.cancel()
			}
			m.canceling = true
		}
		return m, nil

	case JobMsg:
		if _, ok := m.jobs[msg.Job.ID]; !ok {
			m.order = append(m.order, msg.Job.ID)
		}
		m.jobs[msg.Job.ID] = msg.Job
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		if msg.Summary != nil {
			for _, job := range msg.Summary.Jobs {
				if _, ok := m.jobs[job.ID]; !ok {
					m.order = append(m.order, job.ID)
				}
				m.jobs[job.ID] = job
			}
		}
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() tea.View {
	return tea.NewView(m.render())
}

// Finished counts jobs in a terminal state.
func (m Model) Finished() int {
	n := 0
	for _, job := range m.jobs {
		if job.Status.Done() {
			n++
		}
	}
	return n
}

func (m Model) render() string {
	var b strings.Builder

	b.WriteString(theme.Title.Render("Rendering celebrations"))
	b.WriteString("\n\n")

	for _, id := range m.order {
		b.WriteString(m.renderJob(m.jobs[id]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	total := max(m.total, len(m.order))
	b.WriteString(Bar{Done: m.Finished(), Total: total, Width: m.width}.View())
	b.WriteString("\n")

	switch {
	case m.done && m.err != nil:
		b.WriteString(theme.Failed.Render("run aborted: " + m.err.Error()))
	case m.done:
		b.WriteString(theme.Hint.Render("done"))
	case m.canceling:
		b.WriteString(theme.Hint.Render("canceling…"))
	default:
		b.WriteString(theme.Hint.Render("ctrl+c to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderJob(job render.Job) string {
	var icon string
	switch job.Status {
	case render.StatusRunning:
		icon = m.spinner.View()
	case render.StatusSucceeded:
		icon = theme.Succeeded.Render("✓")
	case render.StatusFailed:
		icon = theme.Failed.Render("✗")
	default:
		icon = theme.Pending.Render("·")
	}

	line := fmt.Sprintf("%s %-10s", icon, job.Tier)
	switch job.Status {
	case render.StatusRunning:
		if job.Layers > 0 {
			line += theme.Hint.Render(fmt.Sprintf(" %d layers", job.Layers))
		}
	case render.StatusSucceeded:
		line += theme.Body.Render(fmt.Sprintf(" %d layers  %s  %s",
			job.Layers, report.FormatElapsed(job.Elapsed), report.FormatSize(job.Size)))
	case render.StatusFailed:
		if job.Err != nil {
			line += " " + theme.Failed.Render(render.Kind(job.Err))
		}
	}
	return line
}
