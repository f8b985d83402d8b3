package progress

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/celebrate/internal/render"
)

// RunFunc starts a batch and reports transitions to observe.
type RunFunc func(ctx context.Context, observe render.Observer) (*render.Summary, error)

// Run shows the live view while run executes in the background. Interrupting
// the view cancels the batch; Run returns only after the batch has returned.
func Run(ctx context.Context, total int, run RunFunc, opts ...tea.ProgramOption) (*render.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(total, cancel), opts...)

	var (
		sum    *render.Summary
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		sum, runErr = run(ctx, func(e render.Event) { p.Send(JobMsg(e)) })
		p.Send(DoneMsg{Summary: sum, Err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		if runErr != nil {
			return sum, runErr
		}
		return sum, err
	}
	<-done
	return sum, runErr
}
