package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/celebrate/internal/compose"
	"github.com/abhisek/celebrate/internal/encoder"
	"github.com/abhisek/celebrate/internal/particles"
	"github.com/abhisek/celebrate/internal/rarity"
	"github.com/abhisek/celebrate/internal/store"
)

// Encoder turns a compiled graph into a video file.
type Encoder interface {
	// Locate resolves the encoder binary. It must fail with
	// *encoder.ErrEncoderNotFound when the binary is missing.
	Locate() (string, error)
	Encode(ctx context.Context, g *compose.Graph, output string) (*encoder.Result, error)
}

// Recorder persists job transitions. store.JobRepo satisfies it.
type Recorder interface {
	AppendJob(ctx context.Context, data store.JobEventData) error
}

// Event is delivered to the observer on every job transition.
type Event struct {
	RunID string
	Job   Job
}

// Observer receives job transitions. It is called from worker goroutines
// when Parallel > 1 and must be safe for concurrent use.
type Observer func(Event)

// Options configures a Runner.
type Options struct {
	OutputDir  string
	Seed       uint64
	Video      compose.VideoParams
	Background compose.Background
	Parallel   int

	Encoder  Encoder
	Recorder Recorder
	Logger   *zap.Logger
	Observer Observer
}

// Runner executes batches of render jobs.
type Runner struct {
	opts Options
	log  *zap.Logger
}

// NewRunner validates opts and returns a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Encoder == nil {
		return nil, errors.New("render: encoder is required")
	}
	if opts.OutputDir == "" {
		return nil, errors.New("render: output directory is required")
	}
	if err := opts.Video.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{opts: opts, log: log}, nil
}

// Summary is the outcome of one batch. Jobs are in the requested order.
type Summary struct {
	RunID   string
	Jobs    []Job
	Elapsed time.Duration
}

// Succeeded counts jobs that produced a file.
func (s *Summary) Succeeded() int {
	n := 0
	for _, j := range s.Jobs {
		if j.Status == StatusSucceeded {
			n++
		}
	}
	return n
}

// Failed counts jobs that did not.
func (s *Summary) Failed() int {
	return len(s.Jobs) - s.Succeeded()
}

// OK reports whether every job succeeded.
func (s *Summary) OK() bool {
	return len(s.Jobs) > 0 && s.Failed() == 0
}

// Run renders each tier in order. An empty list means every tier.
//
// Unsupported tiers fail their own job without reaching the encoder. A
// missing encoder is returned as an error before any job starts; every
// other failure stays scoped to its job and is reported in the summary.
func (r *Runner) Run(ctx context.Context, tiers []string) (*Summary, error) {
	if len(tiers) == 0 {
		for _, t := range rarity.Tiers() {
			tiers = append(tiers, string(t))
		}
	}

	start := time.Now()
	sum := &Summary{RunID: uuid.NewString(), Jobs: make([]Job, len(tiers))}
	log := r.log.With(zap.String("run_id", sum.RunID))

	runnable := make([]int, 0, len(tiers))
	for i, tier := range tiers {
		job := Job{
			ID:     uuid.NewString(),
			Tier:   tier,
			Video:  r.opts.Video,
			Status: StatusPending,
		}
		p, err := rarity.Resolve(tier)
		if err != nil {
			job.Status = StatusFailed
			job.Err = err
			log.Error("job failed",
				zap.String("tier", tier),
				zap.String("kind", Kind(err)),
				zap.Error(err))
		} else {
			job.Profile = p
			job.Tier = string(p.Tier)
			job.Output = OutputPath(r.opts.OutputDir, p.Tier)
			runnable = append(runnable, i)
		}
		sum.Jobs[i] = job
		r.emit(ctx, sum.RunID, job)
	}

	if len(runnable) > 0 {
		bin, err := r.opts.Encoder.Locate()
		if err != nil {
			sum.Elapsed = time.Since(start)
			log.Error("encoder unavailable, aborting run", zap.Error(err))
			return sum, err
		}
		log.Debug("encoder located", zap.String("binary", bin))

		if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
			sum.Elapsed = time.Since(start)
			return sum, fmt.Errorf("create output dir: %w", err)
		}
	}

	if r.opts.Parallel == 1 {
		for _, i := range runnable {
			r.runJob(ctx, log, sum.RunID, &sum.Jobs[i])
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.opts.Parallel)
		for _, i := range runnable {
			job := &sum.Jobs[i]
			g.Go(func() error {
				r.runJob(ctx, log, sum.RunID, job)
				return nil
			})
		}
		_ = g.Wait() // job errors are recorded on the jobs
	}

	sum.Elapsed = time.Since(start)
	log.Info("run finished",
		zap.Int("succeeded", sum.Succeeded()),
		zap.Int("failed", sum.Failed()),
		zap.Duration("elapsed", sum.Elapsed))
	return sum, nil
}

// runJob simulates, compiles and encodes one job. Every error is captured
// on the job.
func (r *Runner) runJob(ctx context.Context, log *zap.Logger, runID string, job *Job) {
	start := time.Now()
	log = log.With(zap.String("tier", job.Tier), zap.String("job_id", job.ID))

	job.Status = StatusRunning
	r.emit(ctx, runID, *job)

	res, err := r.execute(ctx, job)
	job.Elapsed = time.Since(start)
	if err != nil {
		job.Status = StatusFailed
		job.Err = err
		fields := []zap.Field{
			zap.Int("layers", job.Layers),
			zap.Duration("elapsed", job.Elapsed),
			zap.String("kind", Kind(err)),
			zap.Error(err),
		}
		if stderr := encoderStderr(err); stderr != "" {
			fields = append(fields, zap.String("stderr", tail(stderr, 2048)))
		}
		log.Error("job failed", fields...)
	} else {
		job.Status = StatusSucceeded
		job.Size = res.Size
		log.Info("job succeeded",
			zap.Int("layers", job.Layers),
			zap.Duration("elapsed", job.Elapsed),
			zap.String("output", job.Output),
			zap.Int64("bytes", job.Size))
	}
	r.emit(ctx, runID, *job)
}

func (r *Runner) execute(ctx context.Context, job *Job) (*encoder.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A fresh generator per job keeps every clip independent of batch order.
	rng := particles.NewSource(r.opts.Seed)
	sim, err := particles.Simulate(job.Profile, job.Video.Canvas(), rng)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	job.Particles = len(sim.Particles)
	job.Rays = len(sim.Rays)

	g, err := compose.Compile(sim, job.Video, r.opts.Background)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	job.Layers = g.LayerCount()

	return r.opts.Encoder.Encode(ctx, g, job.Output)
}

// emit notifies the observer and records the transition. Recording failures
// are logged and never fail the job.
func (r *Runner) emit(ctx context.Context, runID string, job Job) {
	if r.opts.Observer != nil {
		r.opts.Observer(Event{RunID: runID, Job: job})
	}
	if r.opts.Recorder == nil {
		return
	}
	data := store.JobEventData{
		RunID:     runID,
		JobID:     job.ID,
		Tier:      job.Tier,
		Status:    string(job.Status),
		Output:    job.Output,
		Layers:    job.Layers,
		ElapsedMs: job.Elapsed.Milliseconds(),
		SizeBytes: job.Size,
	}
	if job.Err != nil {
		data.ErrorKind = Kind(job.Err)
		data.ErrorMessage = job.Err.Error()
	}
	// History is written even when the run is being canceled.
	if err := r.opts.Recorder.AppendJob(context.WithoutCancel(ctx), data); err != nil {
		r.log.Warn("record job event", zap.String("tier", job.Tier), zap.Error(err))
	}
}

func encoderStderr(err error) string {
	var failed *encoder.ErrEncoderFailed
	if errors.As(err, &failed) {
		return failed.Stderr
	}
	var timeout *encoder.ErrEncoderTimeout
	if errors.As(err, &timeout) {
		return timeout.Stderr
	}
	return ""
}

// tail returns at most the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
