package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/celebrate/internal/compose"
)

const (
	DefaultBinary  = "ffmpeg"
	DefaultTimeout = 90 * time.Second
	DefaultCRF     = 18
	DefaultPreset  = "fast"

	defaultMaxOutput = 64 << 10
	defaultWaitDelay = 2 * time.Second
)

// Result describes a finished encode.
type Result struct {
	Output  string
	Args    []string
	Elapsed time.Duration
	Size    int64
	Stderr  string
}

// FFmpeg drives the ffmpeg binary as a subprocess.
type FFmpeg struct {
	binary    string
	timeout   time.Duration
	waitDelay time.Duration
	maxOutput int64
	crf       int
	preset    string
	logger    *zap.Logger
}

// Option configures an FFmpeg encoder.
type Option func(*FFmpeg)

// WithBinary sets the binary name (resolved through PATH) or path.
func WithBinary(bin string) Option {
	return func(f *FFmpeg) {
		if bin != "" {
			f.binary = bin
		}
	}
}

// WithTimeout bounds the wall-clock time of a single encode.
func WithTimeout(d time.Duration) Option {
	return func(f *FFmpeg) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithQuality overrides the x264 constant rate factor and preset.
func WithQuality(crf int, preset string) Option {
	return func(f *FFmpeg) {
		f.crf = crf
		if preset != "" {
			f.preset = preset
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(f *FFmpeg) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates an encoder with defaults overridden by opts.
func New(opts ...Option) *FFmpeg {
	f := &FFmpeg{
		binary:    DefaultBinary,
		timeout:   DefaultTimeout,
		waitDelay: defaultWaitDelay,
		maxOutput: defaultMaxOutput,
		crf:       DefaultCRF,
		preset:    DefaultPreset,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Timeout returns the per-encode wall-clock budget.
func (f *FFmpeg) Timeout() time.Duration {
	return f.timeout
}

// Locate resolves the binary to an executable path.
func (f *FFmpeg) Locate() (string, error) {
	path, err := exec.LookPath(f.binary)
	if err != nil {
		return "", &ErrEncoderNotFound{Binary: f.binary, Err: err}
	}
	return path, nil
}

// Args returns the ffmpeg arguments that render g into output.
func (f *FFmpeg) Args(g *compose.Graph, output string) []string {
	v := g.Params
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-filter_complex", g.FilterComplex(),
		"-map", "[" + g.Output() + "]",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-crf", strconv.Itoa(f.crf),
		"-preset", f.preset,
		"-movflags", "+faststart",
		"-r", strconv.Itoa(v.FPS),
		"-t", v.Seconds(),
		output,
	}
}

// Encode renders g into output. The process is killed when ctx is done or
// the timeout elapses; Encode does not return before it has exited.
func (f *FFmpeg) Encode(ctx context.Context, g *compose.Graph, output string) (*Result, error) {
	bin, err := f.Locate()
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	args := f.Args(g, output)
	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.WaitDelay = f.waitDelay

	var stdoutBuf, stderrBuf bytes.Buffer
	stderr := &limitedWriter{w: &stderrBuf, max: f.maxOutput}
	cmd.Stdout = &limitedWriter{w: &stdoutBuf, max: f.maxOutput}
	cmd.Stderr = stderr

	f.logger.Debug("starting encoder",
		zap.String("binary", bin),
		zap.String("tier", string(g.Tier)),
		zap.Int("layers", g.LayerCount()),
		zap.String("output", output),
		zap.Duration("timeout", f.timeout))

	start := time.Now()
	err = cmd.Run()
	res := &Result{
		Output:  output,
		Args:    args,
		Elapsed: time.Since(start),
		Stderr:  stderrBuf.String(),
	}
	if stderr.truncated {
		f.logger.Warn("encoder stderr truncated", zap.Int64("discarded_bytes", stderr.discarded))
	}

	if err != nil {
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			return res, &ErrEncoderTimeout{Timeout: f.timeout, Stderr: res.Stderr}
		case ctx.Err() != nil:
			return res, fmt.Errorf("encode canceled: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, &ErrEncoderFailed{ExitCode: exitErr.ExitCode(), Stderr: res.Stderr, Err: err}
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return res, &ErrEncoderNotFound{Binary: f.binary, Err: err}
		}
		return res, fmt.Errorf("run encoder: %w", err)
	}

	fi, err := os.Stat(output)
	if err != nil {
		return res, fmt.Errorf("encoder exited 0 but output is missing: %w", err)
	}
	res.Size = fi.Size()

	f.logger.Debug("encoder finished",
		zap.String("output", output),
		zap.Duration("elapsed", res.Elapsed),
		zap.Int64("bytes", res.Size))
	return res, nil
}

// limitedWriter keeps the first max bytes and discards the rest.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}

// lastLine returns the last non-blank line of s, trimmed.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
