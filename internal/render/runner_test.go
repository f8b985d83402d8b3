package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/celebrate/internal/compose"
	"github.com/abhisek/celebrate/internal/encoder"
	"github.com/abhisek/celebrate/internal/particles"
	"github.com/abhisek/celebrate/internal/rarity"
	"github.com/abhisek/celebrate/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memRecorder struct {
	mu     sync.Mutex
	events []store.JobEventData
	err    error
}

func (r *memRecorder) AppendJob(_ context.Context, data store.JobEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func (r *memRecorder) statuses(tier string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Tier == tier {
			out = append(out, e.Status)
		}
	}
	return out
}

func newTestRunner(t *testing.T, enc Encoder, mutate ...func(*Options)) (*Runner, Options) {
	t.Helper()
	opts := Options{
		OutputDir:  filepath.Join(t.TempDir(), "out"),
		Seed:       particles.DefaultSeed,
		Video:      compose.DefaultVideoParams(),
		Background: compose.Transparent,
		Parallel:   1,
		Encoder:    enc,
	}
	for _, m := range mutate {
		m(&opts)
	}
	r, err := NewRunner(opts)
	require.NoError(t, err)
	return r, opts
}

func TestRun_AllTiers(t *testing.T) {
	enc := &MockEncoder{}
	rec := &memRecorder{}
	r, opts := newTestRunner(t, enc, func(o *Options) { o.Recorder = rec })

	sum, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, sum.Jobs, 3)
	assert.True(t, sum.OK())
	assert.Equal(t, 3, sum.Succeeded())
	assert.NotEmpty(t, sum.RunID)

	wantLayers := map[string]int{"common": 31, "uncommon": 93, "rare": 149}
	for i, tier := range []string{"common", "uncommon", "rare"} {
		job := sum.Jobs[i]
		assert.Equal(t, tier, job.Tier)
		assert.Equal(t, StatusSucceeded, job.Status)
		assert.NoError(t, job.Err)
		assert.Equal(t, wantLayers[tier], job.Layers)
		assert.Equal(t, filepath.Join(opts.OutputDir, tier+"_celebration.mp4"), job.Output)
		assert.FileExists(t, job.Output)
		assert.Equal(t, int64(len("mock-mp4")), job.Size)
		assert.Equal(t, []string{"pending", "running", "succeeded"}, rec.statuses(tier))
	}

	require.Len(t, enc.Calls, 3)
	assert.Equal(t, rarity.TierCommon, enc.Calls[0].Tier)
	assert.Equal(t, rarity.TierRare, enc.Calls[2].Tier)
}

func TestRun_InvalidTierFailsBeforeEncoder(t *testing.T) {
	enc := &MockEncoder{}
	r, _ := newTestRunner(t, enc)

	sum, err := r.Run(context.Background(), []string{"epic"})
	require.NoError(t, err)
	require.Len(t, sum.Jobs, 1)

	job := sum.Jobs[0]
	assert.Equal(t, StatusFailed, job.Status)
	assert.ErrorIs(t, job.Err, rarity.ErrInvalidProfile)
	assert.Equal(t, KindInvalidProfile, Kind(job.Err))
	assert.Equal(t, 0, enc.CallCount())
	assert.False(t, sum.OK())
}

func TestRun_InvalidTierDoesNotBlockOthers(t *testing.T) {
	enc := &MockEncoder{}
	r, _ := newTestRunner(t, enc)

	sum, err := r.Run(context.Background(), []string{"common", "epic", "Rare"})
	require.NoError(t, err)
	require.Len(t, sum.Jobs, 3)

	assert.Equal(t, StatusSucceeded, sum.Jobs[0].Status)
	assert.Equal(t, StatusFailed, sum.Jobs[1].Status)
	assert.Equal(t, "epic", sum.Jobs[1].Tier)
	assert.Equal(t, StatusSucceeded, sum.Jobs[2].Status)
	assert.Equal(t, "rare", sum.Jobs[2].Tier)
	assert.Equal(t, 2, enc.CallCount())
	assert.Equal(t, 1, sum.Failed())
}

func TestRun_EncoderNotFoundAborts(t *testing.T) {
	notFound := &encoder.ErrEncoderNotFound{Binary: "ffmpeg", Err: errors.New("executable file not found in $PATH")}
	enc := &MockEncoder{LocateErr: notFound}
	var events []Event
	r, opts := newTestRunner(t, enc, func(o *Options) {
		o.Observer = func(e Event) { events = append(events, e) }
	})

	sum, err := r.Run(context.Background(), nil)
	var nf *encoder.ErrEncoderNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, KindEncoderNotFound, Kind(err))

	assert.Equal(t, 0, enc.CallCount())
	require.NotNil(t, sum)
	assert.Equal(t, 0, sum.Succeeded())
	for _, e := range events {
		assert.NotEqual(t, StatusSucceeded, e.Job.Status)
		assert.NotEqual(t, StatusRunning, e.Job.Status)
	}
	assert.NoDirExists(t, opts.OutputDir)
}

func TestRun_JobFailureIsScoped(t *testing.T) {
	enc := &MockEncoder{Errs: map[rarity.Tier]error{
		rarity.TierUncommon: &encoder.ErrEncoderFailed{ExitCode: 1, Stderr: "Invalid filter\n"},
	}}
	core, logs := observer.New(zapcore.InfoLevel)
	r, _ := newTestRunner(t, enc, func(o *Options) { o.Logger = zap.New(core) })

	sum, err := r.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, sum.Jobs[0].Status)
	assert.Equal(t, StatusFailed, sum.Jobs[1].Status)
	assert.Equal(t, KindEncoderFailed, Kind(sum.Jobs[1].Err))
	assert.Equal(t, StatusSucceeded, sum.Jobs[2].Status)
	assert.Equal(t, 3, enc.CallCount())

	failed := logs.FilterMessage("job failed").All()
	require.Len(t, failed, 1)
	fields := failed[0].ContextMap()
	assert.Equal(t, "uncommon", fields["tier"])
	assert.Equal(t, int64(93), fields["layers"])
	assert.Equal(t, "Invalid filter\n", fields["stderr"])
	assert.Contains(t, fields, "elapsed")

	assert.Len(t, logs.FilterMessage("job succeeded").All(), 2)
}

func TestRun_TimeoutKind(t *testing.T) {
	enc := &MockEncoder{Errs: map[rarity.Tier]error{
		rarity.TierRare: &encoder.ErrEncoderTimeout{Timeout: 90 * time.Second},
	}}
	rec := &memRecorder{}
	r, _ := newTestRunner(t, enc, func(o *Options) { o.Recorder = rec })

	sum, err := r.Run(context.Background(), []string{"rare"})
	require.NoError(t, err)
	assert.Equal(t, KindEncoderTimeout, Kind(sum.Jobs[0].Err))

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, "failed", last.Status)
	assert.Equal(t, KindEncoderTimeout, last.ErrorKind)
	assert.Contains(t, last.ErrorMessage, "timed out")
}

func TestRun_RecorderErrorDoesNotFailJob(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	r, _ := newTestRunner(t, &MockEncoder{}, func(o *Options) { o.Recorder = rec })

	sum, err := r.Run(context.Background(), []string{"common"})
	require.NoError(t, err)
	assert.True(t, sum.OK())
}

func TestRun_Parallel(t *testing.T) {
	enc := &MockEncoder{}
	var (
		mu     sync.Mutex
		events []Event
	)
	r, _ := newTestRunner(t, enc, func(o *Options) {
		o.Parallel = 3
		o.Observer = func(e Event) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		}
	})

	sum, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, sum.OK())
	assert.Equal(t, "common", sum.Jobs[0].Tier)
	assert.Equal(t, "uncommon", sum.Jobs[1].Tier)
	assert.Equal(t, "rare", sum.Jobs[2].Tier)
	assert.Len(t, events, 9)
}

// Each job seeds its own generator, so the batch order never changes a clip.
func TestRun_JobsIndependentOfOrder(t *testing.T) {
	seqEnc := &MockEncoder{}
	r, _ := newTestRunner(t, seqEnc)
	_, err := r.Run(context.Background(), []string{"common", "rare"})
	require.NoError(t, err)

	soloEnc := &MockEncoder{}
	r, _ = newTestRunner(t, soloEnc)
	_, err = r.Run(context.Background(), []string{"rare"})
	require.NoError(t, err)

	assert.Equal(t, soloEnc.Calls[0].Graph.FilterComplex(), seqEnc.Calls[1].Graph.FilterComplex())
}

func TestRun_Canceled(t *testing.T) {
	enc := &MockEncoder{Block: true}
	r, _ := newTestRunner(t, enc)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	sum, err := r.Run(ctx, nil)
	require.NoError(t, err)
	for _, job := range sum.Jobs {
		assert.Equal(t, StatusFailed, job.Status)
		assert.Equal(t, KindCanceled, Kind(job.Err))
	}
	assert.Equal(t, 1, enc.CallCount())
}

func TestRun_CustomVideoAndBackground(t *testing.T) {
	enc := &MockEncoder{}
	bg, err := compose.ParseBackground("#000000")
	require.NoError(t, err)
	video := compose.VideoParams{Width: 400, Height: 400, FPS: 24, Duration: time.Second}
	r, _ := newTestRunner(t, enc, func(o *Options) {
		o.Video = video
		o.Background = bg
	})

	sum, err := r.Run(context.Background(), []string{"common"})
	require.NoError(t, err)
	require.True(t, sum.OK())

	g := enc.Calls[0].Graph
	assert.Equal(t, video, g.Params)
	assert.False(t, g.Background.IsTransparent())
}

func TestRun_OutputDirUnwritable(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	r, _ := newTestRunner(t, &MockEncoder{}, func(o *Options) { o.OutputDir = filepath.Join(blocker, "out") })
	_, err := r.Run(context.Background(), []string{"common"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create output dir")
}

func TestNewRunner_Rejects(t *testing.T) {
	_, err := NewRunner(Options{OutputDir: "x", Video: compose.DefaultVideoParams()})
	assert.Error(t, err)

	_, err = NewRunner(Options{Encoder: &MockEncoder{}, Video: compose.DefaultVideoParams()})
	assert.Error(t, err)

	_, err = NewRunner(Options{Encoder: &MockEncoder{}, OutputDir: "x"})
	assert.Error(t, err)
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{rarity.ErrInvalidProfile, KindInvalidProfile},
		{&encoder.ErrEncoderNotFound{Binary: "ffmpeg"}, KindEncoderNotFound},
		{&encoder.ErrEncoderFailed{ExitCode: 1}, KindEncoderFailed},
		{&encoder.ErrEncoderTimeout{Timeout: time.Second}, KindEncoderTimeout},
		{context.Canceled, KindCanceled},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err))
	}
}

func TestStatusDone(t *testing.T) {
	assert.False(t, StatusPending.Done())
	assert.False(t, StatusRunning.Done())
	assert.True(t, StatusSucceeded.Done())
	assert.True(t, StatusFailed.Done())
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail("abc", 5))
	assert.Equal(t, "cde", tail("abcde", 3))
}
