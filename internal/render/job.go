// Package render runs one encode job per rarity tier.
package render

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/abhisek/celebrate/internal/compose"
	"github.com/abhisek/celebrate/internal/encoder"
	"github.com/abhisek/celebrate/internal/rarity"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Done reports whether the status is terminal.
func (s Status) Done() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Job is the rendering of one tier to one file.
type Job struct {
	ID      string
	Tier    string // as requested
	Profile rarity.Profile
	Output  string
	Video   compose.VideoParams
	Status  Status
	Err     error

	Layers    int
	Particles int
	Rays      int
	Elapsed   time.Duration
	Size      int64
}

// OutputName is the file name produced for a tier.
func OutputName(t rarity.Tier) string {
	return fmt.Sprintf("%s_celebration.mp4", t)
}

// OutputPath joins dir and the tier's file name.
func OutputPath(dir string, t rarity.Tier) string {
	return filepath.Join(dir, OutputName(t))
}

// Error kinds reported in history and summaries.
const (
	KindInvalidProfile  = "invalid_profile"
	KindEncoderNotFound = "encoder_not_found"
	KindEncoderFailed   = "encoder_failed"
	KindEncoderTimeout  = "encoder_timeout"
	KindCanceled        = "canceled"
	KindInternal        = "internal"
)

// Kind classifies err into one of the Kind* constants. A nil error has no
// kind.
func Kind(err error) string {
	var (
		notFound *encoder.ErrEncoderNotFound
		failed   *encoder.ErrEncoderFailed
		timeout  *encoder.ErrEncoderTimeout
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, rarity.ErrInvalidProfile):
		return KindInvalidProfile
	case errors.As(err, &notFound):
		return KindEncoderNotFound
	case errors.As(err, &timeout):
		return KindEncoderTimeout
	case errors.As(err, &failed):
		return KindEncoderFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
