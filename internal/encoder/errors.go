package encoder

import (
	"fmt"
	"time"
)

// ErrEncoderNotFound indicates the encoder binary could not be located.
// No job can run without it.
type ErrEncoderNotFound struct {
	Binary string
	Err    error
}

func (e *ErrEncoderNotFound) Error() string {
	return fmt.Sprintf("encoder %q not found (install ffmpeg or set --ffmpeg): %v", e.Binary, e.Err)
}

func (e *ErrEncoderNotFound) Unwrap() error { return e.Err }

// ErrEncoderFailed indicates the encoder exited non-zero.
type ErrEncoderFailed struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ErrEncoderFailed) Error() string {
	msg := fmt.Sprintf("encoder exited with code %d", e.ExitCode)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *ErrEncoderFailed) Unwrap() error { return e.Err }

// ErrEncoderTimeout indicates the encoder was killed after exceeding its
// wall-clock budget.
type ErrEncoderTimeout struct {
	Timeout time.Duration
	Stderr  string
}

func (e *ErrEncoderTimeout) Error() string {
	return fmt.Sprintf("encoder timed out after %s", e.Timeout)
}
