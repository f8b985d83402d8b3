package store

import (
	"context"
	"time"
)

// QueryOpts configures history queries with filtering and pagination.
type QueryOpts struct {
	Limit int    // max results (0 = unlimited)
	Tier  string // exact tier match ("" = all)
	RunID string // exact run match ("" = all)
	From  time.Time
}

// JobEventData captures one status transition of a render job.
type JobEventData struct {
	RunID        string
	JobID        string
	Tier         string
	Status       string
	Output       string
	Layers       int
	ElapsedMs    int64
	SizeBytes    int64
	ErrorKind    string
	ErrorMessage string
}

// JobEvent is a recorded transition.
type JobEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	JobEventData
}

// JobRepo provides append and query access to render history.
type JobRepo interface {
	// AppendJob records a job status transition.
	AppendJob(ctx context.Context, data JobEventData) error

	// Recent returns events newest first.
	Recent(ctx context.Context, opts QueryOpts) ([]JobEvent, error)

	// Prune deletes all but the N most recent events.
	Prune(ctx context.Context, keep int) error
}
