package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// jobRepo implements JobRepo with raw SQL and the global sequence counter.
type jobRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *jobRepo) AppendJob(ctx context.Context, data JobEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO render_job_events
		(sequence, timestamp_ms, run_id, job_id, tier, status, output, layers, elapsed_ms, size_bytes, error_kind, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum,
		time.Now().UTC().UnixMilli(),
		data.RunID,
		data.JobID,
		data.Tier,
		data.Status,
		data.Output,
		data.Layers,
		data.ElapsedMs,
		data.SizeBytes,
		data.ErrorKind,
		data.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("save job event: %w", err)
	}
	return nil
}

func (r *jobRepo) Recent(ctx context.Context, opts QueryOpts) ([]JobEvent, error) {
	var (
		where []string
		args  []any
	)
	if opts.Tier != "" {
		where = append(where, "tier = ?")
		args = append(args, opts.Tier)
	}
	if opts.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, opts.RunID)
	}
	if !opts.From.IsZero() {
		where = append(where, "timestamp_ms >= ?")
		args = append(args, opts.From.UTC().UnixMilli())
	}

	q := `SELECT id, sequence, timestamp_ms, run_id, job_id, tier, status, output,
		layers, elapsed_ms, size_bytes, error_kind, error_message FROM render_job_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY sequence DESC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query job events: %w", err)
	}
	defer rows.Close()

	var out []JobEvent
	for rows.Next() {
		var (
			ev JobEvent
			ms int64
		)
		err := rows.Scan(&ev.ID, &ev.Sequence, &ms, &ev.RunID, &ev.JobID, &ev.Tier, &ev.Status,
			&ev.Output, &ev.Layers, &ev.ElapsedMs, &ev.SizeBytes, &ev.ErrorKind, &ev.ErrorMessage)
		if err != nil {
			return nil, fmt.Errorf("scan job event: %w", err)
		}
		ev.Timestamp = time.UnixMilli(ms).UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job events: %w", err)
	}
	return out, nil
}

func (r *jobRepo) Prune(ctx context.Context, keep int) error {
	// Find the sequence threshold: the Nth most recent event.
	var threshold int64
	err := r.db.QueryRowContext(ctx,
		`SELECT sequence FROM render_job_events ORDER BY sequence DESC LIMIT 1 OFFSET ?`, keep,
	).Scan(&threshold)
	if err == sql.ErrNoRows {
		return nil // fewer than keep events exist
	}
	if err != nil {
		return fmt.Errorf("query events for prune: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM render_job_events WHERE sequence <= ?`, threshold); err != nil {
		return fmt.Errorf("prune job events: %w", err)
	}
	return nil
}
