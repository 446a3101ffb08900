package store

import (
	"context"
	"fmt"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// A zero CreatedSeq is replaced by one past the largest recorded value, so
// ListRuns returns runs in recording order.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, skeleton, data_hash, created_seq)
		VALUES (?, ?, ?, COALESCE(NULLIF(?, 0), (SELECT COALESCE(MAX(created_seq), 0) + 1 FROM runs)))
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Skeleton, run.DataHash, run.CreatedSeq)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteFrame inserts a frame record. A frame with the same (run_id, seq) is
// left untouched. The run must exist (foreign key constraint).
func (s *Store) WriteFrame(ctx context.Context, f Frame) error {
	input := f.Input
	if input == nil {
		input = []byte("{}")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO frames (run_id, seq, hash, input, snapshot)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, f.RunID, f.Seq, f.Hash, string(input), string(f.Snapshot))
	if err != nil {
		return fmt.Errorf("write frame %s/%d: %w", f.RunID, f.Seq, err)
	}
	return nil
}
