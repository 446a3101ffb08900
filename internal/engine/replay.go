package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/skelpose/internal/pose"
	"github.com/roach88/skelpose/internal/store"
)

// Mismatch is a recorded frame whose re-evaluation differs.
type Mismatch struct {
	Seq      int64  `json:"seq"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// ReplayResult summarizes a replay.
type ReplayResult struct {
	RunID string

	// DataChanged reports that the skeleton definition no longer hashes to
	// the recorded DataHash. Mismatches are expected in that case.
	DataChanged bool

	Frames     int
	Mismatches []Mismatch
}

// OK reports whether every frame reproduced its recorded hash.
func (r *ReplayResult) OK() bool {
	return !r.DataChanged && len(r.Mismatches) == 0
}

// Replay re-evaluates the recorded frames of run against data and compares
// the hashes. Frames must be in seq order, as store.ReadFrames returns
// them. The replaying runner never records.
func Replay(ctx context.Context, data *pose.SkeletonData, run store.Run, frames []store.Frame, opts ...Option) (*ReplayResult, error) {
	var start int64
	if len(frames) > 0 {
		start = frames[0].Seq - 1
	}
	opts = append(opts,
		WithClock(NewClockAt(start)),
		WithRunIDGenerator(NewFixedGenerator(run.ID)),
		WithSink(nil),
	)
	r, err := NewRunner(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", run.ID, err)
	}

	result := &ReplayResult{
		RunID:       run.ID,
		DataChanged: run.DataHash != "" && run.DataHash != r.DataHash(),
	}
	for _, rec := range frames {
		f, err := UnmarshalFrame(rec.Input)
		if err != nil {
			return result, fmt.Errorf("replay %s frame %d: %w", run.ID, rec.Seq, err)
		}
		res, err := r.Step(ctx, f)
		if err != nil {
			return result, fmt.Errorf("replay %s frame %d: %w", run.ID, rec.Seq, err)
		}
		result.Frames++
		if res.Seq != rec.Seq || res.Hash != rec.Hash {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Seq:      rec.Seq,
				Expected: rec.Hash,
				Actual:   res.Hash,
			})
		}
	}

	r.logger.Info("replay finished",
		slog.Int("frames", result.Frames),
		slog.Int("mismatches", len(result.Mismatches)),
		slog.Bool("data_changed", result.DataChanged),
	)
	return result, nil
}
