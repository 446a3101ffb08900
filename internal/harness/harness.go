package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/skelpose/internal/compiler"
	"github.com/roach88/skelpose/internal/engine"
	"github.com/roach88/skelpose/internal/pose"
	"github.com/roach88/skelpose/internal/store"
	"github.com/roach88/skelpose/internal/testutil"
)

// Harness evaluates one scenario with a deterministic clock, a fixed run ID
// and an isolated in-memory store.
type Harness struct {
	store  *store.Store
	runner *engine.Runner
	def    *compiler.Definition
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load and validate the CUE skeleton definitions
//  2. Create a fresh in-memory store and a runner recording into it
//  3. Step every frame and build the trace
//  4. Replay the recorded run and compare hashes
//  5. Evaluate the assertions
//
// An error is returned when the scenario cannot be evaluated at all: the
// definitions fail to load or a frame is rejected. Failed assertions and
// replay mismatches are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	loaded, errs := compiler.LoadDir(scenario.Skeletons, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load skeletons: %w", errors.Join(errs...))
	}
	def := loaded.Find(scenario.Skeleton)
	if def == nil {
		return nil, fmt.Errorf("skeleton %q not found in %s (have %v)", scenario.Skeleton, scenario.Skeletons, loaded.Names())
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner, err := engine.NewRunner(def.Data,
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithRunIDGenerator(testutil.NewFixedRunGenerator(scenario.RunID)),
		engine.WithSink(st),
		engine.WithLogger(logger),
		engine.WithSkeletonOptions(def.Options()...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	h := &Harness{store: st, runner: runner, def: def, logger: logger}

	result := NewResult()
	result.RunID = runner.RunID()
	if err := h.executeFrames(ctx, scenario.Frames, result); err != nil {
		return nil, err
	}
	if err := h.verifyReplay(ctx, result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeFrames steps every frame and appends its pose to the trace.
func (h *Harness) executeFrames(ctx context.Context, frames []engine.Frame, result *Result) error {
	for i, f := range frames {
		res, err := h.runner.Step(ctx, f)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
		result.Trace = append(result.Trace, traceFrame(h.runner.Skeleton(), res))
		h.logger.Info("frame completed", "frame", i+1, "seq", res.Seq, "hash", res.Hash)
	}
	return nil
}

// verifyReplay reads the recorded run back and re-evaluates it.
func (h *Harness) verifyReplay(ctx context.Context, result *Result) error {
	run, err := h.store.ReadRun(ctx, result.RunID)
	if err != nil {
		return fmt.Errorf("failed to read recorded run: %w", err)
	}
	recorded, err := h.store.ReadFrames(ctx, result.RunID)
	if err != nil {
		return fmt.Errorf("failed to read recorded frames: %w", err)
	}
	if len(recorded) != len(result.Trace) {
		result.AddError(fmt.Sprintf("recorded %d frames, evaluated %d", len(recorded), len(result.Trace)))
	}

	rep, err := engine.Replay(ctx, h.def.Data, run, recorded,
		engine.WithLogger(h.logger),
		engine.WithSkeletonOptions(h.def.Options()...),
	)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	for _, m := range rep.Mismatches {
		result.AddError(fmt.Sprintf("replay of seq %d produced %s, recorded %s", m.Seq, m.Actual, m.Expected))
	}
	return nil
}

// traceFrame summarizes the skeleton's world pose after a step.
func traceFrame(s *pose.Skeleton, res engine.FrameResult) TraceFrame {
	bones := s.Bones()
	tf := TraceFrame{
		Seq:   res.Seq,
		Hash:  res.Hash,
		Bones: make([]TraceBone, len(bones)),
	}
	for i := range bones {
		b := s.Bone(i)
		tipX, tipY := b.Tip()
		tf.Bones[i] = TraceBone{
			Name:     b.Name(),
			X:        b.World.X,
			Y:        b.World.Y,
			Rotation: b.WorldRotationX(),
			Scale:    b.WorldScaleX(),
			TipX:     tipX,
			TipY:     tipY,
		}
	}
	return tf
}
