package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/skelpose/internal/pose"
	"github.com/roach88/skelpose/internal/snapshot"
	"github.com/roach88/skelpose/internal/store"
)

// FrameSink receives the runs and frames a Runner evaluates. *store.Store
// satisfies it.
type FrameSink interface {
	WriteRun(ctx context.Context, run store.Run) error
	WriteFrame(ctx context.Context, f store.Frame) error
}

var _ FrameSink = (*store.Store)(nil)

// ErrRunAborted marks a Step that could not snapshot or record a frame it
// had already applied. The skeleton then holds inputs the recording never
// saw, so the Runner refuses further frames and Serve returns.
var ErrRunAborted = errors.New("run aborted")

// FrameResult is the outcome of one Step.
type FrameResult struct {
	Seq       int64
	Hash      string
	Snapshot  snapshot.Snapshot
	Canonical []byte
}

// Runner evaluates frames against one skeleton instance.
//
// Step is serialized by an internal mutex, so a Runner may be shared, but
// the frame order is only deterministic when frames come from one goroutine
// or through Enqueue and Serve.
type Runner struct {
	mu sync.Mutex

	skel     *pose.Skeleton
	name     string
	dataHash string
	runID    string

	clock  FrameClock
	sink   FrameSink
	logger *slog.Logger
	queue  *frameQueue

	recorded bool
	aborted  error
}

type config struct {
	clock    FrameClock
	ids      RunIDGenerator
	sink     FrameSink
	logger   *slog.Logger
	skelOpts []pose.Option
}

// Option configures a Runner.
type Option func(*config)

// WithClock replaces the default logical clock.
func WithClock(c FrameClock) Option {
	return func(cfg *config) { cfg.clock = c }
}

// WithRunIDGenerator replaces the default UUIDv7 run IDs.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(cfg *config) { cfg.ids = g }
}

// WithSink records every run and frame.
func WithSink(s FrameSink) Option {
	return func(cfg *config) { cfg.sink = s }
}

// WithLogger sets the runner's logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithSkeletonOptions passes placement options to pose.NewSkeleton.
func WithSkeletonOptions(opts ...pose.Option) Option {
	return func(cfg *config) { cfg.skelOpts = append(cfg.skelOpts, opts...) }
}

// NewRunner instantiates data and prepares a new run.
//
// The skeleton is built with pose.NewSkeleton and posed in its setup pose.
// The run ID is drawn once from the configured generator (UUIDv7 by
// default) and the data hash is computed from the canonical definition, so
// two runners over the same definition share a DataHash. Nothing is written
// to the sink until the first successful Step.
func NewRunner(data *pose.SkeletonData, opts ...Option) (*Runner, error) {
	cfg := config{
		clock:  NewClock(),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	skel, err := pose.NewSkeleton(data, cfg.skelOpts...)
	if err != nil {
		return nil, fmt.Errorf("new runner: %w", err)
	}
	dataHash, err := snapshot.DataHash(data)
	if err != nil {
		return nil, fmt.Errorf("new runner: %w", err)
	}

	r := &Runner{
		skel:     skel,
		name:     data.Name,
		dataHash: dataHash,
		runID:    cfg.ids.Generate(),
		clock:    cfg.clock,
		sink:     cfg.sink,
		queue:    newFrameQueue(),
	}
	r.logger = cfg.logger.With(slog.String("run", r.runID), slog.String("skeleton", r.name))
	return r, nil
}

// RunID returns the run identifier.
func (r *Runner) RunID() string { return r.runID }

// DataHash returns the content hash of the skeleton definition.
func (r *Runner) DataHash() string { return r.dataHash }

// Skeleton returns the evaluated instance. Callers must not use it while a
// Step is in flight.
func (r *Runner) Skeleton() *pose.Skeleton { return r.skel }

// Step applies f, evaluates the pose and records it.
//
// Every name and value in f is checked before anything is applied; an
// invalid frame returns a *RuntimeError and leaves the skeleton and clock
// untouched. A cancelled context returns ctx.Err() before evaluating.
//
// A valid frame is applied, evaluated and then stamped with the clock's next
// seq. If the snapshot cannot be encoded or the sink rejects the run or the
// frame, the error wraps ErrRunAborted and every later Step fails with it.
// The recording then holds a clean prefix of the run that replays exactly.
func (r *Runner) Step(ctx context.Context, f Frame) (FrameResult, error) {
	if err := ctx.Err(); err != nil {
		return FrameResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.aborted != nil {
		return FrameResult{}, r.aborted
	}

	rf, err := resolve(f, r.skel)
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) {
			re.RunID = r.runID
		}
		return FrameResult{}, err
	}
	rf.apply(r.skel)
	r.skel.UpdateWorldTransform()

	seq := r.clock.Next()
	snap := snapshot.FromSkeleton(r.name, seq, r.skel)
	canonical, err := snapshot.MarshalCanonical(snap)
	if err != nil {
		return FrameResult{}, r.abort(fmt.Errorf("step %d: %w", seq, err))
	}
	res := FrameResult{
		Seq:       seq,
		Hash:      snapshot.HashCanonical(canonical),
		Snapshot:  snap,
		Canonical: canonical,
	}
	r.logger.Debug("frame evaluated", slog.Int64("seq", seq), slog.String("hash", res.Hash))

	if r.sink != nil {
		if err := r.record(ctx, f, res); err != nil {
			return res, r.abort(err)
		}
	}
	return res, nil
}

func (r *Runner) abort(err error) error {
	r.aborted = fmt.Errorf("%w: %w", ErrRunAborted, err)
	r.logger.Error("run aborted", slog.Any("error", err))
	return r.aborted
}

// record writes the run on the first frame and then the frame itself.
func (r *Runner) record(ctx context.Context, f Frame, res FrameResult) error {
	if !r.recorded {
		err := r.sink.WriteRun(ctx, store.Run{ID: r.runID, Skeleton: r.name, DataHash: r.dataHash})
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		r.recorded = true
	}
	input, err := MarshalFrame(f)
	if err != nil {
		return err
	}
	err = r.sink.WriteFrame(ctx, store.Frame{
		RunID:    r.runID,
		Seq:      res.Seq,
		Hash:     res.Hash,
		Input:    input,
		Snapshot: res.Canonical,
	})
	if err != nil {
		return fmt.Errorf("record frame %d: %w", res.Seq, err)
	}
	return nil
}

// Run steps each frame in order and stops at the first error.
func (r *Runner) Run(ctx context.Context, frames []Frame) ([]FrameResult, error) {
	r.logger.Info("run starting", slog.Int("frames", len(frames)))
	results := make([]FrameResult, 0, len(frames))
	for i, f := range frames {
		res, err := r.Step(ctx, f)
		if err != nil {
			r.logger.Info("run stopped", slog.Int("frame", i), slog.Any("error", err))
			return results, fmt.Errorf("frame %d: %w", i, err)
		}
		results = append(results, res)
	}
	r.logger.Info("run finished", slog.Int("frames", len(results)))
	return results, nil
}

// Enqueue hands f to Serve. It may be called from any goroutine and returns
// false after Close.
func (r *Runner) Enqueue(f Frame) bool {
	return r.queue.Enqueue(f)
}

// Close stops accepting frames. Serve returns once the queued frames are
// evaluated.
func (r *Runner) Close() {
	r.queue.Close()
}

// Serve is the single-writer loop: it steps queued frames in arrival order
// until Close drains the queue or ctx is cancelled. A rejected frame is
// logged and reported to handle but does not stop the loop. An
// ErrRunAborted failure is reported to handle and then returned, leaving
// any remaining frames queued. handle may be nil.
func (r *Runner) Serve(ctx context.Context, handle func(FrameResult, error)) error {
	r.logger.Info("runner serving")
	defer r.logger.Info("runner stopped")

	for {
		if f, ok := r.queue.TryDequeue(); ok {
			res, err := r.Step(ctx, f)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Error("frame failed", slog.Any("error", err))
			}
			if handle != nil {
				handle(res, err)
			}
			if errors.Is(err, ErrRunAborted) {
				return err
			}
			continue
		}
		if r.queue.Drained() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.queue.Wait():
		}
	}
}
