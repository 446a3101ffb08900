package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/skelpose/internal/engine"
	"github.com/roach88/skelpose/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Skeleton string
	Input    string // "-" or empty reads stdin

	// IDGenerator overrides run ID generation (for testing). If nil,
	// defaults to UUIDv7Generator.
	IDGenerator engine.RunIDGenerator
}

// FrameLine is one line of run output.
type FrameLine struct {
	Line  int    `json:"line"`
	Seq   int64  `json:"seq,omitempty"`
	Hash  string `json:"hash,omitempty"`
	Error string `json:"error,omitempty"`
}

// RunSummary is the last line of run output in JSON mode.
type RunSummary struct {
	RunID    string `json:"run_id"`
	Skeleton string `json:"skeleton"`
	Recorded int64  `json:"recorded"`
	Failed   int64  `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <skeletons-dir>",
		Short: "Evaluate a stream of frames and record them",
		Long: `Evaluate frames read one JSON object per line and record every
evaluated pose in a SQLite database for later replay.

A frame may set bone locals, move target bones, change IK settings and
reset to the setup pose:

  {"targets":{"target":{"x":120,"y":40}},"constraints":{"reach":{"mix":0.5}}}
  {"locals":{"upper":{"rotation":30}}}
  {"setup":true}

Each evaluated frame prints its sequence number and pose hash. Invalid
frames are reported and skipped.

Example:
  skelpose run ./skeletons --skeleton arm --db poses.db < frames.jsonl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrames(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Skeleton, "skeleton", "", "skeleton name (optional when the directory defines one)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "-", "frames file, one JSON frame per line")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runFrames(opts *RunOptions, dir string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	def, err := loadDefinition(dir, opts.Skeleton)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(opts.Input, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer closeIn()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Error("closing database", slog.Any("error", cerr))
		}
	}()

	ids := opts.IDGenerator
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	runner, err := engine.NewRunner(def.Data,
		engine.WithRunIDGenerator(ids),
		engine.WithSink(st),
		engine.WithLogger(slog.Default()),
		engine.WithSkeletonOptions(def.Options()...),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create runner", err)
	}
	out.VerboseLog("run %s: skeleton %s, db %s", runner.RunID(), def.Data.Name, opts.Database)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Output lines come from the reader (decode errors) and from the serve
	// loop (results). pending carries input line numbers in queue order.
	var (
		lines    = make(chan FrameLine, 16)
		pending  = make(chan int, 1024)
		failed   atomic.Int64
		recorded atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer runner.Close()
		defer close(pending)
		return readFrames(gctx, in, func(n int, f engine.Frame) bool {
			select {
			case pending <- n:
			case <-gctx.Done():
				return false
			}
			return runner.Enqueue(f)
		}, func(n int, err error) {
			failed.Add(1)
			lines <- FrameLine{Line: n, Error: err.Error()}
		})
	})
	g.Go(func() error {
		return runner.Serve(gctx, func(res engine.FrameResult, err error) {
			n := <-pending
			if err != nil {
				failed.Add(1)
				lines <- FrameLine{Line: n, Error: err.Error()}
				return
			}
			recorded.Add(1)
			lines <- FrameLine{Line: n, Seq: res.Seq, Hash: res.Hash}
		})
	})

	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for l := range lines {
			printFrameLine(out, l)
		}
	}()

	err = g.Wait()
	close(lines)
	<-printed

	sum := RunSummary{RunID: runner.RunID(), Skeleton: def.Data.Name, Recorded: recorded.Load(), Failed: failed.Load()}
	summary := fmt.Sprintf("run %s: %d frame(s) recorded, %d failed", sum.RunID, sum.Recorded, sum.Failed)
	if err != nil {
		if ctx.Err() != nil {
			slog.Info("run interrupted", slog.String("run", runner.RunID()))
			fmt.Fprintln(out.errWriter(), summary+" (interrupted)")
			return nil
		}
		return WrapExitError(ExitCommandError, "run failed", err)
	}
	if out.JSON() {
		if err := out.encodeLine(sum); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out.Writer, summary)
	}
	if sum.Failed > 0 {
		return NewExitError(ExitFailure, summary)
	}
	return nil
}

// readFrames decodes one frame per non-blank line. Decode failures go to
// bad and reading continues; enqueue returning false stops reading.
func readFrames(ctx context.Context, r io.Reader, enqueue func(int, engine.Frame) bool, bad func(int, error)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f, err := engine.UnmarshalFrame([]byte(line))
		if err != nil {
			bad(n, err)
			continue
		}
		if !enqueue(n, f) {
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading frames: %w", err)
	}
	return nil
}

func printFrameLine(out *OutputFormatter, l FrameLine) {
	if out.JSON() {
		_ = out.encodeLine(l)
		return
	}
	if l.Error != "" {
		fmt.Fprintf(out.Writer, "✗ line %d: %s\n", l.Line, l.Error)
		return
	}
	fmt.Fprintf(out.Writer, "%6d  %s\n", l.Seq, l.Hash)
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
