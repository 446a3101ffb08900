package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/skelpose/internal/compiler"
	"github.com/roach88/skelpose/internal/engine"
	"github.com/roach88/skelpose/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	Skeletons string
	RunID     string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID       string            `json:"run_id"`
	Skeleton    string            `json:"skeleton"`
	Frames      int               `json:"frames"`
	DataChanged bool              `json:"data_changed"`
	Mismatches  []engine.Mismatch `json:"mismatches,omitempty"`
	Error       string            `json:"error,omitempty"`
	OK          bool              `json:"ok"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs  []ReplayRunResult `json:"runs"`
	Total int               `json:"total"`
	OK    bool              `json:"ok"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-evaluate recorded runs and compare pose hashes",
		Long: `Re-evaluate every recorded frame against the current skeleton
definitions and compare the resulting pose hashes with the recorded ones.

A run whose skeleton definition changed since it was recorded is reported
as such; its mismatches are expected.

Exit codes:
  0 - Every run reproduced its recorded hashes
  1 - A run diverged, its skeleton changed or is missing
  2 - Command error (database not found, etc.)

Examples:
  skelpose replay --db poses.db --skeletons ./skeletons
  skelpose replay --db poses.db --skeletons ./skeletons --run 0192...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Skeletons, "skeletons", "", "skeleton definitions directory (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay a specific run only")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("skeletons")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, errs := compiler.LoadDir(opts.Skeletons, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return WrapExitError(ExitCommandError, "failed to load skeletons", errs[0])
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run %q not found", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:  make([]ReplayRunResult, 0, len(runs)),
		Total: len(runs),
		OK:    true,
	}
	for _, run := range runs {
		out.VerboseLog("replaying run %s (%s)", run.ID, run.Skeleton)
		rr, err := replayRun(ctx, st, loaded, run)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		result.Runs = append(result.Runs, rr)
		result.OK = result.OK && rr.OK
	}

	if out.JSON() {
		var cliErr *CLIError
		if !result.OK {
			cliErr = &CLIError{Code: "E_REPLAY_DIVERGED", Message: "one or more runs did not reproduce"}
		}
		if err := out.Result(result.OK, result, cliErr); err != nil {
			return err
		}
	} else {
		printReplay(out, result)
	}

	if !result.OK {
		return NewExitError(ExitFailure, "replay diverged")
	}
	return nil
}

// replayRun replays one run. Problems with the run itself end up in the
// result; only store failures are returned as errors.
func replayRun(ctx context.Context, st *store.Store, loaded *compiler.LoadResult, run store.Run) (ReplayRunResult, error) {
	rr := ReplayRunResult{RunID: run.ID, Skeleton: run.Skeleton}

	frames, err := st.ReadFrames(ctx, run.ID)
	if err != nil {
		return rr, err
	}

	def := loaded.Find(run.Skeleton)
	if def == nil {
		rr.Error = fmt.Sprintf("skeleton %q not found", run.Skeleton)
		return rr, nil
	}

	res, err := engine.Replay(ctx, def.Data, run, frames,
		engine.WithSkeletonOptions(def.Options()...),
		engine.WithLogger(slog.Default()),
	)
	if res != nil {
		rr.Frames = res.Frames
		rr.DataChanged = res.DataChanged
		rr.Mismatches = res.Mismatches
	}
	if err != nil {
		rr.Error = err.Error()
		return rr, nil
	}
	rr.OK = res.OK()
	return rr, nil
}

func printReplay(out *OutputFormatter, r ReplayResult) {
	w := out.Writer
	if r.Total == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return
	}
	for _, rr := range r.Runs {
		mark := "✓"
		if !rr.OK {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s (%s): %d frame(s)", mark, rr.RunID, rr.Skeleton, rr.Frames)
		switch {
		case rr.Error != "":
			fmt.Fprintf(w, ", %s", rr.Error)
		case rr.DataChanged:
			fmt.Fprintf(w, ", skeleton definition changed")
		}
		if len(rr.Mismatches) > 0 {
			fmt.Fprintf(w, ", %d mismatch(es)", len(rr.Mismatches))
		}
		fmt.Fprintln(w)
		if out.Verbose {
			for _, m := range rr.Mismatches {
				fmt.Fprintf(w, "    seq %d: recorded %s, got %s\n", m.Seq, m.Expected, m.Actual)
			}
		}
	}
	if r.OK {
		fmt.Fprintf(w, "✓ %d run(s) reproduced\n", r.Total)
	}
}
