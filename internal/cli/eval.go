package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/skelpose/internal/engine"
	"github.com/roach88/skelpose/internal/pose"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	FrameFlags
	Skeleton string
}

// BoneRow is one bone of an evaluated pose.
type BoneRow struct {
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scale_x"`
	ScaleY   float64 `json:"scale_y"`
	TipX     float64 `json:"tip_x"`
	TipY     float64 `json:"tip_y"`
}

// EvalResult is the evaluated pose of one frame.
type EvalResult struct {
	Skeleton string    `json:"skeleton"`
	Hash     string    `json:"hash"`
	Bones    []BoneRow `json:"bones"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <skeletons-dir>",
		Short: "Evaluate one pose and print bone world transforms",
		Long: `Instantiate a skeleton, apply the pose inputs given as flags and
print every bone's world position, rotation, scale and tip.

Examples:
  skelpose eval ./skeletons --skeleton arm --target target=120,40
  skelpose eval ./skeletons --skeleton arm --target target=0,150 --bend reach=-1
  skelpose eval ./skeletons --skeleton arm --rotate upper=30 --mix reach=0`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Skeleton, "skeleton", "", "skeleton name (optional when the directory defines one)")
	opts.FrameFlags.register(cmd)

	return cmd
}

func runEval(opts *EvalOptions, dir string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	frame, err := opts.Frame()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid pose flags", err)
	}
	def, err := loadDefinition(dir, opts.Skeleton)
	if err != nil {
		return err
	}

	runner, err := engine.NewRunner(def.Data,
		engine.WithRunIDGenerator(engine.NewFixedGenerator("eval")),
		engine.WithSkeletonOptions(def.Options()...),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to instantiate skeleton", err)
	}
	res, err := runner.Step(commandContext(cmd), frame)
	if err != nil {
		if engine.IsUnknownNameError(err) || engine.IsInvalidFrameError(err) {
			return WrapExitError(ExitCommandError, "invalid pose flags", err)
		}
		return WrapExitError(ExitFailure, "evaluation failed", err)
	}

	result := EvalResult{
		Skeleton: def.Data.Name,
		Hash:     res.Hash,
		Bones:    boneRows(runner.Skeleton()),
	}
	if out.JSON() {
		return out.Success(result)
	}
	return printEval(out.Writer, result)
}

func boneRows(s *pose.Skeleton) []BoneRow {
	rows := make([]BoneRow, len(s.Bones()))
	for i := range rows {
		b := s.Bone(i)
		tipX, tipY := b.Tip()
		rows[i] = BoneRow{
			Name:     b.Name(),
			X:        b.World.X,
			Y:        b.World.Y,
			Rotation: b.WorldRotationX(),
			ScaleX:   b.WorldScaleX(),
			ScaleY:   b.WorldScaleY(),
			TipX:     tipX,
			TipY:     tipY,
		}
	}
	return rows
}

func printEval(w io.Writer, r EvalResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "bone\tx\ty\trotation\tscaleX\tscaleY\ttip\t")
	for _, b := range r.Bones {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t(%.3f, %.3f)\t\n",
			b.Name, b.X, b.Y, b.Rotation, b.ScaleX, b.ScaleY, b.TipX, b.TipY)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s\n", r.Skeleton, r.Hash)
	return err
}
