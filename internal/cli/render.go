package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/skelpose/internal/engine"
	"github.com/roach88/skelpose/internal/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	FrameFlags
	Skeleton string
	Output   string
	Width    int
	Height   int
	Scale    float64
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}
	defaults := render.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "render <skeletons-dir>",
		Short: "Draw one evaluated pose to a PNG",
		Long: `Evaluate a pose like eval does and draw the bones to a PNG, with the
world origin at the center of the image.

Example:
  skelpose render ./skeletons --skeleton arm --target target=120,40 -o arm.png`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Skeleton, "skeleton", "", "skeleton name (optional when the directory defines one)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "pose.png", "output PNG path")
	cmd.Flags().IntVar(&opts.Width, "width", defaults.Width, "image width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", defaults.Height, "image height in pixels")
	cmd.Flags().Float64Var(&opts.Scale, "scale", defaults.Scale, "pixels per world unit")
	opts.FrameFlags.register(cmd)

	return cmd
}

func runRender(opts *RenderOptions, dir string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Width <= 0 || opts.Height <= 0 || opts.Scale <= 0 {
		return NewExitError(ExitCommandError, "--width, --height and --scale must be positive")
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
		engine.WithRunIDGenerator(engine.NewFixedGenerator("render")),
		engine.WithSkeletonOptions(def.Options()...),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to instantiate skeleton", err)
	}
	res, err := runner.Step(commandContext(cmd), frame)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid pose flags", err)
	}

	ro := render.DefaultOptions()
	ro.Width, ro.Height, ro.Scale = opts.Width, opts.Height, opts.Scale
	ro.OriginX, ro.OriginY = float64(opts.Width)/2, float64(opts.Height)/2
	img := render.Draw(runner.Skeleton(), ro)

	f, err := os.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output", err)
	}
	if err := render.WritePNG(f, img); err != nil {
		_ = f.Close()
		return WrapExitError(ExitFailure, "failed to write PNG", err)
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitFailure, "failed to write PNG", err)
	}

	out.VerboseLog("pose hash %s", res.Hash)
	if out.JSON() {
		return out.Success(map[string]any{
			"skeleton": def.Data.Name,
			"hash":     res.Hash,
			"output":   opts.Output,
			"width":    opts.Width,
			"height":   opts.Height,
		})
	}
	_, err = fmt.Fprintf(out.Writer, "wrote %s (%dx%d)\n", opts.Output, opts.Width, opts.Height)
	return err
}
