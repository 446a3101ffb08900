package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/skelpose/internal/compiler"
)

// SkeletonSummary describes one valid skeleton.
type SkeletonSummary struct {
	Name          string `json:"name"`
	Bones         int    `json:"bones"`
	IkConstraints int    `json:"ik_constraints"`
}

// ValidationProblem is one load or validation error.
type ValidationProblem struct {
	Code     string `json:"code"`
	Skeleton string `json:"skeleton,omitempty"`
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                `json:"valid"`
	Files     int                 `json:"files"`
	Skeletons []SkeletonSummary   `json:"skeletons"`
	Errors    []ValidationProblem `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <skeletons-dir>",
		Short: "Check skeleton definitions",
		Long: `Load every CUE skeleton definition in a directory, compile it and
check its structure: unique bone names, parents before children, IK bone
counts, targets and mix ranges.

All errors are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, errs := compiler.LoadDir(dir, compiler.LoadModeCollectAll)
	if loaded == nil {
		p := problemFrom(errs[0])
		_ = out.Error(p.Code, p.Message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", p.Code, p.Message))
	}
	out.VerboseLog("found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := ValidationResult{
		Valid:     len(errs) == 0,
		Files:     loaded.FileCount,
		Skeletons: make([]SkeletonSummary, 0, len(loaded.Skeletons)),
	}
	for _, def := range loaded.Skeletons {
		result.Skeletons = append(result.Skeletons, SkeletonSummary{
			Name:          def.Data.Name,
			Bones:         len(def.Data.Bones),
			IkConstraints: len(def.Data.IkConstraints),
		})
	}
	for _, err := range errs {
		result.Errors = append(result.Errors, problemFrom(err))
	}

	if out.JSON() {
		var cliErr *CLIError
		if !result.Valid {
			cliErr = &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		}
		if err := out.Result(result.Valid, result, cliErr); err != nil {
			return err
		}
	} else {
		printValidation(out, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func problemFrom(err error) ValidationProblem {
	var le *compiler.LoadError
	if !errors.As(err, &le) {
		return ValidationProblem{Code: compiler.ErrCodeGeneric, Message: err.Error()}
	}
	p := ValidationProblem{Code: le.Code, Skeleton: le.Skeleton, Message: le.Message}
	if le.Pos.IsValid() {
		p.File = le.Pos.Filename()
		p.Line = le.Pos.Line()
	}
	return p
}

func printValidation(out *OutputFormatter, r ValidationResult) {
	w := out.Writer
	for _, s := range r.Skeletons {
		fmt.Fprintf(w, "✓ %s (%d bones, %d ik)\n", s.Name, s.Bones, s.IkConstraints)
	}
	if r.Valid {
		fmt.Fprintf(w, "✓ %d skeleton(s) valid\n", len(r.Skeletons))
		return
	}
	fmt.Fprintln(w, "✗ Validation failed")
	for _, p := range r.Errors {
		loc := ""
		if p.Line > 0 {
			loc = fmt.Sprintf("%s:%d: ", p.File, p.Line)
		}
		if p.Skeleton != "" {
			fmt.Fprintf(w, "  %s%s: skeleton %q: %s\n", loc, p.Code, p.Skeleton, p.Message)
		} else {
			fmt.Fprintf(w, "  %s%s: %s\n", loc, p.Code, p.Message)
		}
	}
}
