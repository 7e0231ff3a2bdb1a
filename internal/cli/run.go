package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urdwyrd/urd/internal/harness"
)

// RunResult holds a completed scenario run for JSON output.
type RunResult struct {
	Scenario  string `json:"scenario"`
	Trace     string `json:"trace"`
	FinalHash string `json:"final_hash"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its trace",
		Long: `Run a YAML scenario against its world document. The scenario's steps
execute in order; the printed trace is deterministic and suitable for
golden-file comparison. Expectation mismatches fail the run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sc, err := harness.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeBadDocument, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot load scenario", err)
	}
	formatter.VerboseLog("running scenario %q with %d step(s)", sc.Name, len(sc.Steps))

	res, err := harness.Run(sc)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, fmt.Sprintf("scenario %q failed", sc.Name), err)
	}

	if formatter.Format == "json" {
		return formatter.Success(RunResult{Scenario: sc.Name, Trace: res.Trace, FinalHash: res.FinalHash})
	}
	fmt.Fprint(formatter.Writer, res.Trace)
	fmt.Fprintf(formatter.Writer, "✓ %s (final %s)\n", sc.Name, res.FinalHash)
	return nil
}
