package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urdwyrd/urd/internal/journal"
	"github.com/urdwyrd/urd/internal/world"
)

// ReplayResult holds a verified replay for JSON output.
type ReplayResult struct {
	Session   string `json:"session"`
	Calls     int    `json:"calls"`
	FinalHash string `json:"final_hash"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	var journalPath string

	cmd := &cobra.Command{
		Use:   "replay <world.json> <session>",
		Short: "Re-execute a journaled session and verify its state hashes",
		Long: `Replay re-executes every journaled call of a session against a fresh
engine on the given world and verifies the state hash after each call.
A mismatch means the world or the engine changed since recording.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, journalPath, args[0], args[1], cmd)
		},
	}
	cmd.Flags().StringVar(&journalPath, "journal", "urd.db", "journal database path")
	return cmd
}

func runReplay(opts *RootOptions, journalPath, worldPath, session string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	def, err := LoadWorld(worldPath)
	if err != nil {
		_ = formatter.Error(ErrCodeBadDocument, err.Error(), nil)
		return err
	}
	if errs := world.Validate(def); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	store, err := journal.Open(journalPath)
	if err != nil {
		_ = formatter.Error(ErrCodeFileNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot open journal", err)
	}
	defer store.Close()

	res, err := journal.Replay(store, def, session)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ReplayResult{Session: res.Session, Calls: res.Calls, FinalHash: res.FinalHash})
	}
	fmt.Fprintf(formatter.Writer, "✓ session %s replayed: %d call(s), final %s\n",
		res.Session, res.Calls, res.FinalHash)
	return nil
}
