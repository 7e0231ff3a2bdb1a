package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urdwyrd/urd/internal/journal"
)

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	var journalPath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List journaled sessions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(rootOpts, journalPath, cmd)
		},
	}
	cmd.Flags().StringVar(&journalPath, "journal", "urd.db", "journal database path")
	return cmd
}

func runSessions(opts *RootOptions, journalPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	store, err := journal.Open(journalPath)
	if err != nil {
		_ = formatter.Error(ErrCodeFileNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot open journal", err)
	}
	defer store.Close()

	infos, err := store.ListSessions()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot list sessions", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}
	if len(infos) == 0 {
		fmt.Fprintln(formatter.Writer, "no sessions")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(formatter.Writer, "%s  %s  seed=%d  %s\n",
			info.Session, info.WorldName, info.Seed, info.CreatedAt)
	}
	return nil
}
