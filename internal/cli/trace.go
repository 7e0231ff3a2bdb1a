package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urdwyrd/urd/internal/engine"
	"github.com/urdwyrd/urd/internal/journal"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	var journalPath string

	cmd := &cobra.Command{
		Use:   "trace <session>",
		Short: "Dump the journaled event stream of a session",
		Long: `Trace prints every journaled event of a session in sequence order,
one line per event. The output is stable: re-running trace on the same
journal always prints the same lines.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, journalPath, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&journalPath, "journal", "urd.db", "journal database path")
	return cmd
}

func runTrace(opts *RootOptions, journalPath, session string, cmd *cobra.Command) error {
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

	events, err := store.ReadEvents(session)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot read session", err)
	}
	if len(events) == 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("no events journaled for session %q", session))
	}

	if formatter.Format == "json" {
		return formatter.Success(events)
	}
	for _, ev := range events {
		fmt.Fprintln(formatter.Writer, renderTraceLine(ev))
	}
	return nil
}

// renderTraceLine renders one event with fields in a fixed order.
func renderTraceLine(ev engine.Event) string {
	line := fmt.Sprintf("[%d/%d] %s", ev.Turn, ev.Seq, ev.Kind)
	pairs := []struct{ key, val string }{
		{"world", ev.World},
		{"entity", ev.Entity},
		{"property", ev.Property},
		{"old", ev.Old},
		{"new", ev.New},
		{"from", ev.From},
		{"to", ev.To},
		{"location", ev.Location},
		{"section", ev.Section},
		{"choice", ev.Choice},
		{"rule", ev.Rule},
		{"candidate", ev.Candidate},
		{"sequence", ev.Sequence},
		{"phase", ev.Phase},
	}
	for _, p := range pairs {
		if p.val != "" {
			line += fmt.Sprintf(" %s=%s", p.key, p.val)
		}
	}
	return line
}
