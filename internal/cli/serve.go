package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/urdwyrd/urd/internal/gateway"
	"github.com/urdwyrd/urd/internal/journal"
	"github.com/urdwyrd/urd/internal/world"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		addr        string
		journalPath string
		noJournal   bool
	)

	cmd := &cobra.Command{
		Use:   "serve <world.json>",
		Short: "Serve sessions on a world over WebSocket",
		Long: `Serve validates the world document once and then opens one engine
session per WebSocket connection. Sessions are journaled unless
--no-journal is set.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, addr, journalPath, noJournal, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8675", "listen address")
	cmd.Flags().StringVar(&journalPath, "journal", "urd.db", "journal database path")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "disable session journaling")
	return cmd
}

func runServe(opts *RootOptions, addr, journalPath string, noJournal bool, worldPath string, cmd *cobra.Command) error {
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

	var store *journal.Store
	if !noJournal {
		store, err = journal.Open(journalPath)
		if err != nil {
			_ = formatter.Error(ErrCodeFileNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot open journal", err)
		}
		defer store.Close()
	}

	srv := gateway.NewServer(def, store, nil)
	mux := http.NewServeMux()
	mux.Handle("/session", srv)

	fmt.Fprintf(formatter.Writer, "serving %q on %s\n", def.Meta.Name, addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		return WrapExitError(ExitCommandError, "server stopped", err)
	}
	return nil
}
