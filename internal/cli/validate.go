package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urdwyrd/urd/internal/world"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                    `json:"valid"`
	WorldHash string                  `json:"world_hash,omitempty"`
	Errors    []world.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <world.json>",
		Short: "Validate a world document without running it",
		Long: `Validate a world document: structural checks against the document
schema, then wholesale reference validation. Every problem is reported,
not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	def, err := LoadWorld(path)
	if err != nil {
		_ = formatter.Error(ErrCodeBadDocument, err.Error(), nil)
		return err
	}
	formatter.VerboseLog("decoded world %q from %s", def.Meta.Name, path)

	if errs := world.Validate(def); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	hash, err := def.Hash()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot hash world", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, WorldHash: hash})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s is valid (%s)\n", def.Meta.Name, hash)
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, errs world.ValidationErrors) error {
	if formatter.Format == "json" {
		_ = formatter.Success(ValidationResult{Valid: false, Errors: errs})
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", e.Code, e.Field, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
