package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenstore/lumen/schema"
)

// ValidationResult holds schema validation results for JSON output.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Tables []string `json:"tables,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema.cue>",
		Short: "Validate a schema file",
		Long: `Validate a CUE schema file without opening a database.

Checks that every table declares at least one field and that every field
uses a known column type.`,
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

	sch, err := schema.LoadFile(path)
	if err != nil {
		code := "E001"
		var compileErr *schema.CompileError
		if errors.As(err, &compileErr) {
			code = "E002"
		}
		_ = formatter.Error(code, err.Error(), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("schema invalid: %v", err))
	}

	tables := make([]string, len(sch.Tables))
	for i, t := range sch.Tables {
		tables[i] = t.Name
		formatter.VerboseLog("table %s: %d field(s)", t.Name, len(t.Fields))
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Tables: tables})
	}

	fmt.Fprintf(formatter.Writer, "✓ Schema valid (%d table(s))\n", len(tables))
	return nil
}
