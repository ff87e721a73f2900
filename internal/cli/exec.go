package cli

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lumenstore/lumen"
	"github.com/lumenstore/lumen/internal/harness"
	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/schema"
)

// ExecResult summarizes an exec run for JSON output.
type ExecResult struct {
	Applied int `json:"applied"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath, schemaPath string

	cmd := &cobra.Command{
		Use:   "exec <statements.yaml>",
		Short: "Apply writes from a YAML file",
		Long: `Apply a list of insert, update, and delete statements to a database.

The file holds a YAML list of steps in the same shape the scenario runner
uses. Every statement is schema-validated before it executes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(rootOpts, cmd, dbPath, schemaPath, args[0])
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "database path (required)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema file (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runExec(opts *RootOptions, cmd *cobra.Command, dbPath, schemaPath, stepsPath string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sch, err := schema.LoadFile(schemaPath)
	if err != nil {
		_ = formatter.Error("E002", err.Error(), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("loading schema: %v", err))
	}

	steps, err := loadSteps(stepsPath)
	if err != nil {
		_ = formatter.Error("E003", err.Error(), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("loading statements: %v", err))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx := cmd.Context()
	db, err := lumen.Open(ctx, dbPath, sch, lumen.WithLogger(logger))
	if err != nil {
		_ = formatter.Error("E004", err.Error(), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("opening database: %v", err))
	}
	defer db.Close()

	for i, step := range steps {
		stmt, label, err := step.Statement(sch)
		if err != nil {
			_ = formatter.Error("E005", err.Error(), nil)
			return NewExitError(ExitFailure, fmt.Sprintf("steps[%d]: %v", i, err))
		}

		switch s := stmt.(type) {
		case *query.InsertStmt:
			err = db.Insert(ctx, s)
		case *query.UpdateStmt:
			err = db.Update(ctx, s)
		case *query.DeleteStmt:
			err = db.Delete(ctx, s)
		}
		if err != nil {
			_ = formatter.Error("E005", err.Error(), nil)
			return NewExitError(ExitFailure, fmt.Sprintf("steps[%d] (%s): %v", i, label, err))
		}
		formatter.VerboseLog("applied %s", label)
	}

	if formatter.Format == "json" {
		return formatter.Success(ExecResult{Applied: len(steps)})
	}
	fmt.Fprintf(formatter.Writer, "✓ Applied %d statement(s)\n", len(steps))
	return nil
}

// loadSteps reads a YAML list of write steps, rejecting unknown fields.
func loadSteps(path string) ([]harness.Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statements file: %w", err)
	}

	var steps []harness.Step
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&steps); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no statements found")
	}
	return steps, nil
}
