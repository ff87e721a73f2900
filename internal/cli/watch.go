package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lumenstore/lumen"
	"github.com/lumenstore/lumen/internal/harness"
	"github.com/lumenstore/lumen/schema"
	"github.com/lumenstore/lumen/subscription"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath, schemaPath string

	cmd := &cobra.Command{
		Use:   "watch <subscribe.yaml>",
		Short: "Subscribe to a query and stream its output",
		Long: `Subscribe to a live query and print the result whenever it changes.

The file holds the subscription in the scenario runner's subscribe shape:
table, fields, optional where and order_by clauses. Watching continues
until interrupted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, cmd, dbPath, schemaPath, args[0])
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "database path (required)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema file (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func runWatch(opts *RootOptions, cmd *cobra.Command, dbPath, schemaPath, specPath string) error {
	out := cmd.OutOrStdout()

	sch, err := schema.LoadFile(schemaPath)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("loading schema: %v", err))
	}

	spec, err := loadSubscribeSpec(specPath)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("loading subscription: %v", err))
	}

	stmt, err := spec.SelectStmt(sch)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("building query: %v", err))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx := cmd.Context()
	db, err := lumen.Open(ctx, dbPath, sch, lumen.WithLogger(logger))
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("opening database: %v", err))
	}
	defer db.Close()

	sub, err := lumen.SubscribeAll[harness.Record, *harness.Record](ctx, db, stmt)
	if err != nil {
		return NewExitError(ExitFailure, fmt.Sprintf("subscribing: %v", err))
	}
	defer sub.Close()

	for {
		m, err := sub.Recv(ctx)
		if err != nil {
			if errors.Is(err, subscription.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return NewExitError(ExitFailure, fmt.Sprintf("receiving notification: %v", err))
		}

		if m.Event == nil {
			fmt.Fprintln(out, "-- snapshot")
		} else {
			fmt.Fprintf(out, "-- %s %s\n", m.Event.Kind, m.Event.Table)
		}
		printRecords(out, sub.Snapshot(), spec.Fields)
	}
}

func printRecords(out io.Writer, coll subscription.Collection[harness.Record], fields []string) {
	rows := coll.Values()
	if len(rows) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(row.Render(fields))
		b.WriteByte('\n')
	}
	fmt.Fprint(out, b.String())
}

// loadSubscribeSpec reads a subscription spec, rejecting unknown fields.
func loadSubscribeSpec(path string) (*harness.SubscribeSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription file: %w", err)
	}

	var spec harness.SubscribeSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if spec.Table == "" || len(spec.Fields) == 0 {
		return nil, fmt.Errorf("table and fields are required")
	}
	return &spec, nil
}
