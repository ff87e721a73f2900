package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lumenstore/lumen"
	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/schema"
	"github.com/lumenstore/lumen/subscription"
)

// Run executes a scenario against a fresh in-memory database and returns
// the transcript: the subscribed output after the initial fetch and after
// every step, with the notification events in between.
//
// Broadcast delivery is synchronous, so by the time a write call returns the
// subscription has already merged the event and the transcript can read the
// output without waiting.
func Run(ctx context.Context, scenario *Scenario) (string, error) {
	sch, err := schema.LoadFile(scenario.Schema)
	if err != nil {
		return "", fmt.Errorf("loading schema: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := lumen.Open(ctx, ":memory:", sch, lumen.WithLogger(logger))
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	for i, step := range scenario.Setup {
		if _, err := applyStep(ctx, db, sch, step); err != nil {
			return "", fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	stmt, err := scenario.Subscribe.SelectStmt(sch)
	if err != nil {
		return "", fmt.Errorf("subscribe: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Fprintf(&b, "# %s\n", scenario.Description)
	}

	switch scenario.Subscribe.Mode {
	case "one", "first":
		err = runSingleRow(ctx, &b, db, sch, scenario, stmt)
	default:
		err = runCollection(ctx, &b, db, sch, scenario, stmt)
	}
	if err != nil {
		return "", err
	}

	return b.String(), nil
}

func runCollection(ctx context.Context, b *strings.Builder, db *lumen.DB, sch *schema.Schema, scenario *Scenario, stmt *query.SelectStmt) error {
	var sub *subscription.Subscription[subscription.Collection[Record]]
	var err error
	if scenario.Subscribe.Mode == "many" {
		sub, err = lumen.SubscribeMany[Record, *Record](ctx, db, stmt, scenario.Subscribe.Max)
	} else {
		sub, err = lumen.SubscribeAll[Record, *Record](ctx, db, stmt)
	}
	if err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}
	defer sub.Close()

	if err := drainEvents(ctx, b, sub.Recv, sub.Pending); err != nil {
		return err
	}
	b.WriteString("== initial\n")
	renderCollection(b, sub.Snapshot(), scenario.Subscribe.Fields)

	for i, step := range scenario.Steps {
		label, err := applyStep(ctx, db, sch, step)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		fmt.Fprintf(b, "== step %d: %s\n", i+1, label)
		if err := drainEvents(ctx, b, sub.Recv, sub.Pending); err != nil {
			return err
		}
		renderCollection(b, sub.Snapshot(), scenario.Subscribe.Fields)
	}

	return nil
}

func runSingleRow(ctx context.Context, b *strings.Builder, db *lumen.DB, sch *schema.Schema, scenario *Scenario, stmt *query.SelectStmt) error {
	var sub *subscription.Subscription[Record]
	var err error
	if scenario.Subscribe.Mode == "one" {
		sub, err = lumen.SubscribeOne[Record, *Record](ctx, db, stmt)
	} else {
		sub, err = lumen.SubscribeFirst[Record, *Record](ctx, db, stmt)
	}
	if err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}
	defer sub.Close()

	if err := drainEvents(ctx, b, sub.Recv, sub.Pending); err != nil {
		return err
	}
	b.WriteString("== initial\n")
	fmt.Fprintf(b, "  %s\n", sub.Snapshot().Render(scenario.Subscribe.Fields))

	for i, step := range scenario.Steps {
		label, err := applyStep(ctx, db, sch, step)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		fmt.Fprintf(b, "== step %d: %s\n", i+1, label)
		if err := drainEvents(ctx, b, sub.Recv, sub.Pending); err != nil {
			return err
		}
		fmt.Fprintf(b, "  %s\n", sub.Snapshot().Render(scenario.Subscribe.Fields))
	}

	return nil
}

// drainEvents receives every queued notification and records it.
func drainEvents(ctx context.Context, b *strings.Builder, recv func(context.Context) (subscription.Metadata, error), pending func() int) error {
	for pending() > 0 {
		m, err := recv(ctx)
		if err != nil {
			return fmt.Errorf("receiving notification: %w", err)
		}
		if m.Event == nil {
			b.WriteString("event: snapshot\n")
			continue
		}
		fmt.Fprintf(b, "event: %s %s\n", m.Event.Kind, m.Event.Table)
	}
	return nil
}

func renderCollection(b *strings.Builder, coll subscription.Collection[Record], fields []string) {
	rows := coll.Values()
	if len(rows) == 0 {
		b.WriteString("  (empty)\n")
		return
	}
	for _, row := range rows {
		fmt.Fprintf(b, "  %s\n", row.Render(fields))
	}
}

func applyStep(ctx context.Context, db *lumen.DB, sch *schema.Schema, step Step) (string, error) {
	stmt, label, err := step.Statement(sch)
	if err != nil {
		return "", err
	}
	switch s := stmt.(type) {
	case *query.InsertStmt:
		return label, db.Insert(ctx, s)
	case *query.UpdateStmt:
		return label, db.Update(ctx, s)
	case *query.DeleteStmt:
		return label, db.Delete(ctx, s)
	default:
		return "", fmt.Errorf("unsupported statement %T", stmt)
	}
}
