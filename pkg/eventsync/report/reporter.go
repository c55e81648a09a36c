// Package report prints local versus durable event totals.
//
// The reporter only reads: it never feeds anything back into the handler
// or the store, so a slow or failing report cannot affect synchronization.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/randalmurphal/eventsync/pkg/eventsync/divergence"
	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
)

// LocalCounter reads in-process totals.
type LocalCounter interface {
	Count(name event.Name) int64
}

// DurableCounter reads durable totals.
type DurableCounter interface {
	Count(ctx context.Context, name event.Name) (int64, error)
}

// Row is one line of a report.
type Row struct {
	Name     event.Name
	Local    int64
	Durable  int64
	Diverged int // ledger entries for this name
}

// Gap returns Local - Durable.
func (r Row) Gap() int64 {
	return r.Local - r.Durable
}

// Reporter compares local and durable totals per event name.
type Reporter struct {
	Local   LocalCounter
	Durable DurableCounter

	// Ledger is optional. When nil, Diverged is always 0.
	Ledger divergence.Ledger

	// Names defaults to event.Names().
	Names []event.Name

	// Out receives the rendered table. Nil discards it.
	Out io.Writer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Report reads every total once and writes the table to Out.
func (r *Reporter) Report(ctx context.Context) ([]Row, error) {
	names := r.Names
	if len(names) == 0 {
		names = event.Names()
	}

	var diverged map[event.Name]int
	if r.Ledger != nil {
		byName, err := r.Ledger.CountByName(ctx)
		if err != nil {
			return nil, fmt.Errorf("read divergence ledger: %w", err)
		}
		diverged = byName
	}

	rows := make([]Row, 0, len(names))
	for _, name := range names {
		durable, err := r.Durable.Count(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("read durable total for %s: %w", name, err)
		}
		rows = append(rows, Row{
			Name:     name,
			Local:    r.Local.Count(name),
			Durable:  durable,
			Diverged: diverged[name],
		})
	}

	if r.Out != nil {
		if err := Write(r.Out, rows); err != nil {
			return rows, err
		}
	}
	return rows, nil
}

// Run reports every interval until ctx is done, then reports once more
// so the final state is always printed.
func (r *Reporter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_, err := r.Report(context.WithoutCancel(ctx))
			return err
		case <-ticker.C:
			if _, err := r.Report(ctx); err != nil {
				r.logger().Warn("report failed", "error", err)
			}
		}
	}
}

func (r *Reporter) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Write renders rows as an aligned text table.
func Write(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "event\tlocal\tdurable\tgap\tdiverged\t")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", row.Name, row.Local, row.Durable, row.Gap(), row.Diverged)
	}
	return tw.Flush()
}
