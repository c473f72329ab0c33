package app

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"ElectionWatcher/internal/config"
	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/infrastructure/storage"
)

// PrintHistory lists the latest dispatches, newest first.
func PrintHistory(ctx context.Context, cfg config.Config, siteName string, limit uint64, out io.Writer) error {
	if cfg.Database.DSN == "" {
		return fmt.Errorf("dispatch history is disabled: set database.dsn or DATABASE_DSN")
	}

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open dispatch history: %w", err)
	}
	defer db.Close()

	entries, err := storage.NewDispatchRepository(db, cfg.Database.Driver).ListDispatches(ctx, siteName, limit)
	if err != nil {
		return err
	}

	WriteHistoryTable(out, entries)
	return nil
}

// WriteHistoryTable renders dispatch entries as a console table.
func WriteHistoryTable(out io.Writer, entries []domain.DispatchEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Time (UTC)", "Site", "Region", "Status", "Error"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			e.Site,
			e.Region,
			string(e.Status),
			e.Error,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "total", len(entries)})
	t.Render()
}
