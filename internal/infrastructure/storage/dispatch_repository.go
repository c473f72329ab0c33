package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"ElectionWatcher/internal/domain"
	"ElectionWatcher/internal/ports"
)

// DispatchRepository persists the dispatch history into Postgres or SQLite.
type DispatchRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.DispatchRepository = (*DispatchRepository)(nil)

// NewDispatchRepository wires a sql.DB implementation for the given driver.
func NewDispatchRepository(db *sql.DB, driver string) *DispatchRepository {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}
	return &DispatchRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
}

// SaveDispatch upserts one dispatch entry, assigning an ID and timestamp when missing.
func (r *DispatchRepository) SaveDispatch(ctx context.Context, entry domain.DispatchEntry) error {
	if r.db == nil {
		return nil
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query, args, err := r.builder.
		Insert("dispatches").
		Columns("id", "site", "region", "payload", "status", "error", "created_at").
		Values(entry.ID, entry.Site, entry.Region, entry.Payload, string(entry.Status), entry.Error, entry.CreatedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, error = EXCLUDED.error").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert dispatch: %w", err)
	}

	return nil
}

// ListDispatches returns the newest entries first; an empty site lists all sites.
func (r *DispatchRepository) ListDispatches(ctx context.Context, site string, limit uint64) ([]domain.DispatchEntry, error) {
	if r.db == nil {
		return nil, nil
	}

	sel := r.builder.
		Select("id", "site", "region", "payload", "status", "error", "created_at").
		From("dispatches").
		OrderBy("created_at DESC", "id")
	if site != "" {
		sel = sel.Where(sq.Eq{"site": site})
	}
	if limit > 0 {
		sel = sel.Limit(limit)
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}

	var result []domain.DispatchEntry
	for rows.Next() {
		var (
			entry  domain.DispatchEntry
			status string
		)
		if err := rows.Scan(&entry.ID, &entry.Site, &entry.Region, &entry.Payload, &status, &entry.Error, &entry.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		entry.Status = domain.DispatchStatus(status)
		result = append(result, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}
