package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ErrRunNotFound is returned when no run matches the lookup.
var ErrRunNotFound = errors.New("extraction run not found")

// ComponentFilter narrows a component query. Empty fields match everything.
type ComponentFilter struct {
	Type   string
	Domain string
	File   string
}

// ComponentReader queries stored runs and components.
type ComponentReader struct {
	db *sql.DB
}

// NewComponentReader creates a reader on an open database.
// The caller owns the connection.
func NewComponentReader(db *sql.DB) *ComponentReader {
	return &ComponentReader{db: db}
}

var runColumns = []string{"run_id", "root_dir", "generated_at", "files_discovered", "component_count", "duration_ms"}

// GetRun returns the run with the given ID.
func (r *ComponentReader) GetRun(ctx context.Context, runID string) (*Run, error) {
	query, args, err := sq.Select(runColumns...).
		From("extraction_runs").
		Where(sq.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.queryRun(ctx, query, args...)
}

// LatestRun returns the most recently generated run.
func (r *ComponentReader) LatestRun(ctx context.Context) (*Run, error) {
	query, args, err := sq.Select(runColumns...).
		From("extraction_runs").
		OrderBy("generated_at DESC", "run_id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.queryRun(ctx, query, args...)
}

// ListRuns returns up to limit runs, newest first. A limit of zero lists all.
func (r *ComponentReader) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	builder := sq.Select(runColumns...).
		From("extraction_runs").
		OrderBy("generated_at DESC", "run_id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetComponents returns the components of a run in extraction order.
func (r *ComponentReader) GetComponents(ctx context.Context, runID string, filter ComponentFilter) ([]*Component, error) {
	where := sq.Eq{"run_id": runID}
	if filter.Type != "" {
		where["type"] = filter.Type
	}
	if filter.Domain != "" {
		where["domain"] = filter.Domain
	}
	if filter.File != "" {
		where["file_path"] = filter.File
	}

	query, args, err := sq.Select("component_id", "run_id", "position", "type", "name", "domain", "file_path", "line", "metadata").
		From("components").
		Where(where).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer rows.Close()

	var comps []*Component
	for rows.Next() {
		var (
			c        Component
			metadata sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.RunID, &c.Position, &c.Type, &c.Name, &c.Domain, &c.FilePath, &c.Line, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &c.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", c.Name, err)
			}
		}
		comps = append(comps, &c)
	}
	return comps, rows.Err()
}

// CountByType returns the number of components per type in a run.
func (r *ComponentReader) CountByType(ctx context.Context, runID string) (map[string]int, error) {
	query, args, err := sq.Select("type", "COUNT(*)").
		From("components").
		Where(sq.Eq{"run_id": runID}).
		GroupBy("type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count components: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			typ   string
			count int
		)
		if err := rows.Scan(&typ, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[typ] = count
	}
	return counts, rows.Err()
}

func (r *ComponentReader) queryRun(ctx context.Context, query string, args ...any) (*Run, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query run: %w", err)
		}
		return nil, ErrRunNotFound
	}
	return scanRun(rows)
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var (
		run         Run
		generatedAt string
		durationMS  int64
	)
	if err := rows.Scan(&run.ID, &run.RootDir, &generatedAt, &run.FilesDiscovered, &run.ComponentCount, &durationMS); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, generatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated_at for run %s: %w", run.ID, err)
	}
	run.GeneratedAt = t
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}
