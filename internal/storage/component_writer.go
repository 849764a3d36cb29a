package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/archextract/internal/components"
)

// ComponentWriter stores extraction runs and their components.
// Each run is written in a single transaction.
type ComponentWriter struct {
	db *sql.DB
}

// NewComponentWriter creates a writer on an open database.
// The caller owns the connection.
func NewComponentWriter(db *sql.DB) *ComponentWriter {
	return &ComponentWriter{db: db}
}

// WriteRun stores run and its components. Writing a run ID that already
// exists replaces the previous run and all of its components.
func (w *ComponentWriter) WriteRun(ctx context.Context, run *Run, comps []components.DraftComponent) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Cascades to the run's components
	if _, err := tx.ExecContext(ctx, "DELETE FROM extraction_runs WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("failed to clear run %s: %w", run.ID, err)
	}

	query, args, err := sq.Insert("extraction_runs").
		Columns("run_id", "root_dir", "generated_at", "files_discovered", "component_count", "duration_ms").
		Values(
			run.ID,
			run.RootDir,
			run.GeneratedAt.UTC().Format(timeLayout),
			run.FilesDiscovered,
			len(comps),
			run.Duration.Milliseconds(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build run insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(comps) > 0 {
		if err := insertComponents(ctx, tx, run.ID, comps); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	run.ComponentCount = len(comps)
	return nil
}

func insertComponents(ctx context.Context, tx *sql.Tx, runID string, comps []components.DraftComponent) error {
	query, _, err := sq.Insert("components").
		Columns("component_id", "run_id", "position", "type", "name", "domain", "file_path", "line", "metadata").
		Values("", "", 0, "", "", "", "", 0, nil).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build component insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range comps {
		var metadata any
		if len(c.Metadata) > 0 {
			data, err := json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("failed to marshal metadata for %s: %w", c.Name, err)
			}
			metadata = string(data)
		}

		_, err := stmt.ExecContext(ctx,
			uuid.New().String(),
			runID,
			i,
			string(c.Type),
			c.Name,
			c.Domain,
			c.Location.File,
			c.Location.Line,
			metadata,
		)
		if err != nil {
			return fmt.Errorf("failed to insert component %s: %w", c.Name, err)
		}
	}
	return nil
}

// PruneRuns deletes all but the keep most recent runs and returns the
// number of runs removed.
func (w *ComponentWriter) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	query, args, err := sq.Delete("extraction_runs").
		Where(sq.Expr("run_id NOT IN (SELECT run_id FROM extraction_runs ORDER BY generated_at DESC, run_id DESC LIMIT ?)", keep)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build prune query: %w", err)
	}

	res, err := w.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned runs: %w", err)
	}
	return n, nil
}
