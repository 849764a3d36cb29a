package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/archextract/internal/storage"
)

// Test Plan for show and runs commands:
// - show prints the latest run's components with metadata and per-type counts
// - filters and --run select components
// - --json prints the stored document
// - an empty database reports no runs, an unknown run is an error
// - runs lists recorded runs newest first
// - a missing database file is an error

// extractToDB runs extract on a fresh project and returns the database path.
func extractToDB(t *testing.T) string {
	t.Helper()

	dir := setupTestProject(t)
	dbPath := filepath.Join(dir, "components.db")
	require.NoError(t, runExtract(context.Background(), extractOptions{
		rootDir: dir,
		dbPath:  dbPath,
		quiet:   true,
		stderr:  &bytes.Buffer{},
	}))
	return dbPath
}

func TestRunShow(t *testing.T) {
	t.Parallel()

	dbPath := extractToDB(t)
	var out bytes.Buffer

	require.NoError(t, runShow(context.Background(), &out, showOptions{dbPath: dbPath}))

	text := out.String()
	assert.Contains(t, text, "2 components")
	assert.Contains(t, text, "By type: api 1, useCase 1")
	assert.Contains(t, text, "api")
	assert.Contains(t, text, "src/orders/orders.controller.ts:4")
	assert.Contains(t, text, `{"route":"/orders"}`)
	assert.Contains(t, text, "PlaceOrderUseCase")

	// Test: filter by type
	out.Reset()
	require.NoError(t, runShow(context.Background(), &out, showOptions{
		dbPath: dbPath,
		filter: storage.ComponentFilter{Type: "useCase"},
	}))
	assert.Contains(t, out.String(), "PlaceOrderUseCase")
	assert.NotContains(t, out.String(), "orders.controller.ts")

	// Test: no match
	out.Reset()
	require.NoError(t, runShow(context.Background(), &out, showOptions{
		dbPath: dbPath,
		filter: storage.ComponentFilter{Domain: "billing"},
	}))
	assert.Contains(t, out.String(), "No matching components")
	assert.Contains(t, out.String(), "By type: api 1, useCase 1")
}

func TestRunShow_JSON(t *testing.T) {
	t.Parallel()

	dbPath := extractToDB(t)
	var out bytes.Buffer

	require.NoError(t, runShow(context.Background(), &out, showOptions{dbPath: dbPath, json: true}))

	var doc struct {
		RunID      string `json:"runId"`
		Components []struct {
			Type     string         `json:"type"`
			Name     string         `json:"name"`
			Metadata map[string]any `json:"metadata"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.NotEmpty(t, doc.RunID)
	require.Len(t, doc.Components, 2)
	assert.Equal(t, "list", doc.Components[0].Name)
	assert.Equal(t, "/orders", doc.Components[0].Metadata["route"])

	// Test: explicit run ID
	out.Reset()
	require.NoError(t, runShow(context.Background(), &out, showOptions{dbPath: dbPath, runID: doc.RunID}))
	assert.Contains(t, out.String(), doc.RunID)

	// Test: unknown run ID
	err := runShow(context.Background(), &out, showOptions{dbPath: dbPath, runID: "missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run missing not found")
}

func TestRunShow_Empty(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "empty.db")
	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	var out bytes.Buffer
	require.NoError(t, runShow(context.Background(), &out, showOptions{dbPath: dbPath}))
	assert.Equal(t, "No runs recorded\n", out.String())

	out.Reset()
	require.NoError(t, runRuns(context.Background(), &out, dbPath, 0, time.Now()))
	assert.Equal(t, "No runs recorded\n", out.String())

	// Test: missing database
	err = runShow(context.Background(), &out, showOptions{dbPath: filepath.Join(t.TempDir(), "none.db")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
}

func TestFormatTypeCounts(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "api 1,200, event 2, useCase 3", formatTypeCounts(map[string]int{"useCase": 3, "api": 1200, "event": 2}))
	assert.Equal(t, "", formatTypeCounts(map[string]int{}))
}

func TestRunRuns(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "runs.db")
	db, err := storage.Open(dbPath)
	require.NoError(t, err)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	w := storage.NewComponentWriter(db)
	for _, run := range []*storage.Run{
		{ID: "run-old", RootDir: "/work/shop", GeneratedAt: now.Add(-2 * time.Hour), FilesDiscovered: 1200, Duration: 3 * time.Second},
		{ID: "run-new", RootDir: "/work/shop", GeneratedAt: now.Add(-5 * time.Minute), FilesDiscovered: 1250, Duration: 2500 * time.Millisecond},
	} {
		require.NoError(t, w.WriteRun(context.Background(), run, nil))
	}
	require.NoError(t, db.Close())

	var out bytes.Buffer
	require.NoError(t, runRuns(context.Background(), &out, dbPath, 0, now))

	text := out.String()
	assert.Contains(t, text, "Runs (2):")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("run-new")), bytes.Index(out.Bytes(), []byte("run-old")))
	assert.Contains(t, text, "(5m ago)")
	assert.Contains(t, text, "(2h ago)")
	assert.Contains(t, text, "Files:      1,250")
	assert.Contains(t, text, "Took:       2s")

	out.Reset()
	require.NoError(t, runRuns(context.Background(), &out, dbPath, 1, now))
	assert.Contains(t, out.String(), "Runs (1):")
	assert.NotContains(t, out.String(), "run-old")
}
