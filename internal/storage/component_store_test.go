package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/archextract/internal/components"
	"github.com/mvp-joe/archextract/internal/config"
)

// Test Plan for ComponentWriter / ComponentReader:
// - a run and its components round-trip in extraction order
// - metadata is stored as JSON and absent metadata stays nil
// - filters narrow by type, domain and file
// - rewriting a run ID replaces its components
// - LatestRun and ListRuns order by generation time
// - PruneRuns keeps the newest runs and cascades to components
// - unknown runs return ErrRunNotFound

func sampleComponents() []components.DraftComponent {
	return []components.DraftComponent{
		{
			Type:     config.API,
			Name:     "list",
			Location: components.Location{File: "src/orders/orders.controller.ts", Line: 12},
			Domain:   "orders",
			Metadata: map[string]any{"route": "/orders", "auth": true},
		},
		{
			Type:     config.UseCase,
			Name:     "PlaceOrder",
			Location: components.Location{File: "src/orders/place-order.ts", Line: 3},
			Domain:   "orders",
		},
		{
			Type:     config.API,
			Name:     "invoices",
			Location: components.Location{File: "src/billing/InvoiceController.java", Line: 8},
			Domain:   "billing",
			Metadata: map[string]any{"retries": 3},
		},
	}
}

func writeRun(t *testing.T, w *ComponentWriter, id string, at time.Time, comps []components.DraftComponent) *Run {
	t.Helper()
	run := &Run{
		ID:              id,
		RootDir:         "/work/shop",
		GeneratedAt:     at,
		FilesDiscovered: 5,
		Duration:        1500 * time.Millisecond,
	}
	require.NoError(t, w.WriteRun(context.Background(), run, comps))
	return run
}

func TestComponentStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := NewTestDB(t)
	w := NewComponentWriter(db)
	r := NewComponentReader(db)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run := writeRun(t, w, "run-1", at, sampleComponents())
	assert.Equal(t, 3, run.ComponentCount)

	got, err := r.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "/work/shop", got.RootDir)
	assert.True(t, at.Equal(got.GeneratedAt))
	assert.Equal(t, 5, got.FilesDiscovered)
	assert.Equal(t, 3, got.ComponentCount)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)

	comps, err := r.GetComponents(ctx, "run-1", ComponentFilter{})
	require.NoError(t, err)
	require.Len(t, comps, 3)

	drafts := make([]components.DraftComponent, len(comps))
	for i, c := range comps {
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "run-1", c.RunID)
		assert.Equal(t, i, c.Position)
		drafts[i] = c.Draft()
	}

	// JSON numbers decode as float64
	want := sampleComponents()
	want[2].Metadata = map[string]any{"retries": float64(3)}
	assert.Equal(t, want, drafts)
	assert.Nil(t, comps[1].Metadata)
}

func TestComponentStore_Filters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := NewTestDB(t)
	writeRun(t, NewComponentWriter(db), "run-1", time.Now(), sampleComponents())
	r := NewComponentReader(db)

	tests := []struct {
		name   string
		filter ComponentFilter
		want   []string
	}{
		{"type", ComponentFilter{Type: "api"}, []string{"list", "invoices"}},
		{"domain", ComponentFilter{Domain: "orders"}, []string{"list", "PlaceOrder"}},
		{"type and domain", ComponentFilter{Type: "api", Domain: "billing"}, []string{"invoices"}},
		{"file", ComponentFilter{File: "src/orders/place-order.ts"}, []string{"PlaceOrder"}},
		{"no match", ComponentFilter{Type: "event"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comps, err := r.GetComponents(ctx, "run-1", tt.filter)
			require.NoError(t, err)

			var names []string
			for _, c := range comps {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	counts, err := r.CountByType(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"api": 2, "useCase": 1}, counts)
}

func TestComponentStore_ReplaceRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := NewTestDB(t)
	w := NewComponentWriter(db)
	r := NewComponentReader(db)

	writeRun(t, w, "run-1", time.Now(), sampleComponents())
	writeRun(t, w, "run-1", time.Now(), sampleComponents()[:1])

	comps, err := r.GetComponents(ctx, "run-1", ComponentFilter{})
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, "list", comps[0].Name)

	var total int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM components").Scan(&total))
	assert.Equal(t, 1, total)

	// Test: empty run is stored without components
	run := writeRun(t, w, "run-empty", time.Now(), nil)
	assert.Equal(t, 0, run.ComponentCount)

	// Test: run ID is required
	err = w.WriteRun(ctx, &Run{}, nil)
	require.Error(t, err)
}

func TestComponentStore_Runs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := NewTestDB(t)
	w := NewComponentWriter(db)
	r := NewComponentReader(db)

	_, err := r.LatestRun(ctx)
	require.ErrorIs(t, err, ErrRunNotFound)
	_, err = r.GetRun(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	writeRun(t, w, "run-a", base, sampleComponents())
	writeRun(t, w, "run-c", base.Add(2*time.Minute), sampleComponents())
	writeRun(t, w, "run-b", base.Add(time.Minute), sampleComponents())

	latest, err := r.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-c", latest.ID)

	runs, err := r.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"run-c", "run-b", "run-a"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	runs, err = r.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	// Test: pruning cascades to components
	removed, err := w.PruneRuns(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = r.GetRun(ctx, "run-a")
	require.ErrorIs(t, err, ErrRunNotFound)

	var orphans int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM components WHERE run_id = 'run-a'").Scan(&orphans))
	assert.Equal(t, 0, orphans)

	comps, err := r.GetComponents(ctx, "run-b", ComponentFilter{})
	require.NoError(t, err)
	assert.Len(t, comps, 3)
}
