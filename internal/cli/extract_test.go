package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/archextract/internal/indexer"
	"github.com/mvp-joe/archextract/internal/storage"
)

// Test Plan for extract command:
// - writes the configured JSON output relative to the project root
// - "-" writes the document to stdout
// - --db records the run and its components, --keep-runs prunes old runs
// - a missing or invalid config fails before extraction
// - watch mode re-extracts on source changes and reloads a changed config
// - relPath maps paths inside the root and rejects paths outside

func componentNames(t *testing.T, result *indexer.Result) []string {
	t.Helper()
	names := make([]string, 0, len(result.Components))
	for _, c := range result.Components {
		names = append(names, string(c.Type)+":"+c.Name)
	}
	return names
}

func readOutput(t *testing.T, path string) *indexer.Result {
	t.Helper()
	w, err := indexer.NewAtomicWriter(path)
	require.NoError(t, err)
	result, err := w.ReadResult()
	require.NoError(t, err)
	return result
}

func TestRunExtract_WritesJSONAndDB(t *testing.T) {
	t.Parallel()

	dir := setupTestProject(t)
	var stdout bytes.Buffer

	err := runExtract(context.Background(), extractOptions{
		rootDir: dir,
		dbPath:  "data/components.db",
		quiet:   true,
		stdout:  &stdout,
		stderr:  &bytes.Buffer{},
	})
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	result := readOutput(t, filepath.Join(dir, "out", "components.json"))
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"api:list", "useCase:PlaceOrderUseCase"}, componentNames(t, result))
	assert.Equal(t, map[string]any{"route": "/orders"}, result.Components[0].Metadata)
	assert.Equal(t, 4, result.Components[0].Location.Line)

	db, err := storage.Open(filepath.Join(dir, "data", "components.db"))
	require.NoError(t, err)
	defer db.Close()

	reader := storage.NewComponentReader(db)
	run, err := reader.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.RunID, run.ID)
	assert.Equal(t, 2, run.ComponentCount)
	assert.Equal(t, 2, run.FilesDiscovered)

	comps, err := reader.GetComponents(context.Background(), run.ID, storage.ComponentFilter{Type: "useCase"})
	require.NoError(t, err)
	require.Len(t, comps, 1)
	assert.Equal(t, "src/orders/place-order.ts", comps[0].FilePath)
}

func TestRunExtract_Stdout(t *testing.T) {
	t.Parallel()

	dir := setupTestProject(t)
	var stdout bytes.Buffer

	err := runExtract(context.Background(), extractOptions{
		rootDir: dir,
		output:  "-",
		quiet:   true,
		stdout:  &stdout,
		stderr:  &bytes.Buffer{},
	})
	require.NoError(t, err)

	var result indexer.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, []string{"api:list", "useCase:PlaceOrderUseCase"}, componentNames(t, &result))

	_, err = os.Stat(filepath.Join(dir, "out", "components.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunExtract_KeepRuns(t *testing.T) {
	t.Parallel()

	dir := setupTestProject(t)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	for i := 0; i < 3; i++ {
		err := runExtract(context.Background(), extractOptions{
			rootDir:  dir,
			dbPath:   dbPath,
			keepRuns: 2,
			quiet:    true,
			stderr:   &bytes.Buffer{},
		})
		require.NoError(t, err)
	}

	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	runs, err := storage.NewComponentReader(db).ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunExtract_ConfigErrors(t *testing.T) {
	t.Parallel()

	// Test: no config file in the project
	err := runExtract(context.Background(), extractOptions{rootDir: t.TempDir(), quiet: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config file found")

	// Test: module missing a built-in rule without extends
	dir := setupTestProject(t)
	writeTestFile(t, dir, "archextract.yaml", strings.Replace(testConfig, "    ui: notUsed\n", "", 1))
	err = runExtract(context.Background(), extractOptions{rootDir: dir, quiet: true})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "out", "components.json"))
	assert.True(t, os.IsNotExist(statErr))

	// Test: explicit config path that does not exist
	err = runExtract(context.Background(), extractOptions{
		rootDir:    dir,
		configFile: filepath.Join(dir, "missing.yaml"),
		quiet:      true,
	})
	require.Error(t, err)
}

func TestRunExtract_Watch(t *testing.T) {
	t.Parallel()

	dir := setupTestProject(t)
	output := filepath.Join(dir, "out", "components.json")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- runExtract(ctx, extractOptions{
			rootDir:  dir,
			watch:    true,
			quiet:    true,
			debounce: 100 * time.Millisecond,
			stderr:   &bytes.Buffer{},
		})
	}()

	hasComponent := func(name string) func() bool {
		return func() bool {
			w, err := indexer.NewAtomicWriter(output)
			if err != nil {
				return false
			}
			result, err := w.ReadResult()
			if err != nil {
				return false
			}
			for _, c := range result.Components {
				if string(c.Type)+":"+c.Name == name {
					return true
				}
			}
			return false
		}
	}

	require.Eventually(t, hasComponent("useCase:PlaceOrderUseCase"), 5*time.Second, 50*time.Millisecond)

	// Wait for the watcher to start after the initial run
	time.Sleep(500 * time.Millisecond)

	// Test: new source file is picked up
	writeTestFile(t, dir, "src/orders/ship-order.ts", "export class ShipOrderUseCase {}\n")
	require.Eventually(t, hasComponent("useCase:ShipOrderUseCase"), 5*time.Second, 50*time.Millisecond)

	// Test: config change is reloaded
	writeTestFile(t, dir, "archextract.yaml", strings.Replace(testConfig, "suffix: UseCase", "suffix: Controller", 1))
	require.Eventually(t, hasComponent("useCase:OrderController"), 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch mode did not stop after cancellation")
	}
}

func TestProject_RelPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	p := &project{rootDir: root}

	assert.Equal(t, "archextract.yaml", p.relPath(filepath.Join(root, "archextract.yaml")))
	assert.Equal(t, "out/components.json", p.relPath(filepath.Join("out", "components.json")))
	assert.Equal(t, "", p.relPath(filepath.Join(filepath.Dir(root), "elsewhere.yaml")))
	assert.Equal(t, "", p.relPath(""))
}
