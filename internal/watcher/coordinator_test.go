package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for WatchCoordinator:
// - file changes trigger a run with the changed files
// - the watcher is paused during a run and resumed afterwards
// - changes during a run are delivered to the next run on resume
// - a failing run is logged and watching continues
// - a watcher start error is returned
// - context cancellation stops the watcher and returns nil

// mockFileWatcher implements FileWatcher for testing.
type mockFileWatcher struct {
	mu                sync.Mutex
	startErr          error
	callback          func(files []string)
	started           chan struct{}
	paused            bool
	pauseCount        int
	resumeCount       int
	stopCalled        bool
	accumulatedEvents [][]string
}

func newMockFileWatcher() *mockFileWatcher {
	return &mockFileWatcher{started: make(chan struct{})}
}

func (m *mockFileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	m.mu.Lock()
	m.callback = callback
	startErr := m.startErr
	m.mu.Unlock()

	if startErr != nil {
		return startErr
	}
	close(m.started)
	return nil
}

func (m *mockFileWatcher) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	return nil
}

func (m *mockFileWatcher) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCount++
	m.paused = true
}

func (m *mockFileWatcher) Resume() {
	m.mu.Lock()
	m.resumeCount++
	m.paused = false
	pending := m.accumulatedEvents
	m.accumulatedEvents = nil
	callback := m.callback
	m.mu.Unlock()

	var merged []string
	for _, files := range pending {
		merged = append(merged, files...)
	}
	if len(merged) > 0 && callback != nil {
		callback(merged)
	}
}

func (m *mockFileWatcher) triggerFileChange(files []string) {
	m.mu.Lock()
	if m.paused {
		m.accumulatedEvents = append(m.accumulatedEvents, files)
		m.mu.Unlock()
		return
	}
	callback := m.callback
	m.mu.Unlock()

	if callback != nil {
		callback(files)
	}
}

func (m *mockFileWatcher) counts() (pauses, resumes int, stopped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCount, m.resumeCount, m.stopCalled
}

// mockRunner implements Runner for testing.
type mockRunner struct {
	mu    sync.Mutex
	err   error
	block chan struct{}
	calls [][]string
	done  chan struct{}
}

func newMockRunner() *mockRunner {
	return &mockRunner{done: make(chan struct{}, 10)}
}

func (m *mockRunner) Run(ctx context.Context, changed []string) error {
	m.mu.Lock()
	m.calls = append(m.calls, changed)
	block := m.block
	err := m.err
	m.mu.Unlock()

	if block != nil {
		<-block
	}
	m.done <- struct{}{}
	return err
}

func (m *mockRunner) waitRun(t *testing.T) {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run not called after timeout")
	}
}

func (m *mockRunner) snapshot() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

func startCoordinator(t *testing.T, files *mockFileWatcher, runner Runner) (context.CancelFunc, chan error) {
	t.Helper()
	coord := NewWatchCoordinator(files, runner)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- coord.Start(ctx) }()

	select {
	case <-files.started:
	case <-time.After(2 * time.Second):
		t.Fatal("file watcher not started")
	}
	return cancel, errCh
}

func TestWatchCoordinator_FileChangeTriggersRun(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	runner := newMockRunner()
	cancel, errCh := startCoordinator(t, files, runner)

	files.triggerFileChange([]string{"src/a.ts", "src/b.ts"})
	runner.waitRun(t)

	cancel()
	require.NoError(t, <-errCh)

	assert.Equal(t, [][]string{{"src/a.ts", "src/b.ts"}}, runner.snapshot())
	pauses, resumes, stopped := files.counts()
	assert.Equal(t, 1, pauses)
	assert.Equal(t, 1, resumes)
	assert.True(t, stopped)
}

func TestWatchCoordinator_ChangesDuringRun(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	runner := newMockRunner()
	runner.block = make(chan struct{})
	cancel, errCh := startCoordinator(t, files, runner)
	defer func() {
		cancel()
		<-errCh
	}()

	files.triggerFileChange([]string{"a.ts"})

	// Queued while the first run is blocked
	require.Eventually(t, func() bool { return len(runner.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	files.triggerFileChange([]string{"b.ts"})
	files.triggerFileChange([]string{"c.ts"})

	runner.mu.Lock()
	close(runner.block)
	runner.block = nil
	runner.mu.Unlock()

	runner.waitRun(t)
	runner.waitRun(t)

	assert.Equal(t, [][]string{{"a.ts"}, {"b.ts", "c.ts"}}, runner.snapshot())
}

func TestWatchCoordinator_RunErrorContinues(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	runner := newMockRunner()
	runner.err = errors.New("extraction failed")
	cancel, errCh := startCoordinator(t, files, runner)

	files.triggerFileChange([]string{"a.ts"})
	runner.waitRun(t)
	require.Eventually(t, func() bool {
		_, resumes, _ := files.counts()
		return resumes == 1
	}, 2*time.Second, 10*time.Millisecond)

	files.triggerFileChange([]string{"b.ts"})
	runner.waitRun(t)

	cancel()
	require.NoError(t, <-errCh)
	assert.Len(t, runner.snapshot(), 2)
}

func TestWatchCoordinator_StartError(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	files.startErr = errors.New("watch failed")

	coord := NewWatchCoordinator(files, newMockRunner())
	err := coord.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch failed")

	_, _, stopped := files.counts()
	assert.True(t, stopped)
}

func TestWatchCoordinator_IgnoresChangesAfterCancel(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	runner := newMockRunner()
	cancel, errCh := startCoordinator(t, files, runner)

	cancel()
	require.NoError(t, <-errCh)

	files.triggerFileChange([]string{"late.ts"})
	assert.Empty(t, runner.snapshot())
}

func TestRunnerFunc(t *testing.T) {
	t.Parallel()

	var got []string
	r := RunnerFunc(func(ctx context.Context, changed []string) error {
		got = changed
		return nil
	})
	require.NoError(t, r.Run(context.Background(), []string{"x.ts"}))
	assert.Equal(t, []string{"x.ts"}, got)
}
