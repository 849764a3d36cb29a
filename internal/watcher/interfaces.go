package watcher

import "context"

// FileWatcher monitors project files for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching the project, calling callback with debounced file changes.
	// Changed files are reported relative to the project root, slash-separated and sorted.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// Runner re-runs component extraction after files changed.
type Runner interface {
	// Run extracts components again. changed lists the files that triggered the run.
	Run(ctx context.Context, changed []string) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, changed []string) error

// Run calls f(ctx, changed).
func (f RunnerFunc) Run(ctx context.Context, changed []string) error {
	return f(ctx, changed)
}
