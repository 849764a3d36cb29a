package watcher

import (
	"context"
	"log"
	"sync"
)

// WatchCoordinator routes debounced file changes from a FileWatcher to a Runner.
// The watcher is paused while a run is in progress so that changes made during
// the run are batched into the next one.
type WatchCoordinator struct {
	files  FileWatcher
	runner Runner

	ctx context.Context
	wg  sync.WaitGroup
}

// NewWatchCoordinator creates a new watch coordinator.
func NewWatchCoordinator(files FileWatcher, runner Runner) *WatchCoordinator {
	return &WatchCoordinator{
		files:  files,
		runner: runner,
	}
}

// Start begins routing file changes to the runner.
// Blocks until the context is cancelled or the watcher fails to start.
func (c *WatchCoordinator) Start(ctx context.Context) error {
	c.ctx = ctx
	filesErr := make(chan error, 1)

	go func() {
		if err := c.files.Start(ctx, c.handleFileChange); err != nil {
			filesErr <- err
		}
	}()

	select {
	case err := <-filesErr:
		c.cleanup()
		return err
	case <-ctx.Done():
		c.cleanup()
		return nil
	}
}

// cleanup stops the watcher and waits for an in-flight run.
func (c *WatchCoordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		log.Printf("Warning: file watcher stop failed: %v", err)
	}
	c.wg.Wait()
}

// handleFileChange pauses the watcher and runs extraction in the background.
// Resume fires again with anything that changed in the meantime.
func (c *WatchCoordinator) handleFileChange(files []string) {
	if len(files) == 0 || c.ctx.Err() != nil {
		return
	}

	c.files.Pause()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(files)
		c.files.Resume()
	}()
}

func (c *WatchCoordinator) run(files []string) {
	log.Printf("Processing %d file change(s)...", len(files))

	if err := c.runner.Run(c.ctx, files); err != nil && c.ctx.Err() == nil {
		log.Printf("Error: extraction failed: %v", err)
	}
}
