package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/archextract/internal/indexer"
	"github.com/mvp-joe/archextract/internal/storage"
	"github.com/mvp-joe/archextract/internal/watcher"
)

var (
	outputFlag   string
	dbFlag       string
	keepRunsFlag int
	quietFlag    bool
	watchFlag    bool
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [dir]",
	Short: "Extract architecture components from a project",
	Long: `Extract discovers the source files of a project, applies the module rules from
archextract.yaml and writes the detected components as JSON.

Examples:
  # Extract the current directory into the configured output (components.json)
  archextract extract

  # Write JSON to stdout without progress output
  archextract extract ./shop -o - -q

  # Also record the run in a SQLite database
  archextract extract --db .archextract/components.db

  # Re-extract whenever sources or the config change
  archextract extract --watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDir := "."
		if len(args) > 0 {
			rootDir = args[0]
		}
		return runExtract(cmd.Context(), extractOptions{
			rootDir:    rootDir,
			configFile: configPath(),
			output:     outputFlag,
			dbPath:     dbFlag,
			keepRuns:   keepRunsFlag,
			watch:      watchFlag,
			quiet:      quietFlag,
			verbose:    verboseOutput(),
			stdout:     cmd.OutOrStdout(),
			stderr:     cmd.ErrOrStderr(),
		})
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&outputFlag, "output", "o", "", `JSON output path, "-" for stdout (default from config)`)
	extractCmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database to record runs in")
	extractCmd.Flags().IntVar(&keepRunsFlag, "keep-runs", 0, "number of runs kept in the database (0 keeps all)")
	extractCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	extractCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and re-extract")
}

type extractOptions struct {
	rootDir    string
	configFile string
	output     string
	dbPath     string
	keepRuns   int
	watch      bool
	quiet      bool
	verbose    bool
	debounce   time.Duration
	stdout     io.Writer
	stderr     io.Writer
}

func runExtract(ctx context.Context, opts extractOptions) error {
	s, err := newExtractSession(opts)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.run(ctx, nil); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("extraction cancelled")
		}
		return err
	}

	if !opts.watch {
		return nil
	}
	return s.watch(ctx)
}

// extractSession holds the state shared by the runs of one extract command.
// In watch mode a config change swaps the project and indexer.
type extractSession struct {
	opts extractOptions

	mu      sync.RWMutex
	project *project
	idx     indexer.Indexer

	db    *sql.DB
	store *storage.ComponentWriter
}

func newExtractSession(opts extractOptions) (*extractSession, error) {
	if opts.stdout == nil {
		opts.stdout = os.Stdout
	}
	if opts.stderr == nil {
		opts.stderr = os.Stderr
	}

	p, err := loadProject(opts.rootDir, opts.configFile)
	if err != nil {
		return nil, err
	}

	s := &extractSession{opts: opts, project: p}
	if s.idx, err = s.newIndexer(p); err != nil {
		return nil, err
	}

	if opts.dbPath != "" {
		dbPath := opts.dbPath
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(p.rootDir, dbPath)
		}
		if s.db, err = storage.Open(dbPath); err != nil {
			s.idx.Close()
			return nil, err
		}
		s.store = storage.NewComponentWriter(s.db)
	}

	return s, nil
}

func (s *extractSession) newIndexer(p *project) (indexer.Indexer, error) {
	idx, err := indexer.New(indexer.Config{
		RootDir:  p.rootDir,
		Resolved: p.resolved,
		Progress: NewCLIProgressReporter(s.opts.stderr, s.opts.quiet, s.opts.verbose),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}
	return idx, nil
}

func (s *extractSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx != nil {
		s.idx.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// outputPath returns where JSON is written: "-" for stdout, "" for nowhere,
// otherwise an absolute path.
func (s *extractSession) outputPath() string {
	out := s.opts.output
	if out == "" {
		out = s.project.config.Output
	}
	if out == "" || out == "-" || filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(s.project.rootDir, out)
}

// run extracts once. changed lists the files reported by the watcher, and
// a change to the config file reloads it first.
func (s *extractSession) run(ctx context.Context, changed []string) error {
	s.mu.Lock()
	if len(changed) > 0 && slices.Contains(changed, s.project.relPath(s.project.configPath)) {
		if err := s.reload(); err != nil {
			s.mu.Unlock()
			return err
		}
	} else if len(changed) > 0 {
		s.idx.Invalidate(changed...)
	}
	idx := s.idx
	s.mu.Unlock()

	result, err := idx.Index(ctx)
	if err != nil {
		return err
	}

	if s.opts.verbose {
		for _, c := range result.Components {
			log.Printf("%s %s/%s (%s:%d)", c.Type, c.Domain, c.Name, c.Location.File, c.Location.Line)
		}
	}

	return s.write(ctx, result)
}

// reload re-reads the config file and replaces the indexer. The previous
// project stays active when the new config is invalid.
func (s *extractSession) reload() error {
	p, err := loadProject(s.project.rootDir, s.project.configPath)
	if err != nil {
		return err
	}
	idx, err := s.newIndexer(p)
	if err != nil {
		return err
	}

	s.idx.Close()
	s.project, s.idx = p, idx
	if !s.opts.quiet {
		log.Printf("Reloaded configuration from %s", p.configPath)
	}
	return nil
}

func (s *extractSession) write(ctx context.Context, result *indexer.Result) error {
	switch out := s.outputPath(); out {
	case "":
	case "-":
		enc := json.NewEncoder(s.opts.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to write components: %w", err)
		}
	default:
		w, err := indexer.NewAtomicWriter(out)
		if err != nil {
			return err
		}
		if err := w.WriteResult(result); err != nil {
			return err
		}
		if !s.opts.quiet {
			log.Printf("Wrote %s components to %s", formatNumber(len(result.Components)), out)
		}
	}

	if s.store == nil {
		return nil
	}

	run := &storage.Run{
		ID:              result.RunID,
		RootDir:         result.RootDir,
		GeneratedAt:     result.GeneratedAt,
		FilesDiscovered: result.Stats.FilesDiscovered,
		Duration:        result.Stats.ProcessingTime,
	}
	if err := s.store.WriteRun(ctx, run, result.Components); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	if s.opts.keepRuns > 0 {
		if _, err := s.store.PruneRuns(ctx, s.opts.keepRuns); err != nil {
			return err
		}
	}
	return nil
}

// watch re-extracts on source or config changes until ctx is cancelled.
func (s *extractSession) watch(ctx context.Context) error {
	fw, err := watcher.NewFileWatcher(s.project.rootDir, watcher.Options{
		Include:  s.watches,
		SkipDir:  s.skipsDir,
		Debounce: s.opts.debounce,
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if !s.opts.quiet {
		log.Println("Watching for changes... (press Ctrl+C to stop)")
	}

	coord := watcher.NewWatchCoordinator(fw, watcher.RunnerFunc(s.run))
	if err := coord.Start(ctx); err != nil {
		return fmt.Errorf("watch mode failed: %w", err)
	}

	if !s.opts.quiet {
		log.Println("Watch mode stopped")
	}
	return nil
}

// watches reports whether a change to relPath should trigger a run.
func (s *extractSession) watches(relPath string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if relPath == s.project.relPath(s.project.configPath) {
		return true
	}
	return s.idx.Includes(relPath)
}

func (s *extractSession) skipsDir(relPath string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.SkipsDir(relPath)
}
