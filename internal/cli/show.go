package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/archextract/internal/components"
	"github.com/mvp-joe/archextract/internal/storage"
)

var (
	showDB     string
	showRun    string
	showType   string
	showDomain string
	showJSON   bool
	runsLimit  int
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show components recorded in a database",
	Long: `Show prints the components of a run recorded with "extract --db".
Defaults to the most recent run.

Examples:
  # Components of the latest run
  archextract show --db .archextract/components.db

  # Only the APIs of the orders module, as JSON
  archextract show --db components.db --type api --domain orders --json
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShow(cmd.Context(), cmd.OutOrStdout(), showOptions{
			dbPath: showDB,
			runID:  showRun,
			filter: storage.ComponentFilter{Type: showType, Domain: showDomain},
			json:   showJSON,
		})
	},
}

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List extraction runs recorded in a database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRuns(cmd.Context(), cmd.OutOrStdout(), showDB, runsLimit, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(runsCmd)

	for _, cmd := range []*cobra.Command{showCmd, runsCmd} {
		cmd.Flags().StringVar(&showDB, "db", "", "SQLite database written by extract --db")
		cmd.MarkFlagRequired("db")
	}
	showCmd.Flags().StringVar(&showRun, "run", "", "run ID (default is the latest run)")
	showCmd.Flags().StringVar(&showType, "type", "", "only components of this type")
	showCmd.Flags().StringVar(&showDomain, "domain", "", "only components of this module")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output as JSON")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "maximum number of runs to list (0 lists all)")
}

type showOptions struct {
	dbPath string
	runID  string
	filter storage.ComponentFilter
	json   bool
}

// openExisting opens a database that extract has already written.
func openExisting(dbPath string) (*storage.ComponentReader, func(), error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, nil, fmt.Errorf("database not found: %s", dbPath)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewComponentReader(db), func() { db.Close() }, nil
}

func runShow(ctx context.Context, out io.Writer, opts showOptions) error {
	reader, closeDB, err := openExisting(opts.dbPath)
	if err != nil {
		return err
	}
	defer closeDB()

	var run *storage.Run
	if opts.runID != "" {
		run, err = reader.GetRun(ctx, opts.runID)
	} else {
		run, err = reader.LatestRun(ctx)
	}
	if errors.Is(err, storage.ErrRunNotFound) {
		if opts.runID != "" {
			return fmt.Errorf("run %s not found", opts.runID)
		}
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	if err != nil {
		return err
	}

	comps, err := reader.GetComponents(ctx, run.ID, opts.filter)
	if err != nil {
		return err
	}

	if opts.json {
		drafts := make([]components.DraftComponent, 0, len(comps))
		for _, c := range comps {
			drafts = append(drafts, c.Draft())
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"runId":       run.ID,
			"generatedAt": run.GeneratedAt,
			"components":  drafts,
		})
	}

	fmt.Fprintf(out, "Run %s (%s, %s components)\n", run.ID, run.GeneratedAt.Format(time.RFC3339), formatNumber(run.ComponentCount))
	counts, err := reader.CountByType(ctx, run.ID)
	if err != nil {
		return err
	}
	if len(counts) > 0 {
		fmt.Fprintf(out, "By type: %s\n", formatTypeCounts(counts))
	}
	if len(comps) == 0 {
		fmt.Fprintln(out, "No matching components")
		return nil
	}
	for _, c := range comps {
		fmt.Fprintf(out, "  %-13s %-20s %s  %s:%d\n", c.Type, c.Name, c.Domain, c.FilePath, c.Line)
		if len(c.Metadata) > 0 {
			meta, err := json.Marshal(c.Metadata)
			if err == nil {
				fmt.Fprintf(out, "  %-13s %s\n", "", meta)
			}
		}
	}
	return nil
}

// formatTypeCounts renders per-type counts sorted by type, e.g. "api 3, useCase 1".
func formatTypeCounts(counts map[string]int) string {
	types := make([]string, 0, len(counts))
	for typ := range counts {
		types = append(types, typ)
	}
	sort.Strings(types)

	parts := make([]string, 0, len(types))
	for _, typ := range types {
		parts = append(parts, fmt.Sprintf("%s %s", typ, formatNumber(counts[typ])))
	}
	return strings.Join(parts, ", ")
}

func runRuns(ctx context.Context, out io.Writer, dbPath string, limit int, now time.Time) error {
	reader, closeDB, err := openExisting(dbPath)
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := reader.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	fmt.Fprintf(out, "Runs (%d):\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(out, "  %s\n", run.ID)
		fmt.Fprintf(out, "    Root:       %s\n", run.RootDir)
		fmt.Fprintf(out, "    Generated:  %s (%s)\n", run.GeneratedAt.Format(time.RFC3339), formatTimeSince(run.GeneratedAt, now))
		fmt.Fprintf(out, "    Files:      %s\n", formatNumber(run.FilesDiscovered))
		fmt.Fprintf(out, "    Components: %s\n", formatNumber(run.ComponentCount))
		fmt.Fprintf(out, "    Took:       %s\n", formatDuration(run.Duration))
	}
	return nil
}
