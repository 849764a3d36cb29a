package cli

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/archextract/internal/indexer"
)

// CLIProgressReporter implements progress reporting with progress bars.
// Everything is written to out so stdout stays free for JSON output.
type CLIProgressReporter struct {
	quiet   bool
	verbose bool
	out     io.Writer

	mu             sync.Mutex
	fileBar        *progressbar.ProgressBar
	totalFiles     int
	processedFiles int
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(out io.Writer, quiet, verbose bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:   quiet,
		verbose: verbose,
		out:     out,
	}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet {
		return
	}
	log.Println("Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(files int) {
	if c.quiet {
		return
	}
	log.Printf("Processing %s source files\n", formatNumber(files))
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalFiles = totalFiles
	c.processedFiles = 0

	// Per-file logging replaces the bar in verbose mode
	if c.verbose || totalFiles == 0 {
		c.fileBar = nil
		return
	}

	c.fileBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Parsing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnFileProcessed(fileName string) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.processedFiles++
	if c.verbose {
		log.Printf("[%d/%d] %s", c.processedFiles, c.totalFiles, fileName)
		return
	}
	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnExtractionStart() {
	if c.quiet {
		return
	}
	c.mu.Lock()
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}
	c.mu.Unlock()

	log.Println("Extracting components...")
}

func (c *CLIProgressReporter) OnComplete(stats *indexer.ProcessingStats) {
	if c.quiet {
		return
	}

	fmt.Fprintf(c.out, "✓ Extraction complete: %s components from %s files in %.1fs\n",
		formatNumber(stats.Components),
		formatNumber(stats.FilesDiscovered),
		stats.ProcessingTime.Seconds())
	fmt.Fprintf(c.out, "  Parsed: %s  Cached: %s\n",
		formatNumber(stats.FilesParsed),
		formatNumber(stats.FilesCached))

	types := make([]string, 0, len(stats.ComponentsByType))
	for t := range stats.ComponentsByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(c.out, "  %-13s %s\n", t+":", formatNumber(stats.ComponentsByType[t]))
	}
}
