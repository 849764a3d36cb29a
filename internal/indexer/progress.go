package indexer

// ProgressReporter provides callbacks for reporting extraction progress.
// Implementations can display progress bars, log messages, or remain silent.
// OnFileProcessed is called from parse workers concurrently.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files int)

	// OnFileProcessingStart is called before parsing files.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each file is parsed or served from cache.
	OnFileProcessed(fileName string)

	// OnExtractionStart is called before rules are applied to the parsed files.
	OnExtractionStart()

	// OnComplete is called when extraction completes successfully.
	OnComplete(stats *ProcessingStats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                    {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files int)        {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessed(fileName string)      {}
func (n *NoOpProgressReporter) OnExtractionStart()                   {}
func (n *NoOpProgressReporter) OnComplete(stats *ProcessingStats)    {}
