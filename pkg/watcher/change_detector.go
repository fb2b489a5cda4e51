package watcher

// ChangeAnalysis describes what changed and whether the analysis must re-run
type ChangeAnalysis struct {
	NeedRerun    bool
	Reason       string
	ChangedFiles []string
}

// AnalyzeChanges determines whether a debounced change calls for a new run
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeWritten:
		analysis.NeedRerun = true
		analysis.Reason = "model changed"

	case ChangeTypeRemoved:
		// Keep the last results until the file comes back
		analysis.Reason = "model removed"
	}

	return analysis
}
