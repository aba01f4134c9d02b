package reconcile

// Exit codes for a completed run.
const (
	ExitSuccess = 0
	ExitPartial = 1
	ExitFailure = 2
)

// UploadError records one failed catalog operation with enough context
// to investigate it individually.
type UploadError struct {
	File     string
	Callable string
	Message  string
}

// ParseFailure records one file the parser rejected.
type ParseFailure struct {
	File    string
	Message string
}

// Stats folds per-file, per-callable outcomes into run-level counters.
// All updates are simple increments; finalization derives the process
// exit disposition.
type Stats struct {
	FilesScanned         int
	CallablesFound       int
	SkippedNotStandalone int
	SkippedNoDocstring   int
	SkippedDuplicates    int
	NewUploads           int
	Updated              int
	UploadErrors         []UploadError
	ParseFailures        []ParseFailure
}

// ValidCallables is the count of callables that survived the standalone
// and docstring filters.
func (s *Stats) ValidCallables() int {
	return s.CallablesFound - s.SkippedNotStandalone - s.SkippedNoDocstring
}

// TotalErrors combines record-scoped upload errors with file-scoped
// parse failures.
func (s *Stats) TotalErrors() int {
	return len(s.UploadErrors) + len(s.ParseFailures)
}

// ExitCode derives the run disposition: 0 when every record processed
// cleanly, 1 when at least one upload or update succeeded alongside
// errors, 2 when errors occurred and nothing was written. A catalog
// that is unreachable at startup exits 2 before any aggregation.
func (s *Stats) ExitCode() int {
	if s.TotalErrors() == 0 {
		return ExitSuccess
	}
	if s.NewUploads+s.Updated > 0 {
		return ExitPartial
	}
	return ExitFailure
}
