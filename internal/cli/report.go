package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hoard-dev/hoard/internal/reconcile"
)

// ScanContext carries the run-level facts that sit outside the counters.
type ScanContext struct {
	RootPath     string
	CatalogPath  string
	CatalogTotal int64
	DryRun       bool
	Duration     time.Duration
}

type UploadErrorSummary struct {
	File     string `json:"file"`
	Callable string `json:"callable"`
	Message  string `json:"message"`
}

type ParseFailureSummary struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

type ScanSummary struct {
	Mode                 string                `json:"mode"`
	RootPath             string                `json:"root_path"`
	CatalogPath          string                `json:"catalog_path"`
	DryRun               bool                  `json:"dry_run"`
	FilesScanned         int                   `json:"files_scanned"`
	CallablesFound       int                   `json:"callables_found"`
	SkippedNotStandalone int                   `json:"skipped_not_standalone"`
	SkippedNoDocstring   int                   `json:"skipped_no_docstring"`
	ValidCallables       int                   `json:"valid_callables"`
	NewUploads           int                   `json:"new_uploads"`
	Duplicates           int                   `json:"duplicates"`
	Updated              int                   `json:"updated"`
	Errors               int                   `json:"errors"`
	CatalogTotal         int64                 `json:"catalog_total"`
	DurationMS           int64                 `json:"duration_ms"`
	ExitCode             int                   `json:"exit_code"`
	UploadErrors         []UploadErrorSummary  `json:"upload_errors,omitempty"`
	ParseFailures        []ParseFailureSummary `json:"parse_failures,omitempty"`
}

func BuildScanSummary(stats *reconcile.Stats, scanCtx ScanContext) ScanSummary {
	summary := ScanSummary{
		Mode:                 "scan",
		RootPath:             scanCtx.RootPath,
		CatalogPath:          scanCtx.CatalogPath,
		DryRun:               scanCtx.DryRun,
		FilesScanned:         stats.FilesScanned,
		CallablesFound:       stats.CallablesFound,
		SkippedNotStandalone: stats.SkippedNotStandalone,
		SkippedNoDocstring:   stats.SkippedNoDocstring,
		ValidCallables:       stats.ValidCallables(),
		NewUploads:           stats.NewUploads,
		Duplicates:           stats.SkippedDuplicates,
		Updated:              stats.Updated,
		Errors:               stats.TotalErrors(),
		CatalogTotal:         scanCtx.CatalogTotal,
		DurationMS:           scanCtx.Duration.Milliseconds(),
		ExitCode:             stats.ExitCode(),
	}
	for _, e := range stats.UploadErrors {
		summary.UploadErrors = append(summary.UploadErrors, UploadErrorSummary(e))
	}
	for _, f := range stats.ParseFailures {
		summary.ParseFailures = append(summary.ParseFailures, ParseFailureSummary(f))
	}
	return summary
}

// PrintScanSummary writes the run report to stdout, as indented JSON
// when asJSON is set. The text form lists at most five errors of each
// kind; the JSON form always carries all of them.
func PrintScanSummary(summary ScanSummary, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}

	mode := "scan"
	if summary.DryRun {
		mode = "scan (dry-run)"
	}
	fmt.Printf("%s complete in %dms\n", mode, summary.DurationMS)
	if summary.CatalogTotal >= 0 {
		fmt.Printf("catalog: %s (total=%d)\n", summary.CatalogPath, summary.CatalogTotal)
	} else {
		fmt.Printf("catalog: %s\n", summary.CatalogPath)
	}
	fmt.Printf("files: scanned=%d\n", summary.FilesScanned)
	fmt.Printf("callables: found=%d valid=%d skipped_not_standalone=%d skipped_no_docstring=%d\n",
		summary.CallablesFound, summary.ValidCallables,
		summary.SkippedNotStandalone, summary.SkippedNoDocstring)
	fmt.Printf("writes: new=%d duplicates=%d updated=%d\n",
		summary.NewUploads, summary.Duplicates, summary.Updated)

	if summary.Errors == 0 {
		return nil
	}
	fmt.Printf("errors: %d\n", summary.Errors)
	shown := 0
	for _, f := range summary.ParseFailures {
		if shown == 5 {
			break
		}
		fmt.Printf("  parse %s: %s\n", f.File, f.Message)
		shown++
	}
	for _, e := range summary.UploadErrors {
		if shown == 5 {
			break
		}
		fmt.Printf("  upload %s %s: %s\n", e.File, e.Callable, e.Message)
		shown++
	}
	if remaining := summary.Errors - shown; remaining > 0 {
		fmt.Printf("  ... (+%d more)\n", remaining)
	}
	return nil
}
