package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoard-dev/hoard/internal/catalog"
	"github.com/hoard-dev/hoard/internal/config"
	"github.com/hoard-dev/hoard/internal/discover"
	"github.com/hoard-dev/hoard/internal/identity"
	"github.com/hoard-dev/hoard/internal/ignore"
	"github.com/hoard-dev/hoard/internal/meta"
	"github.com/hoard-dev/hoard/internal/pyextract"
	"github.com/hoard-dev/hoard/internal/reconcile"
)

func RunScan(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	recursive, _ := cmd.Flags().GetBool("recursive")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	excludes, _ := cmd.Flags().GetStringSlice("exclude")
	dbConfig, _ := cmd.Flags().GetString("db-config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load(dbConfig)
	if err != nil {
		return &ExitError{Code: reconcile.ExitFailure, Err: err}
	}

	store, err := catalog.OpenSQLite(cfg.DBPath)
	if err != nil {
		return &ExitError{Code: reconcile.ExitFailure, Err: err}
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := store.Ping(ctx); err != nil {
		return &ExitError{Code: reconcile.ExitFailure, Err: err}
	}

	matcher := ignore.NewMatcher(append(append([]string{}, cfg.Exclude...), excludes...))
	files, err := discover.PythonFiles(path, recursive, matcher)
	if err != nil {
		return &ExitError{Code: reconcile.ExitFailure, Err: err}
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return &ExitError{Code: reconcile.ExitFailure, Err: err}
	}
	if info, statErr := os.Stat(root); statErr == nil && !info.IsDir() {
		root = filepath.Dir(root)
	}

	start := time.Now()
	stats := &reconcile.Stats{}
	extractor := pyextract.New()
	bar := newScanProgress(len(files), verbose || asJSON)

	for _, file := range files {
		err := scanFile(ctx, scanFileArgs{
			extractor: extractor,
			store:     store,
			file:      file,
			root:      root,
			dryRun:    dryRun,
			verbose:   verbose,
		}, stats)
		if err != nil {
			bar.Done()
			return &ExitError{Code: reconcile.ExitFailure, Err: err}
		}
		stats.FilesScanned++
		bar.Step()
	}
	bar.Done()

	total, err := store.Count(ctx)
	if err != nil {
		total = -1
	}

	summary := BuildScanSummary(stats, ScanContext{
		RootPath:     root,
		CatalogPath:  store.Path(),
		CatalogTotal: total,
		DryRun:       dryRun,
		Duration:     time.Since(start),
	})
	if err := PrintScanSummary(summary, asJSON); err != nil {
		return &ExitError{Code: reconcile.ExitFailure, Err: err}
	}

	if code := stats.ExitCode(); code != reconcile.ExitSuccess {
		return &ExitError{Code: code}
	}
	return nil
}

type scanFileArgs struct {
	extractor *pyextract.Extractor
	store     catalog.Store
	file      string
	root      string
	dryRun    bool
	verbose   bool
}

// scanFile extracts one file and reconciles every qualifying callable.
// Parse failures and per-record write errors are folded into stats; a
// catalog that became unreachable is returned and aborts the run.
func scanFile(ctx context.Context, args scanFileArgs, stats *reconcile.Stats) error {
	rel := meta.RelPath(args.root, args.file)

	result, err := args.extractor.ExtractFile(args.file)
	if err != nil {
		stats.ParseFailures = append(stats.ParseFailures, reconcile.ParseFailure{
			File:    rel,
			Message: err.Error(),
		})
		if args.verbose {
			fmt.Fprintf(os.Stderr, "parse failed %s: %v\n", rel, err)
		}
		return nil
	}

	stats.CallablesFound += len(result.Records) + len(result.Skips)
	for _, skip := range result.Skips {
		switch skip.Reason {
		case pyextract.SkipNotStandalone:
			stats.SkippedNotStandalone++
		case pyextract.SkipNoDocstring:
			stats.SkippedNoDocstring++
		}
		if args.verbose {
			fmt.Fprintf(os.Stderr, "skip %s:%d %s (%s)\n", rel, skip.Line, skip.Name, skip.Reason)
		}
	}

	for _, rec := range result.Records {
		if err := reconcileRecord(ctx, args, rec, rel, stats); err != nil {
			return err
		}
	}
	return nil
}

// recordError folds one failed catalog operation into stats, except for
// connectivity loss, which is returned so the run aborts instead of
// degrading into a wall of per-record errors.
func recordError(err error, rel, name string, stats *reconcile.Stats) error {
	if errors.Is(err, catalog.ErrUnreachable) {
		return err
	}
	stats.UploadErrors = append(stats.UploadErrors, reconcile.UploadError{
		File: rel, Callable: name, Message: err.Error(),
	})
	return nil
}

func reconcileRecord(ctx context.Context, args scanFileArgs, rec pyextract.Record, rel string, stats *reconcile.Stats) error {
	cid, vid, err := identity.Derive(rec)
	if err != nil {
		return recordError(err, rel, rec.Name, stats)
	}

	disposition, _, err := reconcile.Classify(ctx, args.store, cid, vid)
	if err != nil {
		return recordError(err, rel, rec.Name, stats)
	}

	switch disposition {
	case reconcile.Duplicate:
		stats.SkippedDuplicates++
	case reconcile.New:
		if !args.dryRun {
			entry := catalog.Entry{
				CID:       cid,
				VID:       vid,
				Signature: rec.Signature,
				Docstring: rec.Docstring,
				Body:      rec.BodySource,
			}
			m := catalog.Meta{
				Name:     rec.Name,
				Kind:     rec.Kind.String(),
				IsTest:   meta.IsTest(rec.Name, rel),
				FilePath: rel,
				Tags:     meta.Tags(rel),
			}
			if err := args.store.Insert(ctx, entry, m); err != nil {
				return recordError(err, rel, rec.Name, stats)
			}
		}
		stats.NewUploads++
	case reconcile.Changed:
		if !args.dryRun {
			if err := args.store.UpdateVersion(ctx, cid, vid, rec.BodySource); err != nil {
				return recordError(err, rel, rec.Name, stats)
			}
		}
		stats.Updated++
	}

	if args.verbose {
		fmt.Fprintf(os.Stderr, "%s %s:%d %s cid=%s\n", disposition, rel, rec.StartLine, rec.Name, shortID(cid))
	}
	return nil
}

// shortID trims a CID for log lines; full identifiers only matter in
// machine-readable output.
func shortID(cid string) string {
	if len(cid) <= 16 {
		return cid
	}
	return cid[:16] + "..."
}
