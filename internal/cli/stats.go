package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hoard-dev/hoard/internal/catalog"
	"github.com/hoard-dev/hoard/internal/config"
	"github.com/hoard-dev/hoard/internal/reconcile"
)

type StatsSummary struct {
	CatalogPath string           `json:"catalog_path"`
	Total       int64            `json:"total"`
	ByKind      map[string]int64 `json:"by_kind,omitempty"`
}

func RunStats(cmd *cobra.Command, args []string) error {
	dbConfig, _ := cmd.Flags().GetString("db-config")
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

	total, err := store.Count(ctx)
	if err != nil {
		return &ExitError{Code: reconcile.ExitFailure, Err: err}
	}
	byKind, err := store.CountByKind(ctx)
	if err != nil {
		return &ExitError{Code: reconcile.ExitFailure, Err: err}
	}

	summary := StatsSummary{CatalogPath: store.Path(), Total: total, ByKind: byKind}
	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}

	fmt.Printf("catalog: %s\n", summary.CatalogPath)
	fmt.Printf("entries: %d\n", summary.Total)
	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Printf("  %s: %d\n", kind, byKind[kind])
	}
	return nil
}
