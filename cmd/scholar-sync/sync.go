package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-sync/internal/config"
	"github.com/pdiddy/scholar-sync/internal/index"
	"github.com/pdiddy/scholar-sync/internal/provider"
	"github.com/pdiddy/scholar-sync/internal/store"
	"github.com/pdiddy/scholar-sync/internal/sync"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch publications and update the collection",
	Long: `Sync fetches every configured author from OpenAlex, deduplicates the
results, merges them into the Markdown collection, applies the override file,
and writes the collection back. Existing files are never deleted.

If every author fails to fetch, nothing is written and the command exits
with an error. With --dry-run the merge is computed and reported but no file
or catalog row changes.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Bool("dry-run", false, "report what would change without writing")
	syncCmd.Flags().Bool("no-index", false, "skip the SQLite catalog refresh")
	syncCmd.Flags().String("output-dir", "", "publication collection directory (default "+config.DefaultOutputDir+")")
	syncCmd.Flags().String("override-file", "", "override file (default "+config.DefaultOverrideFile+")")
	syncCmd.Flags().Int("concurrency", 0, "authors fetched at once (default 1)")
	syncCmd.Flags().Duration("fetch-delay", 0, "minimum spacing between provider requests (default 4s)")

	rootCmd.AddCommand(syncCmd)
}

// syncBindings map config keys to the flags shared by sync and reconcile.
var syncBindings = map[string]string{
	"output_dir":    "output-dir",
	"override_file": "override-file",
}

func runSync(cmd *cobra.Command, args []string) error {
	bindings := map[string]string{
		"concurrency": "concurrency",
		"fetch_delay": "fetch-delay",
	}
	for k, v := range syncBindings {
		bindings[k] = v
	}
	cfg, err := loadConfig(cmd, bindings)
	if err != nil {
		return err
	}
	return executeSync(cmd, cfg)
}

// executeSync wires the collaborators for cfg and runs one sync.
func executeSync(cmd *cobra.Command, cfg types.SyncConfig) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noIndex, _ := cmd.Flags().GetBool("no-index")

	client := &http.Client{Timeout: cfg.HTTP.Timeout}
	prov, err := provider.New(cfg, client, sync.NewLimiter(cfg.FetchDelay), logger)
	if err != nil {
		return err
	}

	overrides, err := config.LoadOverrides(cfg.OverrideFile)
	if err != nil {
		return err
	}

	var idx *index.Store
	if cfg.Index.Enabled && !noIndex {
		idx, err = index.NewStore(cfg.Index)
		if err != nil {
			return err
		}
		defer idx.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger.Info("starting sync",
		zap.String("provider", prov.Name()),
		zap.Int("authors", len(cfg.Authors)),
		zap.String("output_dir", cfg.OutputDir),
		zap.Bool("dry_run", dryRun),
	)

	_, err = sync.Run(ctx, sync.Options{
		Config:    cfg,
		Provider:  prov,
		Store:     store.New(cfg.OutputDir),
		Overrides: overrides,
		Index:     idx,
		DryRun:    dryRun,
		Logger:    logger,
		Out:       cmd.OutOrStdout(),
	})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}
