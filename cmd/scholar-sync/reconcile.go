package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-sync/internal/config"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the merge from raw record files instead of OpenAlex",
	Long: `Reconcile runs the same pipeline as sync but reads each author's raw
records from {raw-dir}/{openalex_id}.yaml. It needs no network access and is
useful for replaying a saved fetch or testing override changes.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().String("raw-dir", "", "directory of raw record files (default "+config.DefaultRawDir+")")
	reconcileCmd.Flags().Bool("dry-run", false, "report what would change without writing")
	reconcileCmd.Flags().Bool("no-index", false, "skip the SQLite catalog refresh")
	reconcileCmd.Flags().String("output-dir", "", "publication collection directory (default "+config.DefaultOutputDir+")")
	reconcileCmd.Flags().String("override-file", "", "override file (default "+config.DefaultOverrideFile+")")

	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	bindings := map[string]string{"raw_dir": "raw-dir"}
	for k, v := range syncBindings {
		bindings[k] = v
	}
	cfg, err := loadConfig(cmd, bindings)
	if err != nil {
		return err
	}
	cfg.Provider = types.ProviderDir
	cfg.FetchDelay = 0
	return executeSync(cmd, cfg)
}
