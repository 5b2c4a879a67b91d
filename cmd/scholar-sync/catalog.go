// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-sync/internal/cite"
	"github.com/pdiddy/scholar-sync/internal/index"
	"github.com/pdiddy/scholar-sync/internal/store"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Query the publication catalog (search, runs, rebuild, export)",
	Long: `Catalog works with the SQLite catalog that mirrors the publication
collection. Use subcommands to search it, list past sync runs, rebuild it
from the Markdown files, or export the collection as CSL.`,
}

// --- search subcommand ---

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search publications with full-text search and filters",
	Long: `Search matches the query against titles, authors, venues, and
abstracts using FTS5, optionally narrowed by --type, --year, or --featured.
Without a query the filters alone select publications, newest first.`,
	RunE: runCatalogSearch,
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	idx, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	opts := queryOptsFromFlags(cmd, args)
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --type, --year, or --featured")
	}

	results, err := idx.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatSearchOutput(w io.Writer, results []types.Publication, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-24s  %-4s  %-12s  %s\n", "Rank", "ID", "Year", "Type", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, p := range results {
		id := p.ID
		if len(id) > 24 {
			id = id[:21] + "..."
		}
		title := p.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-24s  %-4d  %-12s  %s\n", i+1, id, p.Year, p.Type, title)
	}

	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// --- runs subcommand ---

var catalogRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent sync runs",
	Long: `Runs prints the run log recorded by sync and reconcile, newest first,
with the per-run counts from the summary.`,
	RunE: runCatalogRuns,
}

func runCatalogRuns(cmd *cobra.Command, args []string) error {
	idx, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer idx.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := idx.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-20s  %-7s  %-7s  %-7s  %-6s  %-6s  %s\n",
		"Run", "Started", "Authors", "Fetched", "Merged", "New", "Total", "Mode")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, r := range runs {
		mode := "write"
		if r.DryRun {
			mode = "dry-run"
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-7s  %-7d  %-7d  %-6d  %-6d  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d/%d", r.AuthorsOK, r.AuthorsOK+r.AuthorsFailed),
			r.Fetched, r.Merged, r.New, r.Total, mode)
	}
	return nil
}

// --- rebuild subcommand ---

var catalogRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the catalog from the publication collection",
	Long: `Rebuild reads every Markdown file in the collection directory and
replaces the catalog contents with them. The run log is kept.`,
	RunE: runCatalogRebuild,
}

func runCatalogRebuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"output_dir": "output-dir", "index.dir": "index-dir"})
	if err != nil {
		return err
	}

	loaded, err := loadCollection(cfg.OutputDir)
	if err != nil {
		return err
	}

	idx, err := index.NewStore(cfg.Index)
	if err != nil {
		return err
	}
	defer idx.Close()

	sum, err := idx.Sync(cmd.Context(), loaded.Publications)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Catalog %s: %d inserted, %d updated, %d removed\n",
		idx.Path(), sum.Inserted, sum.Updated, sum.Removed)
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the collection as CSL-YAML or CSL-JSON",
	Long: `Export converts every publication in the collection directory into a
CSL item for Pandoc or a reference manager. The result goes to stdout unless
--output names a file.`,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	cfg, err := loadConfig(cmd, map[string]string{"output_dir": "output-dir"})
	if err != nil {
		return err
	}
	loaded, err := loadCollection(cfg.OutputDir)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml", "":
		err = cite.FormatCSL(loaded.Publications, w)
	case "json":
		err = cite.FormatJSON(loaded.Publications, w)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d publications to %s\n", len(loaded.Publications), output)
	}
	return nil
}

// --- shared helpers ---

func openCatalog(cmd *cobra.Command) (*index.Store, error) {
	cfg, err := loadConfig(cmd, map[string]string{"index.dir": "index-dir"})
	if err != nil {
		return nil, err
	}
	return index.NewStore(cfg.Index)
}

func loadCollection(dir string) (store.LoadResult, error) {
	loaded, err := store.New(dir).Load()
	if err != nil {
		return store.LoadResult{}, err
	}
	for _, e := range loaded.Skipped {
		logger.Warn("skipped file", zap.Error(e))
	}
	return loaded, nil
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) index.QueryOptions {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}

	pubType, _ := cmd.Flags().GetString("type")
	year, _ := cmd.Flags().GetInt("year")
	featured, _ := cmd.Flags().GetBool("featured")
	limit, _ := cmd.Flags().GetInt("limit")

	return index.QueryOptions{
		Query:        queryText,
		Type:         types.PubType(pubType),
		Year:         year,
		FeaturedOnly: featured,
		MaxResults:   limit,
	}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	catalogCmd.PersistentFlags().String("index-dir", "", "catalog directory (default data/index)")
	catalogCmd.PersistentFlags().String("output-dir", "", "publication collection directory (default src/content/publications)")

	// Search flags.
	catalogSearchCmd.Flags().String("query", "", "full-text search query")
	catalogSearchCmd.Flags().String("type", "", "filter by type: journal, conference, preprint, workshop, thesis, book-chapter")
	catalogSearchCmd.Flags().Int("year", 0, "filter by publication year")
	catalogSearchCmd.Flags().Bool("featured", false, "featured publications only")
	catalogSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	catalogSearchCmd.Flags().Bool("json", false, "output results as JSON")

	// Runs flags.
	catalogRunsCmd.Flags().Int("limit", 10, "maximum runs to list (0 = all)")

	// Export flags.
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	catalogExportCmd.Flags().String("output", "", "write to this file instead of stdout")

	// Wire subcommands.
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogRunsCmd)
	catalogCmd.AddCommand(catalogRebuildCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
