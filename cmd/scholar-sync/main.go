// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-sync CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-sync/internal/config"
	"github.com/pdiddy/scholar-sync/internal/logging"
	"github.com/pdiddy/scholar-sync/internal/secrets"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds one file per secret, e.g. .secrets/openalex-email.
const secretsDir = ".secrets/"

var (
	// loadedSecrets holds values loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets

	// logger is built from the persistent log flags before any command runs.
	logger = zap.NewNop()
)

// rootCmd is the base command for the scholar-sync CLI.
var rootCmd = &cobra.Command{
	Use:   "scholar-sync",
	Short: "Keep a site's publication list in sync with OpenAlex",
	Long: `scholar-sync fetches the publications of the configured authors, merges
them with the Markdown collection on disk while keeping manual curation,
applies the override file, and writes the collection back.

The collection directory is the source of truth. A SQLite catalog beside it
supports search and keeps a log of sync runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		log, err := logging.New(logging.Config{Level: level, Format: format})
		if err != nil {
			return err
		}
		logger = log

		s, err := secrets.Load(secretsDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", zap.Strings("keys", s.Keys()))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: "+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")
}

// loadConfig reads the configuration, letting the named command flags
// override their config keys when set. Bindings map config keys to flag
// names.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (types.SyncConfig, error) {
	cfgFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadWith(cfgFile, func(v *viper.Viper) error {
		for key, name := range bindings {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
				return fmt.Errorf("flag --%s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return types.SyncConfig{}, err
	}

	cfg.OpenAlexEmail = loadedSecrets.Get(secrets.OpenAlexEmail, cfg.OpenAlexEmail)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
