// Package config loads the sync configuration and the override layer.
//
// Settings come from a YAML file, then a .env file, then SCHOLAR_SYNC_*
// environment variables, with later sources winning.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

const (
	// DefaultConfigFile is read when no path is given.
	DefaultConfigFile = "config/scholar.yml"

	// EnvPrefix prefixes environment overrides, e.g. SCHOLAR_SYNC_OUTPUT_DIR.
	EnvPrefix = "SCHOLAR_SYNC"

	DefaultMaxResults          = 100
	DefaultOutputDir           = "src/content/publications"
	DefaultOverrideFile        = "config/publications.override.yml"
	DefaultRawDir              = "data/raw"
	DefaultIndexDir            = "data/index"
	DefaultIndexMaxResults     = 20
	DefaultFetchDelay          = 4 * time.Second
	DefaultConcurrency         = 1
	DefaultSimilarityThreshold = 0.9
	DefaultTimeout             = 30 * time.Second
	DefaultUserAgent           = "scholar-sync/0.1"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// SetDefaults registers every key with its default so environment
// variables bind even when the file omits the key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("authors", []map[string]any{})
	v.SetDefault("max_results", DefaultMaxResults)
	v.SetDefault("provider", string(types.ProviderOpenAlex))
	v.SetDefault("raw_dir", DefaultRawDir)
	v.SetDefault("openalex_email", "")
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("override_file", DefaultOverrideFile)
	v.SetDefault("fetch_delay", DefaultFetchDelay)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("similarity_threshold", DefaultSimilarityThreshold)
	v.SetDefault("index.enabled", true)
	v.SetDefault("index.dir", DefaultIndexDir)
	v.SetDefault("index.max_results", DefaultIndexMaxResults)
	v.SetDefault("http.timeout", DefaultTimeout)
	v.SetDefault("http.user_agent", DefaultUserAgent)
}

// New returns a viper instance with defaults and environment binding set
// up but no file read. Load uses it; the CLI binds flags onto it.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file at path. An empty path means
// DefaultConfigFile, which may be absent; an explicit path must exist.
// A .env file in the working directory is loaded first; variables already
// set in the environment are not replaced.
func Load(path string) (types.SyncConfig, error) {
	return LoadWith(path, nil)
}

// LoadWith is Load with a hook that runs on the viper instance before the
// file is read, typically to bind command-line flags. Bound flags that
// were set on the command line win over every other source.
func LoadWith(path string, bind func(v *viper.Viper) error) (types.SyncConfig, error) {
	_ = godotenv.Load()

	v := New()
	if bind != nil {
		if err := bind(v); err != nil {
			return types.SyncConfig{}, fmt.Errorf("binding flags: %w", err)
		}
	}
	if err := ReadFile(v, path); err != nil {
		return types.SyncConfig{}, err
	}
	return Decode(v)
}

// ReadFile reads path into v, following the same rules as Load.
func ReadFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

// Decode unmarshals v into a SyncConfig and validates it.
func Decode(v *viper.Viper) (types.SyncConfig, error) {
	var cfg types.SyncConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return types.SyncConfig{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.SyncConfig{}, err
	}
	return cfg, nil
}

// Validate checks value ranges. An empty author list is valid here; the
// sync run rejects it.
func Validate(cfg types.SyncConfig) error {
	switch cfg.Provider {
	case types.ProviderOpenAlex, types.ProviderDir:
	default:
		return fmt.Errorf("%w: provider %q (want openalex or dir)", ErrInvalidConfig, cfg.Provider)
	}
	if cfg.MaxResults <= 0 {
		return fmt.Errorf("%w: max_results must be positive, got %d", ErrInvalidConfig, cfg.MaxResults)
	}
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, cfg.Concurrency)
	}
	if cfg.FetchDelay < 0 {
		return fmt.Errorf("%w: fetch_delay must not be negative", ErrInvalidConfig)
	}
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be in (0, 1], got %v", ErrInvalidConfig, cfg.SimilarityThreshold)
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is empty", ErrInvalidConfig)
	}
	return nil
}

// overrideFile mirrors the override YAML; every section is optional.
type overrideFile struct {
	Exclude   []string              `yaml:"exclude"`
	Overrides []types.OverridePatch `yaml:"overrides"`
	Additions []types.Publication   `yaml:"additions"`
}

// LoadOverrides reads the override layer. A missing or empty file yields
// an empty set; a file that is present but not valid YAML is an error.
func LoadOverrides(path string) (types.OverrideSet, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return types.OverrideSet{}, nil
	}
	if err != nil {
		return types.OverrideSet{}, fmt.Errorf("reading overrides %s: %w", path, err)
	}

	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return types.OverrideSet{}, fmt.Errorf("parsing overrides %s: %w", path, err)
	}

	set := types.OverrideSet{
		Exclude:   make([]string, 0, len(f.Exclude)),
		Overrides: f.Overrides,
		Additions: f.Additions,
	}
	for _, doi := range f.Exclude {
		if doi = strings.TrimSpace(doi); doi != "" {
			set.Exclude = append(set.Exclude, doi)
		}
	}
	return set, nil
}
