package types

import "time"

// HTTPConfig holds shared HTTP settings used by network providers.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scholar-sync/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AuthorSource names one author whose publications are fetched.
type AuthorSource struct {
	// Name is the display name used in logs.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// OpenAlexID is the provider author identifier (e.g. "A5023888391").
	// Authors without one are skipped and count as failed.
	OpenAlexID string `json:"openalex_id" yaml:"openalex_id" mapstructure:"openalex_id"`
}

// ProviderKind selects where raw records come from.
type ProviderKind string

const (
	ProviderOpenAlex ProviderKind = "openalex"
	ProviderDir      ProviderKind = "dir"
)

// IndexConfig holds settings for the SQLite catalog index.
type IndexConfig struct {
	// Enabled controls whether a sync run refreshes the index.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Dir is the directory holding catalog.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// SyncConfig groups everything one sync run needs.
type SyncConfig struct {
	HTTP HTTPConfig `json:"http" yaml:"http" mapstructure:"http"`

	// Authors lists the sources fetched in order.
	Authors []AuthorSource `json:"authors" yaml:"authors" mapstructure:"authors"`

	// MaxResults caps the publications fetched per author (default 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Provider selects the raw record source: openalex or dir.
	Provider ProviderKind `json:"provider" yaml:"provider" mapstructure:"provider"`

	// RawDir holds {author}.yaml raw record files for the dir provider.
	RawDir string `json:"raw_dir" yaml:"raw_dir" mapstructure:"raw_dir"`

	// OpenAlexEmail is sent as mailto for the OpenAlex polite pool.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// OutputDir is the publication collection directory.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// OverrideFile is the path of the override YAML file.
	OverrideFile string `json:"override_file" yaml:"override_file" mapstructure:"override_file"`

	// FetchDelay spaces consecutive provider requests (default 4s).
	FetchDelay time.Duration `json:"fetch_delay" yaml:"fetch_delay" mapstructure:"fetch_delay"`

	// Concurrency bounds the number of authors fetched at once (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// SimilarityThreshold is the title ratio above which two titles are
	// the same work (default 0.9).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold" mapstructure:"similarity_threshold"`

	Index IndexConfig `json:"index" yaml:"index" mapstructure:"index"`
}
