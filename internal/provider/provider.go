// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider fetches raw publication records for one author at a
// time from a bibliographic source.
package provider

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

// Provider is a source of raw publication records.
type Provider interface {
	// Name returns the provider identifier used in logs.
	Name() string

	// FetchAuthor returns at most limit records for the author. An error
	// means the whole author failed; individual malformed records are
	// returned as-is and rejected later by canonicalization.
	FetchAuthor(ctx context.Context, authorID string, limit int) ([]types.RawRecord, error)
}

// New builds the provider selected by cfg.Provider. Requests of network
// providers are spaced by limiter, which may be nil.
func New(cfg types.SyncConfig, client *http.Client, limiter *rate.Limiter, log *zap.Logger) (Provider, error) {
	switch cfg.Provider {
	case types.ProviderOpenAlex, "":
		return &OpenAlexProvider{
			Client:    client,
			Email:     cfg.OpenAlexEmail,
			UserAgent: cfg.HTTP.UserAgent,
			Limiter:   limiter,
			Logger:    log,
		}, nil
	case types.ProviderDir:
		if cfg.RawDir == "" {
			return nil, fmt.Errorf("dir provider: raw_dir is empty")
		}
		return &DirProvider{Dir: cfg.RawDir}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
