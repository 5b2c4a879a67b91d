// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

// DirProvider reads raw records from {Dir}/{authorID}.yaml, a YAML list
// of records. It serves offline runs and replays of captured fetches.
type DirProvider struct {
	Dir string
}

// Name returns the provider identifier.
func (p *DirProvider) Name() string { return "dir" }

// FetchAuthor returns the first limit records of the author's file. A
// missing file is an error, like an unreachable source.
func (p *DirProvider) FetchAuthor(ctx context.Context, authorID string, limit int) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(authorID)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("invalid author id %q", authorID)
	}

	path := filepath.Join(p.Dir, id+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var records []types.RawRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
