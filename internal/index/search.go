// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

// QueryOptions holds parameters for catalog searches.
type QueryOptions struct {
	// Query is an FTS5 match expression over title, authors, venue, and
	// abstract.
	Query string

	// Type filters by publication type.
	Type types.PubType

	// Year filters by publication year when non-zero.
	Year int

	// FeaturedOnly keeps featured publications only.
	FeaturedOnly bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Type == "" && q.Year == 0 && !q.FeaturedOnly
}

// Search queries the catalog. Full-text queries are ranked by relevance;
// filter-only queries are ordered like the collection: year descending,
// then title.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]types.Publication, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = strings.TrimSpace(opts.Query) != ""
	)

	const columns = `p.id, p.title, p.authors, p.venue, p.year, p.doi, p.url, p.pdf,
		p.type, p.featured, p.abstract, p.image`

	if useFTS {
		qb.WriteString(`SELECT ` + columns + `
			FROM publications_fts
			JOIN publications p ON p.rowid = publications_fts.rowid
			WHERE publications_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT ` + columns + ` FROM publications p WHERE 1=1`)
	}

	if opts.Type != "" {
		qb.WriteString(` AND p.type = ?`)
		args = append(args, string(opts.Type))
	}
	if opts.Year != 0 {
		qb.WriteString(` AND p.year = ?`)
		args = append(args, opts.Year)
	}
	if opts.FeaturedOnly {
		qb.WriteString(` AND p.featured = 1`)
	}

	if useFTS {
		qb.WriteString(` ORDER BY publications_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.year DESC, p.title`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var results []types.Publication
	for rows.Next() {
		var (
			p           types.Publication
			authorsJSON sql.NullString
			venue       sql.NullString
			doi, u, pdf sql.NullString
			pubType     sql.NullString
			abstract    sql.NullString
			image       sql.NullString
		)
		if err := rows.Scan(
			&p.ID, &p.Title, &authorsJSON, &venue, &p.Year, &doi, &u, &pdf,
			&pubType, &p.Featured, &abstract, &image,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &p.Authors)
		}
		p.Venue = venue.String
		p.DOI = doi.String
		p.URL = u.String
		p.PDF = pdf.String
		p.Type = types.PubType(pubType.String)
		p.Abstract = abstract.String
		p.Image = image.String

		results = append(results, p)
	}
	return results, rows.Err()
}
