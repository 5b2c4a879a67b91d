// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-sync/internal/httputil"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

// openAlexWorksBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

const (
	openAlexMaxPerPage = 200
	openAlexIDPrefix   = "https://openalex.org/"
	doiURLPrefix       = "https://doi.org/"
)

// OpenAlexProvider lists an author's works from the OpenAlex API.
type OpenAlexProvider struct {
	Client *http.Client

	// Email is sent as mailto parameter for polite pool access.
	Email string

	UserAgent string

	// Limiter, when set, is waited on before every page request.
	Limiter *rate.Limiter

	Logger *zap.Logger
}

// Name returns the provider identifier.
func (p *OpenAlexProvider) Name() string { return "openalex" }

// FetchAuthor pages through /works filtered by author, newest first,
// until limit records were collected or the listing ends.
func (p *OpenAlexProvider) FetchAuthor(ctx context.Context, authorID string, limit int) ([]types.RawRecord, error) {
	id := normalizeAuthorID(authorID)
	if id == "" {
		return nil, fmt.Errorf("empty OpenAlex author id")
	}
	if limit <= 0 {
		return nil, nil
	}

	perPage := limit
	if perPage > openAlexMaxPerPage {
		perPage = openAlexMaxPerPage
	}

	var records []types.RawRecord
	for page := 1; len(records) < limit; page++ {
		works, total, err := p.fetchPage(ctx, id, page, perPage)
		if err != nil {
			return nil, err
		}
		for _, w := range works {
			if len(records) == limit {
				break
			}
			records = append(records, w.toRaw())
		}
		if len(works) < perPage || page*perPage >= total {
			break
		}
	}
	return records, nil
}

func (p *OpenAlexProvider) fetchPage(ctx context.Context, authorID string, page, perPage int) ([]openAlexWork, int, error) {
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	params := url.Values{
		"filter":   {"author.id:" + authorID},
		"sort":     {"publication_year:desc"},
		"per_page": {strconv.Itoa(perPage)},
		"page":     {strconv.Itoa(page)},
	}
	if p.Email != "" {
		params.Set("mailto", p.Email)
	}
	reqURL := openAlexWorksBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, p.client(), req, 0, p.Logger)
	if err != nil {
		return nil, 0, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, 0, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return oar.Results, oar.Meta.Count, nil
}

func (p *OpenAlexProvider) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

// normalizeAuthorID accepts a bare id ("A5023888391") or its URL form.
func normalizeAuthorID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), openAlexIDPrefix)
}

// toRaw maps a work onto the provider-neutral raw record.
func (w openAlexWork) toRaw() types.RawRecord {
	names := make([]string, 0, len(w.Authorships))
	for _, a := range w.Authorships {
		if n := strings.TrimSpace(a.Author.DisplayName); n != "" {
			names = append(names, n)
		}
	}

	title := w.Title
	if title == "" {
		title = w.DisplayName
	}

	raw := types.RawRecord{
		Title:    title,
		Author:   strings.Join(names, " and "),
		Abstract: reconstructAbstract(w.AbstractInvertedIndex),
		DOI:      strings.TrimPrefix(w.DOI, doiURLPrefix),
		URL:      w.DOI,
	}
	if w.PublicationYear > 0 {
		raw.PubYear = strconv.Itoa(w.PublicationYear)
	}
	if loc := w.PrimaryLocation; loc != nil {
		raw.PubURL = loc.LandingPageURL
		if loc.Source != nil {
			raw.Venue = loc.Source.DisplayName
		}
	}
	return raw
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DisplayName           string               `json:"display_name"`
	DOI                   string               `json:"doi"`
	PublicationYear       int                  `json:"publication_year"`
	Type                  string               `json:"type"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	LandingPageURL string          `json:"landing_page_url"`
	PDFURL         string          `json:"pdf_url"`
	Source         *openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}
