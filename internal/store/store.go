// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists publications as Markdown files with YAML front
// matter, one file per publication, named {id}.md.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

const (
	fileExt        = ".md"
	delimiter      = "---"
	tempPattern    = ".scholar-*.tmp"
	defaultPubType = types.TypeConference
)

var (
	// ErrNoFrontMatter is reported for files that do not open with a
	// front-matter block.
	ErrNoFrontMatter = errors.New("no front matter")

	// ErrInvalidID is returned by WriteAll for a record whose id cannot be
	// used as a file name.
	ErrInvalidID = errors.New("invalid publication id")
)

// frontMatter fixes the on-disk key order. The id is the file name and is
// never written.
type frontMatter struct {
	Title    string   `yaml:"title"`
	Authors  []string `yaml:"authors"`
	Venue    string   `yaml:"venue"`
	Year     int      `yaml:"year"`
	DOI      string   `yaml:"doi,omitempty"`
	URL      string   `yaml:"url,omitempty"`
	PDF      string   `yaml:"pdf,omitempty"`
	Type     string   `yaml:"type"`
	Featured bool     `yaml:"featured"`
	Abstract string   `yaml:"abstract,omitempty"`
	BibTeX   string   `yaml:"bibtex,omitempty"`
	Image    string   `yaml:"image"`
}

// Store reads and writes the publication collection in one directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created on the
// first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the content directory.
func (s *Store) Dir() string { return s.dir }

// LoadResult holds the persisted collection and the files that could not
// be read.
type LoadResult struct {
	Publications []types.Publication
	Skipped      []error
}

// Load reads every *.md file in the directory. A file without front
// matter, or with front matter that does not decode, is skipped and
// reported in Skipped. A missing directory is an empty collection.
func (s *Store) Load() (LoadResult, error) {
	var res LoadResult
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", s.dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		pub, err := readFile(path)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		pub.ID = strings.TrimSuffix(e.Name(), fileExt)
		res.Publications = append(res.Publications, pub)
	}
	return res, nil
}

func readFile(path string) (types.Publication, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Publication{}, err
	}
	return Decode(data)
}

// Decode parses one Markdown document. The returned publication has no
// ID; the caller derives it from the file name.
func Decode(data []byte) (types.Publication, error) {
	head, body, ok := splitFrontMatter(string(data))
	if !ok {
		return types.Publication{}, ErrNoFrontMatter
	}
	if strings.TrimSpace(head) == "" {
		return types.Publication{}, fmt.Errorf("empty front matter: %w", ErrNoFrontMatter)
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(head), &fm); err != nil {
		return types.Publication{}, fmt.Errorf("parsing front matter: %w", err)
	}
	return types.Publication{
		Title:    fm.Title,
		Authors:  fm.Authors,
		Venue:    fm.Venue,
		Year:     fm.Year,
		DOI:      fm.DOI,
		URL:      fm.URL,
		PDF:      fm.PDF,
		Type:     types.PubType(fm.Type),
		Featured: fm.Featured,
		Abstract: fm.Abstract,
		BibTeX:   fm.BibTeX,
		Image:    fm.Image,
		Body:     body,
	}, nil
}

// splitFrontMatter separates the block between the opening "---" line and
// the next "---" line from the body that follows it.
func splitFrontMatter(text string) (head, body string, ok bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(text, delimiter+"\n") {
		return "", "", false
	}
	rest := text[len(delimiter)+1:]
	if strings.HasPrefix(rest, delimiter) && (len(rest) == len(delimiter) || rest[len(delimiter)] == '\n') {
		return "", strings.TrimPrefix(rest[len(delimiter):], "\n"), true
	}

	i := strings.Index(rest, "\n"+delimiter+"\n")
	if i < 0 {
		if strings.HasSuffix(rest, "\n"+delimiter) {
			return rest[:len(rest)-len(delimiter)-1], "", true
		}
		return "", "", false
	}
	return rest[:i+1], rest[i+len(delimiter)+2:], true
}

// Encode renders p as a Markdown document. Required keys always appear;
// empty optional strings are omitted.
func Encode(p types.Publication) ([]byte, error) {
	fm := frontMatter{
		Title:    p.Title,
		Authors:  p.Authors,
		Venue:    p.Venue,
		Year:     p.Year,
		DOI:      p.DOI,
		URL:      p.URL,
		PDF:      p.PDF,
		Type:     string(p.Type),
		Featured: p.Featured,
		Abstract: p.Abstract,
		BibTeX:   p.BibTeX,
		Image:    p.Image,
	}
	if strings.TrimSpace(fm.Title) == "" {
		fm.Title = types.UntitledPlaceholder
	}
	if fm.Authors == nil {
		fm.Authors = []string{}
	}
	if fm.Type == "" {
		fm.Type = string(defaultPubType)
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&fm); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	buf.WriteString(delimiter + "\n")
	buf.WriteString(p.Body)
	return buf.Bytes(), nil
}

// WriteAll writes one file per publication. Every file is first staged as
// a temporary file in the content directory; the staged files are renamed
// into place only after all of them were written, so a failed encode or
// write leaves the directory as it was. Files whose id is not in pubs are
// left alone.
//
// It returns the number of files written.
func (s *Store) WriteAll(pubs []types.Publication) (int, error) {
	for _, p := range pubs {
		if err := validateID(p.ID); err != nil {
			return 0, fmt.Errorf("publication %q: %w", p.Title, err)
		}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", s.dir, err)
	}

	type staged struct {
		tmp, dest string
	}
	files := make([]staged, 0, len(pubs))
	cleanup := func() {
		for _, f := range files {
			os.Remove(f.tmp)
		}
	}

	for _, p := range pubs {
		data, err := Encode(p)
		if err != nil {
			cleanup()
			return 0, fmt.Errorf("publication %s: %w", p.ID, err)
		}
		tmp, err := writeTemp(s.dir, data)
		if err != nil {
			cleanup()
			return 0, fmt.Errorf("publication %s: %w", p.ID, err)
		}
		files = append(files, staged{tmp: tmp, dest: filepath.Join(s.dir, p.ID+fileExt)})
	}

	for i, f := range files {
		if err := os.Rename(f.tmp, f.dest); err != nil {
			for _, rest := range files[i:] {
				os.Remove(rest.tmp)
			}
			return i, fmt.Errorf("renaming %s: %w", filepath.Base(f.dest), err)
		}
	}
	return len(files), nil
}

func writeTemp(dir string, data []byte) (string, error) {
	tmpFile, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("setting permissions: %w", err)
	}
	return tmpPath, nil
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
