// Package ingest builds the knowledge base from curated per-game source
// catalogs. Each game has a CSV catalog listing wiki pages, YouTube videos
// and forum threads; the pipeline fetches and extracts page content, splits
// it into chunks and hands the chunks to the knowledge store for embedding.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/lakitu0/lakitu/internal/knowledge"
)

// Catalog CSV column layout. Every row holds up to three sources, each a
// URL paired with a short human description.
const (
	colWiki = iota
	colWikiDesc
	colYouTube
	colYouTubeDesc
	colForum
	colForumDesc
	catalogColumns
)

var catalogHeader = []string{"wiki", "wiki_desc", "youtube", "yt_desc", "forum", "forum_desc"}

var (
	ErrEmptyCatalog    = errors.New("ingest: catalog has no sources")
	ErrInvalidHeader   = errors.New("ingest: catalog header mismatch")
	ErrCatalogNotFound = errors.New("ingest: catalog not found")
)

// Source is a single entry from a game catalog.
type Source struct {
	SourceType  string
	URL         string
	Description string
	Row         int
}

// Catalog holds all sources listed for one game.
type Catalog struct {
	Game    string
	Sources []Source
}

// CatalogPath returns the expected catalog location for a game.
func CatalogPath(dir, game string) string {
	return filepath.Join(dir, game+".csv")
}

// LoadCatalog reads and validates a game's source catalog.
func LoadCatalog(dir, game string) (*Catalog, error) {
	path := CatalogPath(dir, game)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	catalog, err := parseCatalog(f, game)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return catalog, nil
}

func parseCatalog(r io.Reader, game string) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = catalogColumns
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, want := range catalogHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrInvalidHeader, i, header[i], want)
		}
	}

	catalog := &Catalog{Game: game}
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		for _, cell := range []struct {
			urlCol, descCol int
			sourceType      string
		}{
			{colWiki, colWikiDesc, knowledge.SourceTypeWiki},
			{colYouTube, colYouTubeDesc, knowledge.SourceTypeYouTube},
			{colForum, colForumDesc, knowledge.SourceTypeForum},
		} {
			rawURL := strings.TrimSpace(record[cell.urlCol])
			if rawURL == "" {
				continue
			}
			if err := validateSourceURL(rawURL); err != nil {
				return nil, fmt.Errorf("row %d %s: %w", row, cell.sourceType, err)
			}
			catalog.Sources = append(catalog.Sources, Source{
				SourceType:  cell.sourceType,
				URL:         rawURL,
				Description: strings.TrimSpace(record[cell.descCol]),
				Row:         row,
			})
		}
	}

	if len(catalog.Sources) == 0 {
		return nil, ErrEmptyCatalog
	}
	return catalog, nil
}

func validateSourceURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", rawURL)
	}
	return nil
}
