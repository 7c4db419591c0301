package knowledge

import "time"

// VectorDimension is the embedding dimensionality requested from the model.
// The knowledge_documents schema declares vector(768), so every embed request
// truncates the model output to 768 via OutputDimensionality.
const VectorDimension int32 = 768

// Source type constants for knowledge documents. These are the categories a
// game's curated catalog provides.
const (
	// SourceTypeWiki represents scraped wiki page content.
	SourceTypeWiki = "wiki"

	// SourceTypeYouTube represents video descriptions (no content is fetched).
	SourceTypeYouTube = "youtube"

	// SourceTypeForum represents scraped forum thread content.
	SourceTypeForum = "forum"
)

// AllSourceTypes lists every source type in stable order.
var AllSourceTypes = []string{SourceTypeWiki, SourceTypeYouTube, SourceTypeForum}

// ValidSourceType reports whether s is a known source type.
func ValidSourceType(s string) bool {
	switch s {
	case SourceTypeWiki, SourceTypeYouTube, SourceTypeForum:
		return true
	}
	return false
}

// Document is one chunk of game knowledge.
type Document struct {
	ID          string    // Unique identifier
	Game        string    // Game the chunk belongs to (e.g., "elden_ring")
	SourceType  string    // wiki, youtube, or forum
	Title       string    // Page or video title
	URL         string    // Origin URL
	Description string    // Curator's description from the catalog CSV
	Content     string    // Chunk text
	ChunkIndex  int       // Position of this chunk within its source
	CreatedAt   time.Time // Ingestion timestamp
}

// Result is a single search result with its similarity score.
type Result struct {
	Document   Document
	Similarity float32 // Cosine similarity (0-1)
}

// Stats summarizes the store contents for one game.
type Stats struct {
	Game         string           `json:"game"`
	Total        int64            `json:"total"`
	BySourceType map[string]int64 `json:"by_source_type"`
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK        int
	sourceTypes []string
	timeout     time.Duration
}

// WithTopK sets the maximum number of results to return. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithSourceTypes restricts the search to the given source types.
// Default is all source types.
func WithSourceTypes(types ...string) SearchOption {
	return func(c *searchConfig) {
		c.sourceTypes = types
	}
}

// buildSearchConfig applies search options and returns the final configuration.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:        5,
		sourceTypes: AllSourceTypes,
		timeout:     searchTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
