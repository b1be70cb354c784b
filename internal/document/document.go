package document

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Metadata carries the provenance of a chunk through ingestion, storage and
// search. Author, URL and PublishedDate are optional; empty means unknown.
type Metadata struct {
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	URL           string `json:"url,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
	ChunkIndex    int    `json:"chunkIndex"`
	TotalChunks   int    `json:"totalChunks"`
}

// Chunk is one fragment of a source article. It lives only for the duration
// of a single ingestion call.
type Chunk struct {
	ID       string
	Content  string
	Metadata Metadata
}

// VectorRecord is the persisted form of a chunk: its embedding plus the
// originating text and metadata.
type VectorRecord struct {
	ID        string
	Vector    []float32
	Content   string
	Metadata  Metadata
	CreatedAt time.Time
}

// SearchResult is one ranked hit from a similarity query.
type SearchResult struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Metadata   Metadata `json:"metadata"`
	Similarity float64  `json:"similarity"`
	Distance   float64  `json:"distance"`
}

// Filter is a single equality predicate against a metadata field.
type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SearchOptions tunes a similarity query. A zero Limit falls back to the
// store default. Threshold is a pointer because 0 is a meaningful value.
type SearchOptions struct {
	Limit     int
	Threshold *float64
	Filters   []Filter
}

// Stats aggregates the whole collection.
type Stats struct {
	TotalEmbeddings         int     `json:"totalEmbeddings"`
	UniqueArticles          int     `json:"uniqueArticles"`
	AverageChunksPerArticle float64 `json:"averageChunksPerArticle"`
}

// chunkNamespace seeds deterministic chunk ids so that re-ingesting an
// article overwrites its previous records instead of duplicating them.
var chunkNamespace = uuid.MustParse("7b0dcb3a-46c1-4b31-9f0d-2d3e8a5c91e4")

// ChunkID derives a stable UUID from an article title and chunk position.
// Two articles sharing a title map to the same ids; see DESIGN.md.
func ChunkID(title string, index int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s#%d", title, index))).String()
}
