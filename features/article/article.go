package article

import "time"

// Article is one registry row per ingested title. The vector store holds
// the chunks; this table holds the article-level bookkeeping.
type Article struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author,omitempty"`
	URL           string    `json:"url,omitempty"`
	PublishedDate string    `json:"publishedDate,omitempty"`
	ChunkCount    int       `json:"chunkCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
