package text

import (
	"strings"

	"semsearch/internal/document"
)

const (
	// DefaultChunkSize is the window width in characters.
	DefaultChunkSize = 1000
	// DefaultOverlap is how many trailing characters of one chunk reappear
	// at the head of the next.
	DefaultOverlap = 200
)

// Chunker splits raw article text into an ordered sequence of overlapping
// chunks. Windows prefer to end on a sentence terminator or a paragraph
// break when one falls in the second half of the window, so chunks rarely
// cut a sentence mid-way.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split walks content with a fixed window and emits chunks carrying the
// given metadata. ChunkIndex and TotalChunks are filled in here; the
// remaining fields are copied through untouched. Minimum-length validation
// is the caller's job.
func (c *Chunker) Split(content string, meta document.Metadata) []document.Chunk {
	var chunks []document.Chunk

	start := 0
	for start < len(content) {
		end := start + c.size
		if end > len(content) {
			end = len(content)
		}
		piece := content[start:end]

		// Not the final window: try to end on a sentence or paragraph
		// boundary, but only if that keeps more than half the window.
		if end < len(content) {
			breakPoint := strings.LastIndex(piece, ".")
			if p := strings.LastIndex(piece, "\n\n"); p > breakPoint {
				breakPoint = p
			}
			if breakPoint > c.size/2 {
				piece = piece[:breakPoint+1]
			}
		}

		m := meta
		m.ChunkIndex = len(chunks)
		chunks = append(chunks, document.Chunk{
			ID:       document.ChunkID(meta.Title, len(chunks)),
			Content:  piece,
			Metadata: m,
		})

		// The emitted chunk reached the end of the content: stepping back by
		// the overlap here would only re-emit a suffix of this chunk.
		if start+len(piece) == len(content) {
			break
		}

		// The step depends on the emitted chunk, not the raw window: a
		// boundary-adjusted chunk shifts the next window's start.
		step := len(piece) - c.overlap
		if step < 1 {
			step = len(piece)
		}
		start += step
	}

	// TotalChunks is only known once the whole document has been walked.
	for i := range chunks {
		chunks[i].Metadata.TotalChunks = len(chunks)
	}

	return chunks
}
