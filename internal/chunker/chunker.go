package chunker

import (
	"fmt"

	"pdf-rag/internal/models"
)

// Chunker cuts text into overlapping fixed-size windows. It is pure: the same
// text and geometry always produce the same chunks and ids.
type Chunker struct {
	size    int
	overlap int
}

// New validates the window geometry up front. A size that does not exceed the
// overlap would make the window stride zero or negative, so it is rejected
// rather than corrected.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be > 0, got %d", models.ErrConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d",
			models.ErrConfiguration, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk slides a window of width size over text with stride size-overlap.
// The window is measured in runes, never bytes, so an edge cannot split a
// multi-byte character and every chunk is valid UTF-8. The final window is
// clipped to the text length and kept however short, so no trailing
// characters are ever lost. Empty text yields no chunks.
func (c *Chunker) Chunk(documentID, text string) []models.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	stride := c.size - c.overlap
	var chunks []models.Chunk
	for start, seq := 0, 0; start < len(runes); start, seq = start+stride, seq+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, models.Chunk{
			ChunkID:       ChunkID(documentID, seq),
			DocumentID:    documentID,
			SequenceIndex: seq,
			Text:          string(runes[start:end]),
			StartOffset:   start,
			EndOffset:     end,
			CharCount:     end - start,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// ChunkID derives a chunk's identity from its document and position. The
// zero-padded sequence keeps lexical order equal to positional order.
func ChunkID(documentID string, seq int) string {
	return fmt.Sprintf("%s:%04d", documentID, seq)
}
