package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/chunker"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/models"
	"pdf-rag/internal/store"
)

// DocumentSource extracts raw page-tagged text from a file on disk.
type DocumentSource interface {
	Extract(path string) (models.Extraction, error)
	Supported(path string) bool
}

// Indexer drives ingestion: extract, chunk, embed, persist. Re-indexing a
// document replaces all of its prior chunks.
type Indexer struct {
	source   DocumentSource
	chunker  *chunker.Chunker
	embedder embedding.Embedder
	store    store.VectorStore

	storeType      string
	embeddingModel string
	dimension      int
}

func New(source DocumentSource, c *chunker.Chunker, e embedding.Embedder, vs store.VectorStore) *Indexer {
	return &Indexer{source: source, chunker: c, embedder: e, store: vs}
}

// WithStatusInfo attaches the descriptive fields reported by Status.
func (ix *Indexer) WithStatusInfo(storeType, embeddingModel string, dimension int) *Indexer {
	ix.storeType = storeType
	ix.embeddingModel = embeddingModel
	ix.dimension = dimension
	return ix
}

// DocumentID derives a stable identity from the source path, so re-ingesting
// the same file always replaces its prior chunks.
func DocumentID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs)).String()
}

// IndexDocument ingests one file. Failures are reported in the result, not
// returned as errors, so a batch can keep going.
func (ix *Indexer) IndexDocument(ctx context.Context, path string) models.IndexResult {
	docID := DocumentID(path)
	result := models.IndexResult{DocumentID: docID, SourcePath: path}

	extraction, err := ix.source.Extract(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Extraction failed")
		result.Failed = true
		result.Message = err.Error()
		return result
	}
	if strings.TrimSpace(extraction.Text) == "" {
		result.Failed = true
		result.Message = "no text content found in document"
		return result
	}

	chunks := ix.chunker.Chunk(docID, extraction.Text)
	if len(chunks) == 0 {
		result.Failed = true
		result.Message = "no chunks created from text"
		return result
	}
	log.Debug().Str("path", path).Int("chunks", len(chunks)).Msg("Chunked document")

	ingestedAt := time.Now().UTC().Format(time.RFC3339)
	entries := make([]models.Entry, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := ix.embedChunk(ctx, chunk.Text)
		if err != nil {
			log.Warn().Err(err).Str("chunk_id", chunk.ChunkID).Msg("Dropping chunk after failed embedding retry")
			result.DroppedChunks++
			continue
		}
		entries = append(entries, models.Entry{
			ChunkID:   chunk.ChunkID,
			Embedding: vec,
			Text:      chunk.Text,
			Metadata: models.Metadata{
				DocumentID:    docID,
				SourcePath:    path,
				SequenceIndex: chunk.SequenceIndex,
				PageCount:     extraction.PageCount,
				IngestedAt:    ingestedAt,
			},
		})
	}
	if len(entries) == 0 {
		result.Failed = true
		result.Message = "all chunk embeddings failed"
		return result
	}

	if err := ix.store.Replace(ctx, docID, entries); err != nil {
		result.Failed = true
		result.Message = fmt.Sprintf("storing chunks: %v", err)
		return result
	}

	result.ChunkCount = len(entries)
	log.Info().Str("path", path).Int("chunks", result.ChunkCount).Int("dropped", result.DroppedChunks).Msg("Indexed document")
	return result
}

// embedChunk calls the embedder with one retry, treating the first failure as
// transient.
func (ix *Indexer) embedChunk(ctx context.Context, text string) ([]float32, error) {
	vec, err := ix.embedder.EmbedQuery(ctx, text)
	if err == nil {
		return vec, nil
	}
	log.Debug().Err(err).Msg("Embedding failed, retrying once")
	return ix.embedder.EmbedQuery(ctx, text)
}

// IndexDirectory walks dir recursively and ingests every supported file. One
// bad file never aborts the batch.
func (ix *Indexer) IndexDirectory(ctx context.Context, dir string) (models.BatchResult, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && ix.source.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return models.BatchResult{}, err
	}
	if len(files) == 0 {
		return models.BatchResult{}, fmt.Errorf("no supported documents found in %s", dir)
	}
	log.Info().Int("files", len(files)).Str("dir", dir).Msg("Starting batch indexing")

	var batch models.BatchResult
	for _, file := range files {
		result := ix.IndexDocument(ctx, file)
		batch.Results = append(batch.Results, result)
		if result.Failed {
			batch.FailedFiles++
			continue
		}
		batch.SuccessfulFiles++
		batch.TotalChunks += result.ChunkCount
	}
	return batch, nil
}

// Status reports the store size and the configured pipeline geometry.
func (ix *Indexer) Status(ctx context.Context) (models.IndexerStatus, error) {
	count, err := ix.store.Count(ctx)
	if err != nil {
		return models.IndexerStatus{}, err
	}
	return models.IndexerStatus{
		TotalChunks:        count,
		StoreType:          ix.storeType,
		EmbeddingModel:     ix.embeddingModel,
		EmbeddingDimension: ix.dimension,
		ChunkSize:          ix.chunker.Size(),
		ChunkOverlap:       ix.chunker.Overlap(),
	}, nil
}
