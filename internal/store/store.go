package store

import (
	"context"

	"pdf-rag/internal/models"
)

// VectorStore persists chunk embeddings and serves nearest-neighbor queries.
// Query results come back in descending similarity order.
type VectorStore interface {
	Upsert(ctx context.Context, entries []models.Entry) error
	DeleteByDocument(ctx context.Context, documentID string) error
	// Replace swaps a document's chunk set in one unit, so a concurrent
	// reader never observes the document half-replaced.
	Replace(ctx context.Context, documentID string, entries []models.Entry) error
	Query(ctx context.Context, vector []float32, k int) ([]models.ScoredHit, error)
	Count(ctx context.Context) (int, error)
}
