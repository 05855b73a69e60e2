package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"pdf-rag/internal/models"
)

const compress = false

// Store is the default embedded vector store, persisted under a local
// directory by chromem-go. chromem has no transactions, so the store-level
// lock is what keeps a document's delete-then-insert opaque to readers.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	mu         sync.RWMutex
}

// New opens (or creates) the database and collection. With inMemory set the
// store lives only for the process, which is what dry runs want.
func New(dbPath, collectionName string, inMemory bool) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}

	return &Store{db: db, collection: collection}, nil
}

func (s *Store) Upsert(ctx context.Context, entries []models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertLocked(ctx, entries)
}

func (s *Store) upsertLocked(ctx context.Context, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(entries))
	for i, e := range entries {
		docs[i] = chromem.Document{
			ID:        e.ChunkID,
			Content:   e.Text,
			Embedding: e.Embedding,
			Metadata:  encodeMetadata(e.Metadata),
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteByDocumentLocked(ctx, documentID)
}

func (s *Store) deleteByDocumentLocked(ctx context.Context, documentID string) error {
	if s.collection.Count() == 0 {
		return nil
	}
	err := s.collection.Delete(ctx, map[string]string{"document_id": documentID}, nil)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %v", documentID, err)
	}
	return nil
}

// Replace holds the writer lock across the delete and the insert, so a
// concurrent Query never observes the document with a partial chunk set.
func (s *Store) Replace(ctx context.Context, documentID string, entries []models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteByDocumentLocked(ctx, documentID); err != nil {
		return err
	}
	return s.upsertLocked(ctx, entries)
}

func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]models.ScoredHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// chromem rejects nResults above the collection size.
	count := s.collection.Count()
	if count == 0 || k < 1 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	results, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	hits := make([]models.ScoredHit, len(results))
	for i, r := range results {
		sim := float64(r.Similarity)
		if sim < 0 {
			sim = 0
		}
		hits[i] = models.ScoredHit{
			ChunkID:    r.ID,
			Text:       r.Content,
			Metadata:   decodeMetadata(r.Metadata),
			Similarity: sim,
		}
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count(), nil
}

func encodeMetadata(m models.Metadata) map[string]string {
	return map[string]string{
		"document_id":    m.DocumentID,
		"source_path":    m.SourcePath,
		"sequence_index": strconv.Itoa(m.SequenceIndex),
		"page_count":     strconv.Itoa(m.PageCount),
		"ingested_at":    m.IngestedAt,
	}
}

func decodeMetadata(m map[string]string) models.Metadata {
	seq, _ := strconv.Atoi(m["sequence_index"])
	pages, _ := strconv.Atoi(m["page_count"])
	return models.Metadata{
		DocumentID:    m["document_id"],
		SourcePath:    m["source_path"],
		SequenceIndex: seq,
		PageCount:     pages,
		IngestedAt:    m["ingested_at"],
	}
}
