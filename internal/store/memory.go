package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"pdf-rag/internal/models"
)

// Memory is a brute-force cosine-similarity store. It backs tests, dry runs
// and the "memory" store type; the persistent backends live in the chromemdb
// and db packages.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]models.Entry
	dim     int
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]models.Entry{}}
}

func (m *Memory) Upsert(ctx context.Context, entries []models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertLocked(entries)
}

func (m *Memory) upsertLocked(entries []models.Entry) error {
	for _, e := range entries {
		if m.dim == 0 {
			m.dim = len(e.Embedding)
		}
		if len(e.Embedding) != m.dim {
			return fmt.Errorf("vector dimension mismatch: got %d, store holds %d", len(e.Embedding), m.dim)
		}
		m.entries[e.ChunkID] = e
	}
	return nil
}

func (m *Memory) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteByDocumentLocked(documentID)
	return nil
}

func (m *Memory) deleteByDocumentLocked(documentID string) {
	for id, e := range m.entries {
		if e.Metadata.DocumentID == documentID {
			delete(m.entries, id)
		}
	}
}

func (m *Memory) Replace(ctx context.Context, documentID string, entries []models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteByDocumentLocked(documentID)
	return m.upsertLocked(entries)
}

func (m *Memory) Query(ctx context.Context, vector []float32, k int) ([]models.ScoredHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k < 1 || len(m.entries) == 0 {
		return nil, nil
	}

	hits := make([]models.ScoredHit, 0, len(m.entries))
	for _, e := range m.entries {
		hits = append(hits, models.ScoredHit{
			ChunkID:    e.ChunkID,
			Text:       e.Text,
			Metadata:   e.Metadata,
			Similarity: clamp01(cosine(vector, e.Embedding)),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
