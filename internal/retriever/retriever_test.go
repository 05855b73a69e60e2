package retriever

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag/internal/models"
	"pdf-rag/internal/store"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vec, nil
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

type recordingStore struct {
	store.VectorStore
	requestedK int
	queryErr   error
}

func (r *recordingStore) Query(ctx context.Context, vector []float32, k int) ([]models.ScoredHit, error) {
	r.requestedK = k
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	return r.VectorStore.Query(ctx, vector, k)
}

func seeded(t *testing.T, n int) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	entries := make([]models.Entry, n)
	for i := range entries {
		entries[i] = models.Entry{
			ChunkID:   fmt.Sprintf("doc:%04d", i),
			Embedding: []float32{1, float32(i) / float32(n+1)},
			Metadata:  models.Metadata{DocumentID: "doc"},
			Text:      fmt.Sprintf("chunk %d", i),
		}
	}
	require.NoError(t, m.Upsert(context.Background(), entries))
	return m
}

func TestRetrieve_Overfetches(t *testing.T) {
	rs := &recordingStore{VectorStore: seeded(t, 20)}
	r := New(&stubEmbedder{vec: []float32{1, 0}}, rs, 3, 50)

	hits, err := r.Retrieve(context.Background(), models.ProcessedQuery{Text: "q", IsValid: true}, 5)
	require.NoError(t, err)
	assert.Equal(t, 15, rs.requestedK)
	assert.Len(t, hits, 15)
}

func TestRetrieve_CapsCandidates(t *testing.T) {
	rs := &recordingStore{VectorStore: seeded(t, 100)}
	r := New(&stubEmbedder{vec: []float32{1, 0}}, rs, 10, 50)

	_, err := r.Retrieve(context.Background(), models.ProcessedQuery{Text: "q", IsValid: true}, 20)
	require.NoError(t, err)
	assert.Equal(t, 50, rs.requestedK)
}

func TestRetrieve_EmptyStore(t *testing.T) {
	r := New(&stubEmbedder{vec: []float32{1, 0}}, store.NewMemory(), 3, 50)
	hits, err := r.Retrieve(context.Background(), models.ProcessedQuery{Text: "q", IsValid: true}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrieve_StoreErrorTreatedAsEmpty(t *testing.T) {
	rs := &recordingStore{VectorStore: store.NewMemory(), queryErr: errors.New("connection refused")}
	r := New(&stubEmbedder{vec: []float32{1, 0}}, rs, 3, 50)

	hits, err := r.Retrieve(context.Background(), models.ProcessedQuery{Text: "q", IsValid: true}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrieve_EmbeddingErrorIsFatal(t *testing.T) {
	embedErr := fmt.Errorf("%w: backend down", models.ErrEmbedding)
	r := New(&stubEmbedder{err: embedErr}, store.NewMemory(), 3, 50)

	_, err := r.Retrieve(context.Background(), models.ProcessedQuery{Text: "q", IsValid: true}, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEmbedding)
}

func TestRetrieve_DescendingWithTieBreak(t *testing.T) {
	m := store.NewMemory()
	require.NoError(t, m.Upsert(context.Background(), []models.Entry{
		{ChunkID: "b:0000", Embedding: []float32{1, 0}, Text: "b"},
		{ChunkID: "a:0000", Embedding: []float32{1, 0}, Text: "a"},
		{ChunkID: "c:0000", Embedding: []float32{0, 1}, Text: "c"},
	}))
	r := New(&stubEmbedder{vec: []float32{1, 0}}, m, 1, 50)

	hits, err := r.Retrieve(context.Background(), models.ProcessedQuery{Text: "q", IsValid: true}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "a:0000", hits[0].ChunkID)
	assert.Equal(t, "b:0000", hits[1].ChunkID)
	assert.Equal(t, "c:0000", hits[2].ChunkID)
}
