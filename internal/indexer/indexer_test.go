package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag/internal/chunker"
	"pdf-rag/internal/models"
	"pdf-rag/internal/store"
)

// fakeSource reads .txt files directly; everything else is unsupported.
type fakeSource struct {
	failPaths map[string]bool
}

func (f *fakeSource) Supported(path string) bool {
	return strings.HasSuffix(path, ".txt")
}

func (f *fakeSource) Extract(path string) (models.Extraction, error) {
	if f.failPaths[path] {
		return models.Extraction{}, errors.New("extraction blew up")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Extraction{}, err
	}
	return models.Extraction{Text: string(data), PageCount: 1}, nil
}

// countingEmbedder embeds deterministically and can fail the first N calls
// for a given text.
type countingEmbedder struct {
	calls     int
	failFirst map[string]int
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	if c.failFirst != nil && c.failFirst[text] > 0 {
		c.failFirst[text]--
		return nil, errors.New("transient embedding failure")
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := c.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func newTestIndexer(t *testing.T, src DocumentSource, emb *countingEmbedder) (*Indexer, *store.Memory) {
	t.Helper()
	c, err := chunker.New(50, 10)
	require.NoError(t, err)
	m := store.NewMemory()
	return New(src, c, emb, m).WithStatusInfo("memory", "test-model", 2), m
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexDocument_Success(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", strings.Repeat("some document text ", 10))
	ix, m := newTestIndexer(t, &fakeSource{}, &countingEmbedder{})

	result := ix.IndexDocument(context.Background(), path)
	assert.False(t, result.Failed)
	assert.Greater(t, result.ChunkCount, 1)

	count, err := m.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.ChunkCount, count)
}

func TestIndexDocument_EmptyTextIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.txt", "   \n \t ")
	ix, m := newTestIndexer(t, &fakeSource{}, &countingEmbedder{})

	result := ix.IndexDocument(context.Background(), path)
	assert.True(t, result.Failed)
	assert.Contains(t, result.Message, "no text content")

	count, err := m.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIndexDocument_ReindexLeavesSameCount(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", strings.Repeat("stable text content ", 15))
	ix, m := newTestIndexer(t, &fakeSource{}, &countingEmbedder{})
	ctx := context.Background()

	first := ix.IndexDocument(ctx, path)
	require.False(t, first.Failed)
	second := ix.IndexDocument(ctx, path)
	require.False(t, second.Failed)

	assert.Equal(t, first.DocumentID, second.DocumentID)
	count, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ChunkCount, count)
}

func TestIndexDocument_RetriesThenDropsChunk(t *testing.T) {
	dir := t.TempDir()
	text := strings.Repeat("a", 50) + strings.Repeat("b", 10)
	path := writeFile(t, dir, "doc.txt", text)

	c, err := chunker.New(50, 0)
	require.NoError(t, err)
	firstChunk := text[:50]

	// First chunk fails once (retry succeeds); nothing is dropped.
	emb := &countingEmbedder{failFirst: map[string]int{firstChunk: 1}}
	ix := New(&fakeSource{}, c, emb, store.NewMemory())
	result := ix.IndexDocument(context.Background(), path)
	assert.False(t, result.Failed)
	assert.Equal(t, 0, result.DroppedChunks)
	assert.Equal(t, 2, result.ChunkCount)

	// First chunk fails twice (retry exhausted); it is dropped and counted.
	emb = &countingEmbedder{failFirst: map[string]int{firstChunk: 2}}
	ix = New(&fakeSource{}, c, emb, store.NewMemory())
	result = ix.IndexDocument(context.Background(), path)
	assert.False(t, result.Failed)
	assert.Equal(t, 1, result.DroppedChunks)
	assert.Equal(t, 1, result.ChunkCount)
}

func TestIndexDirectory_PartialFailureTolerant(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", strings.Repeat("useful content here ", 10))
	bad := writeFile(t, dir, "bad.txt", "whatever")
	writeFile(t, dir, "skipped.bin", "binary noise")

	src := &fakeSource{failPaths: map[string]bool{bad: true}}
	ix, _ := newTestIndexer(t, src, &countingEmbedder{})

	batch, err := ix.IndexDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.SuccessfulFiles)
	assert.Equal(t, 1, batch.FailedFiles)
	assert.Len(t, batch.Results, 2)
	assert.Greater(t, batch.TotalChunks, 0)
	_ = good
}

func TestIndexDirectory_NoSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "only.bin", "nope")
	ix, _ := newTestIndexer(t, &fakeSource{}, &countingEmbedder{})

	_, err := ix.IndexDirectory(context.Background(), dir)
	assert.Error(t, err)
}

func TestDocumentID_Stable(t *testing.T) {
	assert.Equal(t, DocumentID("/tmp/a.pdf"), DocumentID("/tmp/a.pdf"))
	assert.NotEqual(t, DocumentID("/tmp/a.pdf"), DocumentID("/tmp/b.pdf"))
}

func TestStatus(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.txt", strings.Repeat("text for status check ", 10))
	ix, _ := newTestIndexer(t, &fakeSource{}, &countingEmbedder{})
	ctx := context.Background()

	result := ix.IndexDocument(ctx, path)
	require.False(t, result.Failed)

	status, err := ix.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.ChunkCount, status.TotalChunks)
	assert.Equal(t, "memory", status.StoreType)
	assert.Equal(t, "test-model", status.EmbeddingModel)
	assert.Equal(t, 50, status.ChunkSize)
	assert.Equal(t, 10, status.ChunkOverlap)
}
