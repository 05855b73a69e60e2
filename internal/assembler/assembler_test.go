package assembler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"pdf-rag/internal/models"
)

func ranked(hits ...models.ScoredHit) models.RankedContext {
	return models.RankedContext{Hits: hits, TotalCandidates: len(hits), KeptCount: len(hits)}
}

func passage(id, path, text string, score float64) models.ScoredHit {
	return models.ScoredHit{
		ChunkID:    id,
		Text:       text,
		Metadata:   models.Metadata{SourcePath: path},
		Similarity: score,
	}
}

func TestAssemble_AllFit(t *testing.T) {
	a := New(10000)
	rc := ranked(
		passage("a:0000", "/docs/report.pdf", "first passage", 0.9),
		passage("a:0001", "/docs/report.pdf", "second passage", 0.8),
	)
	prompt := a.Assemble(rc, "what happened?")

	assert.False(t, prompt.Truncated)
	assert.Equal(t, []string{"a:0000", "a:0001"}, prompt.UsedChunkIDs)
	assert.Contains(t, prompt.Text, "first passage")
	assert.Contains(t, prompt.Text, "second passage")
	assert.Contains(t, prompt.Text, "report.pdf")
	assert.Contains(t, prompt.Text, "Question: what happened?")
}

func TestAssemble_OmitsWholeOverflowingPassage(t *testing.T) {
	a := New(120)
	big := strings.Repeat("x", 500)
	rc := ranked(
		passage("a:0000", "/docs/a.pdf", "short one", 0.9),
		passage("a:0001", "/docs/a.pdf", big, 0.8),
	)
	prompt := a.Assemble(rc, "q")

	assert.True(t, prompt.Truncated)
	assert.Equal(t, []string{"a:0000"}, prompt.UsedChunkIDs)
	assert.Contains(t, prompt.Text, "short one")
	assert.NotContains(t, prompt.Text, big[:200])
}

func TestAssemble_BudgetNeverExceeded(t *testing.T) {
	budget := 300
	a := New(budget)
	templateOverhead := len(fmt.Sprintf(models.AnswerPromptTemplate, "", "q"))
	var hits []models.ScoredHit
	for i := 0; i < 10; i++ {
		hits = append(hits, passage(fmt.Sprintf("a:%04d", i), "/d/a.pdf", strings.Repeat("word ", 20), 0.9))
	}
	prompt := a.Assemble(ranked(hits...), "q")
	assert.LessOrEqual(t, len(prompt.Text), budget+templateOverhead)
}

func TestAssemble_EmptyContext(t *testing.T) {
	a := New(1000)
	prompt := a.Assemble(models.RankedContext{}, "anything?")
	assert.False(t, prompt.Truncated)
	assert.Empty(t, prompt.UsedChunkIDs)
	assert.Contains(t, prompt.Text, "Question: anything?")
}

func TestAssemble_StopsAtFirstOverflow(t *testing.T) {
	// Once a passage overflows, later (lower-ranked) passages are not
	// considered either, keeping rank order intact.
	a := New(150)
	rc := ranked(
		passage("a:0000", "/d/a.pdf", "kept passage", 0.9),
		passage("a:0001", "/d/a.pdf", strings.Repeat("y", 400), 0.8),
		passage("a:0002", "/d/a.pdf", "tiny", 0.7),
	)
	prompt := a.Assemble(rc, "q")
	assert.True(t, prompt.Truncated)
	assert.Equal(t, []string{"a:0000"}, prompt.UsedChunkIDs)
	assert.NotContains(t, prompt.Text, "tiny")
}
