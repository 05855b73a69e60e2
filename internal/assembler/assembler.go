package assembler

import (
	"fmt"
	"path/filepath"
	"strings"

	"pdf-rag/internal/models"
)

// Assembler formats ranked passages and the question into a generation
// prompt, keeping the context block within a character budget.
type Assembler struct {
	maxContextChars int
}

func New(maxContextChars int) *Assembler {
	return &Assembler{maxContextChars: maxContextChars}
}

// Assemble concatenates passages in rank order, each tagged with its source
// and similarity. Adding stops at the first passage that would push the
// context block past the budget; a passage is always included whole or not at
// all, so the generator never sees a sentence cut mid-way. Truncated is set
// when any ranked passage was left out for budget reasons.
func (a *Assembler) Assemble(rc models.RankedContext, question string) models.Prompt {
	var (
		parts     []string
		usedIDs   []string
		total     int
		truncated bool
	)
	for i, hit := range rc.Hits {
		passage := fmt.Sprintf("[%d] %s (similarity %.2f)\n%s",
			i+1, sourceName(hit.Metadata.SourcePath), hit.Similarity, hit.Text)
		cost := len(passage)
		if len(parts) > 0 {
			cost += len(models.ContextSeparator)
		}
		if total+cost > a.maxContextChars {
			truncated = true
			break
		}
		parts = append(parts, passage)
		usedIDs = append(usedIDs, hit.ChunkID)
		total += cost
	}

	context := strings.Join(parts, models.ContextSeparator)
	return models.Prompt{
		Text:         fmt.Sprintf(models.AnswerPromptTemplate, context, question),
		UsedChunkIDs: usedIDs,
		Truncated:    truncated,
	}
}

func sourceName(path string) string {
	if path == "" {
		return "unknown"
	}
	return filepath.Base(path)
}
