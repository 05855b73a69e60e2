package rag

import (
	"context"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/assembler"
	"pdf-rag/internal/models"
	"pdf-rag/internal/query"
	"pdf-rag/internal/ranker"
	"pdf-rag/internal/retriever"
)

// Generator maps an assembled prompt to a completion.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RAG is the top-level query pipeline: process, retrieve, rank, assemble,
// generate, and package the answer with provenance.
type RAG struct {
	processor   *query.Processor
	retriever   *retriever.Retriever
	ranker      *ranker.Ranker
	assembler   *assembler.Assembler
	generator   Generator
	defaultTopK int
}

func NewRAG(p *query.Processor, r *retriever.Retriever, rk *ranker.Ranker, a *assembler.Assembler, g Generator, defaultTopK int) *RAG {
	return &RAG{
		processor:   p,
		retriever:   r,
		ranker:      rk,
		assembler:   a,
		generator:   g,
		defaultTopK: defaultTopK,
	}
}

const excerptLen = 100

// Answer runs one query through the pipeline. Invalid queries and empty
// retrieval results short-circuit before the generator is ever called;
// generator failures come back as errors so callers never mistake an
// unreachable backend for "no relevant information".
func (r *RAG) Answer(ctx context.Context, rawQuery string, topK int) (models.Answer, error) {
	if topK < 1 {
		topK = r.defaultTopK
	}

	pq := r.processor.Process(rawQuery)
	if !pq.IsValid {
		log.Debug().Str("reason", pq.Reason).Msg("Rejected query")
		return models.Answer{Kind: models.AnswerInvalidQuery, Text: pq.Reason}, nil
	}

	hits, err := r.retriever.Retrieve(ctx, pq, topK)
	if err != nil {
		return models.Answer{}, err
	}

	rc := r.ranker.Rank(hits, topK)
	log.Debug().
		Int("candidates", rc.TotalCandidates).
		Int("kept", rc.KeptCount).
		Int("dropped_duplicates", rc.DroppedDuplicates).
		Msg("Ranked retrieval candidates")
	if rc.KeptCount == 0 {
		return models.Answer{
			Kind:    models.AnswerNoContext,
			Text:    models.InsufficientContextAnswer,
			Context: rc,
		}, nil
	}

	prompt := r.assembler.Assemble(rc, pq.Text)
	if len(prompt.UsedChunkIDs) == 0 {
		// Every ranked passage overflowed the context budget on its own, so
		// the prompt holds no context. Generating from it would invite a
		// hallucinated answer.
		log.Debug().Int("kept", rc.KeptCount).Msg("No ranked passage fit the context budget")
		return models.Answer{
			Kind:    models.AnswerNoContext,
			Text:    models.InsufficientContextAnswer,
			Context: rc,
		}, nil
	}
	completion, err := r.generator.Complete(ctx, prompt.Text)
	if err != nil {
		return models.Answer{}, err
	}

	return models.Answer{
		Kind:    models.AnswerOK,
		Text:    completion,
		Sources: sourcesFor(rc, prompt),
		Context: rc,
	}, nil
}

// sourcesFor maps the passages that actually made it into the prompt, in rank
// order, to user-facing provenance. Passages the assembler dropped for budget
// are excluded.
func sourcesFor(rc models.RankedContext, prompt models.Prompt) []models.Source {
	used := make(map[string]bool, len(prompt.UsedChunkIDs))
	for _, id := range prompt.UsedChunkIDs {
		used[id] = true
	}
	var sources []models.Source
	for _, hit := range rc.Hits {
		if !used[hit.ChunkID] {
			continue
		}
		excerpt := hit.Text
		if len(excerpt) > excerptLen {
			excerpt = excerpt[:excerptLen] + "..."
		}
		sources = append(sources, models.Source{
			Document:   hit.Metadata.SourcePath,
			Similarity: hit.Similarity,
			Excerpt:    excerpt,
		})
	}
	return sources
}
