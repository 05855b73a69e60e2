package retriever

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"pdf-rag/internal/embedding"
	"pdf-rag/internal/models"
	"pdf-rag/internal/store"
)

// Retriever embeds a processed query and fetches raw scored hits. It
// over-fetches beyond topK to give the ranker headroom for dedup.
type Retriever struct {
	embedder        embedding.Embedder
	store           store.VectorStore
	overfetchFactor int
	maxCandidates   int
}

func New(embedder embedding.Embedder, vs store.VectorStore, overfetchFactor, maxCandidates int) *Retriever {
	if overfetchFactor < 1 {
		overfetchFactor = 1
	}
	return &Retriever{
		embedder:        embedder,
		store:           vs,
		overfetchFactor: overfetchFactor,
		maxCandidates:   maxCandidates,
	}
}

// Retrieve returns candidates in descending similarity order, ties broken by
// chunk id ascending. An unreachable or empty store yields an empty result,
// not an error: an empty corpus is an answerable state. An embedding failure
// is fatal to the query.
func (r *Retriever) Retrieve(ctx context.Context, pq models.ProcessedQuery, topK int) ([]models.ScoredHit, error) {
	if topK < 1 {
		topK = 1
	}
	vec, err := r.embedder.EmbedQuery(ctx, pq.Text)
	if err != nil {
		return nil, err
	}

	want := topK * r.overfetchFactor
	if r.maxCandidates > 0 && want > r.maxCandidates {
		want = r.maxCandidates
	}
	if want < topK {
		want = topK
	}

	hits, err := r.store.Query(ctx, vec, want)
	if err != nil {
		log.Warn().Err(err).Msg("Vector store query failed, treating as empty corpus")
		return nil, nil
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	return hits, nil
}
