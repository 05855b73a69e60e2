package ranker

import (
	"sort"
	"strings"

	"pdf-rag/internal/models"
)

// Ranker turns raw candidate hits into a bounded, non-redundant context set.
// It is pure given its inputs.
type Ranker struct {
	similarityFloor float64
	dedupThreshold  float64
}

func New(similarityFloor, dedupThreshold float64) *Ranker {
	return &Ranker{similarityFloor: similarityFloor, dedupThreshold: dedupThreshold}
}

// Rank filters hits below the similarity floor, collapses near-identical
// texts keeping the higher-scored copy, and truncates to topK. The output is
// strictly descending by score with chunk id as the tie-break.
func (r *Ranker) Rank(hits []models.ScoredHit, topK int) models.RankedContext {
	rc := models.RankedContext{TotalCandidates: len(hits)}
	if topK < 1 {
		topK = 1
	}

	sorted := make([]models.ScoredHit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Similarity != sorted[j].Similarity {
			return sorted[i].Similarity > sorted[j].Similarity
		}
		return sorted[i].ChunkID < sorted[j].ChunkID
	})

	var kept []models.ScoredHit
	var keptNorms []string
	for _, hit := range sorted {
		if hit.Similarity < r.similarityFloor {
			continue
		}
		norm := normalizeText(hit.Text)
		dup := false
		for i, k := range kept {
			if k.ChunkID == hit.ChunkID || r.nearDuplicate(keptNorms[i], norm) {
				dup = true
				break
			}
		}
		if dup {
			rc.DroppedDuplicates++
			continue
		}
		kept = append(kept, hit)
		keptNorms = append(keptNorms, norm)
	}

	if len(kept) > topK {
		kept = kept[:topK]
	}
	rc.Hits = kept
	rc.KeptCount = len(kept)
	return rc
}

// nearDuplicate reports whether two normalized texts are the same passage for
// retrieval purposes: byte-equal after whitespace normalization, or with a
// token overlap coefficient above the threshold. The overlap coefficient
// (intersection over the smaller set) catches a chunk contained in a larger
// one, the usual artifact of overlapping windows.
func (r *Ranker) nearDuplicate(a, b string) bool {
	if a == b {
		return true
	}
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return false
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(inter)/float64(smaller) > r.dedupThreshold
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func tokenSet(s string) map[string]struct{} {
	tokens := strings.Fields(s)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
