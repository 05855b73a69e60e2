package models

// Chunk is a contiguous overlapping segment of a document's text. Offsets are
// rune positions into the cleaned source text the chunk was cut from.
type Chunk struct {
	ChunkID       string
	DocumentID    string
	SequenceIndex int
	Text          string
	StartOffset   int
	EndOffset     int
	CharCount     int
}

// Metadata travels with every vector store entry and comes back on hits.
type Metadata struct {
	DocumentID    string
	SourcePath    string
	SequenceIndex int
	PageCount     int
	IngestedAt    string
}

// Entry is what the vector store persists per chunk.
type Entry struct {
	ChunkID   string
	Embedding []float32
	Metadata  Metadata
	Text      string
}

// ScoredHit is one nearest-neighbor result. Similarity is in [0,1], higher is
// more relevant.
type ScoredHit struct {
	ChunkID    string
	Text       string
	Metadata   Metadata
	Similarity float64
}

// RankedContext is the ranker's output: deduplicated hits in descending score
// order plus aggregate stats.
type RankedContext struct {
	Hits              []ScoredHit
	TotalCandidates   int
	KeptCount         int
	DroppedDuplicates int
}

// Prompt is the assembled generation prompt.
type Prompt struct {
	Text         string
	UsedChunkIDs []string
	Truncated    bool
}

// ProcessedQuery is the validated, whitespace-normalized query text.
type ProcessedQuery struct {
	Text    string
	IsValid bool
	Reason  string
}

// Extraction is a document source's raw output before chunking.
type Extraction struct {
	Text      string
	PageCount int
}

// IndexResult reports one document's ingestion.
type IndexResult struct {
	DocumentID    string
	SourcePath    string
	ChunkCount    int
	DroppedChunks int
	Failed        bool
	Message       string
}

// BatchResult aggregates a directory ingestion.
type BatchResult struct {
	SuccessfulFiles int
	FailedFiles     int
	TotalChunks     int
	Results         []IndexResult
}

// IndexerStatus is the status report for the status command.
type IndexerStatus struct {
	TotalChunks        int    `json:"total_chunks"`
	StoreType          string `json:"store_type"`
	EmbeddingModel     string `json:"embedding_model"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	ChunkSize          int    `json:"chunk_size"`
	ChunkOverlap       int    `json:"chunk_overlap"`
}

type AnswerKind string

const (
	AnswerOK           AnswerKind = "answered"
	AnswerNoContext    AnswerKind = "insufficient_context"
	AnswerInvalidQuery AnswerKind = "invalid_query"
)

// Source ties an answer back to the passage it was grounded on.
type Source struct {
	Document   string
	Similarity float64
	Excerpt    string
}

// Answer packages the generated text with its provenance. Sources correspond
// 1:1 to the ranked passages that actually made it into the prompt.
type Answer struct {
	Kind    AnswerKind
	Text    string
	Sources []Source
	Context RankedContext
}
