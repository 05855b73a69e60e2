package query

import (
	"fmt"
	"strings"

	"pdf-rag/internal/models"
)

// Processor normalizes and validates a raw question before embedding. It is
// pure text handling; no embedding happens here.
type Processor struct {
	maxChars int
}

// NewProcessor builds a processor. maxChars <= 0 disables the length cap.
func NewProcessor(maxChars int) *Processor {
	return &Processor{maxChars: maxChars}
}

// Process trims the query and collapses internal whitespace runs. Empty input
// and over-long input are rejected; over-long input is never truncated, since
// that would silently change what the user asked.
func (p *Processor) Process(raw string) models.ProcessedQuery {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return models.ProcessedQuery{IsValid: false, Reason: "query is empty"}
	}
	if p.maxChars > 0 && len(text) > p.maxChars {
		return models.ProcessedQuery{
			IsValid: false,
			Reason:  fmt.Sprintf("query too long: %d characters (limit %d)", len(text), p.maxChars),
		}
	}
	return models.ProcessedQuery{Text: text, IsValid: true}
}
