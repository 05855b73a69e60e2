package models

import "errors"

// Error kinds for the pipeline. Wrapped with %w so callers can discriminate
// with errors.Is.
var (
	ErrConfiguration = errors.New("invalid configuration")
	ErrExtraction    = errors.New("extraction failed")
	ErrEmbedding     = errors.New("embedding failed")
	ErrGeneration    = errors.New("generation failed")
	ErrInvalidQuery  = errors.New("invalid query")
)
