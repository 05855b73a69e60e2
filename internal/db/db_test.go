package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pdf-rag/internal/config"
)

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[0.5,-1,0.25]", formatVector([]float32{0.5, -1, 0.25}))
	assert.Equal(t, "[]", formatVector(nil))
	// Round-trippable precision for float32 values.
	assert.Equal(t, "[0.1]", formatVector([]float32{0.1}))
}

func TestNewStoreWiresDialect(t *testing.T) {
	// sql.OpenDB is lazy, so no server is needed to construct and close.
	cfg := config.DatabaseConfig{URL: "postgres://postgres@localhost:5432/ragdb?sslmode=disable"}
	sqldb, err := ConnectDB(&cfg)
	assert.NoError(t, err)
	s := NewStore(sqldb, false)
	assert.NoError(t, s.Close())
}
