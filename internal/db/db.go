package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

// Entry is one chunk row in Postgres. The embedding column is a pgvector
// literal, fixed at 768 dimensions (see config.PgVectorDimension).
type Entry struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ChunkID       string  `bun:"chunk_id,pk"`
	DocumentID    string  `bun:"document_id,notnull"`
	SourcePath    string  `bun:"source_path,notnull"`
	SequenceIndex int     `bun:"sequence_index,notnull"`
	PageCount     int     `bun:"page_count"`
	IngestedAt    string  `bun:"ingested_at"`
	Text          string  `bun:"text,notnull"`
	Embedding     string  `bun:"embedding,notnull,type:vector(768)"`
	Similarity    float64 `bun:"similarity,scanonly"`
}

// Store is the Postgres/pgvector backed vector store.
type Store struct {
	db *bun.DB
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	return sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.URL),
		pgdriver.WithPassword(cfg.Password),
	)), nil
}

func NewStore(sqldb *sql.DB, debug bool) *Store {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db}
}

// Init creates the pgvector extension, the chunks table and its indexes.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}
	if _, err := s.db.NewCreateTable().Model((*Entry)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks (document_id)")
	return err
}

func (s *Store) Upsert(ctx context.Context, entries []models.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.upsert(ctx, s.db, entries)
}

func (s *Store) upsert(ctx context.Context, idb bun.IDB, entries []models.Entry) error {
	rows := make([]Entry, len(entries))
	for i, e := range entries {
		rows[i] = Entry{
			ChunkID:       e.ChunkID,
			DocumentID:    e.Metadata.DocumentID,
			SourcePath:    e.Metadata.SourcePath,
			SequenceIndex: e.Metadata.SequenceIndex,
			PageCount:     e.Metadata.PageCount,
			IngestedAt:    e.Metadata.IngestedAt,
			Text:          e.Text,
			Embedding:     formatVector(e.Embedding),
		}
	}
	_, err := idb.NewInsert().
		Model(&rows).
		On("CONFLICT (chunk_id) DO UPDATE").
		Set("text = EXCLUDED.text").
		Set("embedding = EXCLUDED.embedding").
		Set("ingested_at = EXCLUDED.ingested_at").
		Exec(ctx)
	return err
}

func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.NewDelete().
		Model((*Entry)(nil)).
		Where("document_id = ?", documentID).
		Exec(ctx)
	return err
}

// Replace runs the delete and insert in one transaction so readers never see
// a document with a partial chunk set.
func (s *Store) Replace(ctx context.Context, documentID string, entries []models.Entry) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Entry)(nil)).
			Where("document_id = ?", documentID).
			Exec(ctx); err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return s.upsert(ctx, tx, entries)
	})
}

func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]models.ScoredHit, error) {
	if k < 1 {
		return nil, nil
	}
	vec := formatVector(vector)
	var rows []Entry
	err := s.db.NewSelect().
		Model(&rows).
		Column("chunk_id", "document_id", "source_path", "sequence_index", "page_count", "ingested_at", "text").
		ColumnExpr("1 - (embedding <=> ?::vector) AS similarity", vec).
		OrderExpr("embedding <=> ?::vector", vec).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	hits := make([]models.ScoredHit, len(rows))
	for i, r := range rows {
		sim := r.Similarity
		if sim < 0 {
			sim = 0
		}
		hits[i] = models.ScoredHit{
			ChunkID: r.ChunkID,
			Text:    r.Text,
			Metadata: models.Metadata{
				DocumentID:    r.DocumentID,
				SourcePath:    r.SourcePath,
				SequenceIndex: r.SequenceIndex,
				PageCount:     r.PageCount,
				IngestedAt:    r.IngestedAt,
			},
			Similarity: sim,
		}
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*Entry)(nil)).Count(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// formatVector renders the pgvector input literal, e.g. [0.1,0.2,0.3].
func formatVector(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
