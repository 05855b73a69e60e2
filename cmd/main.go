package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/assembler"
	"pdf-rag/internal/chromemdb"
	"pdf-rag/internal/chunker"
	"pdf-rag/internal/config"
	"pdf-rag/internal/db"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/helper"
	"pdf-rag/internal/indexer"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
	"pdf-rag/internal/parser"
	"pdf-rag/internal/query"
	"pdf-rag/internal/rag"
	"pdf-rag/internal/ranker"
	"pdf-rag/internal/retriever"
	"pdf-rag/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	indexDir := flag.String("index", "", "Index all supported documents under a directory")
	filePath := flag.String("file", "", "Index a single document file")
	queryText := flag.String("query", "", "Question to answer against the indexed corpus")
	topK := flag.Int("topk", 0, "Number of passages to retrieve (overrides config)")
	status := flag.Bool("status", false, "Print indexer status")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	switch {
	case *status:
		runStatus(ctx, cfg)
	case *indexDir != "":
		runIndexDirectory(ctx, cfg, *indexDir)
	case *filePath != "":
		runIndexFile(ctx, cfg, *filePath)
	case *queryText != "":
		runQuery(ctx, cfg, *queryText, *topK)
	default:
		log.Fatal().Msg("Please provide one of -index, -file, -query or -status")
	}
}

func buildStore(cfg *config.Config) (store.VectorStore, func(), error) {
	switch cfg.Store.Type {
	case "chromem":
		if err := helper.CreateFolder(cfg.Store.Path); err != nil {
			return nil, nil, err
		}
		s, err := chromemdb.New(cfg.Store.Path, cfg.Store.Collection, false)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "postgres":
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		s := db.NewStore(sqldb, cfg.Database.Debug)
		if err := s.Init(context.Background()); err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "memory":
		return store.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

func buildIndexer(cfg *config.Config) (*indexer.Indexer, func()) {
	vs, closeStore, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	c, err := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid chunker configuration")
	}
	ix := indexer.New(parser.NewSource(), c, embedder, vs).
		WithStatusInfo(cfg.Store.Type, cfg.EmbedLLM.Model, cfg.EmbedLLM.Dimension)
	return ix, closeStore
}

func runIndexDirectory(ctx context.Context, cfg *config.Config, dir string) {
	ix, closeStore := buildIndexer(cfg)
	defer closeStore()

	batch, err := ix.IndexDirectory(ctx, dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Error indexing directory")
	}
	log.Info().
		Int("successful", batch.SuccessfulFiles).
		Int("failed", batch.FailedFiles).
		Int("total_chunks", batch.TotalChunks).
		Msg("Batch indexing finished")
	for _, r := range batch.Results {
		if r.Failed {
			log.Warn().Str("path", r.SourcePath).Str("reason", r.Message).Msg("Document skipped")
		}
	}
}

func runIndexFile(ctx context.Context, cfg *config.Config, path string) {
	ix, closeStore := buildIndexer(cfg)
	defer closeStore()

	result := ix.IndexDocument(ctx, path)
	if result.Failed {
		log.Fatal().Str("reason", result.Message).Msg("Error indexing document")
	}
	log.Info().
		Str("document_id", result.DocumentID).
		Int("chunks", result.ChunkCount).
		Int("dropped", result.DroppedChunks).
		Msg("Indexed document")
}

func runStatus(ctx context.Context, cfg *config.Config) {
	ix, closeStore := buildIndexer(cfg)
	defer closeStore()

	status, err := ix.Status(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading status")
	}
	helper.PrettyPrint(status)
}

func runQuery(ctx context.Context, cfg *config.Config, question string, topK int) {
	vs, closeStore, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}
	defer closeStore()

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	generator, err := llmservice.NewClient(&cfg.InferLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generator")
	}

	pipeline := rag.NewRAG(
		query.NewProcessor(cfg.RAG.MaxQueryChars),
		retriever.New(embedder, vs, cfg.RAG.OverfetchFactor, cfg.RAG.MaxCandidates),
		ranker.New(cfg.RAG.SimilarityFloor, cfg.RAG.DedupThreshold),
		assembler.New(cfg.RAG.MaxContextChars),
		generator,
		cfg.RAG.TopK,
	)

	answer, err := pipeline.Answer(ctx, question, topK)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}
	if answer.Kind == models.AnswerInvalidQuery {
		log.Fatal().Err(models.ErrInvalidQuery).Str("reason", answer.Text).Msg("Query rejected")
	}

	fmt.Printf("Question: %s\n\n", question)
	fmt.Printf("Answer: %s\n\n", answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println("Sources:")
		for i, src := range answer.Sources {
			fmt.Printf("  %d. %s (relevance: %.1f%%)\n", i+1, src.Document, src.Similarity*100)
		}
	}
}
