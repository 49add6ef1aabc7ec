// Package app builds the dependency graph shared by the API server and the admin CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"notebook-ai/internal/config"
	"notebook-ai/internal/handlers"
	apihttp "notebook-ai/internal/http"
	"notebook-ai/internal/indexer"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/rag"
	"notebook-ai/internal/scope"
	"notebook-ai/internal/search"
	"notebook-ai/internal/service"
	"notebook-ai/internal/storage"
	"notebook-ai/internal/vault"
	"notebook-ai/internal/vectorstore"
)

// pingableStore is a vector store that can report its own health.
type pingableStore interface {
	vectorstore.VectorStore
	Ping(ctx context.Context) error
}

// App holds every long-lived component built from a Config.
type App struct {
	Config *config.Config
	DB     *sql.DB

	Notes    *storage.NoteRepo
	Versions *storage.VersionRepo
	Folders  *storage.FolderRepo
	Chunks   *storage.ChunkRepo

	VectorStore vectorstore.VectorStore
	Embedder    *llm.EmbeddingsClient
	LLM         *llm.Client
	Pipeline    *indexer.Pipeline
	Agents      *rag.AgentFactory

	ChatService    service.ChatService
	SearchService  service.SearchService
	PublishService service.PublishService
	StatsService   service.StatsService
	Importer       *vault.Importer

	vectorPing func(ctx context.Context) error
	closers    []func()
}

// New opens the database, runs migrations, connects the vector store and wires the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a := &App{Config: cfg, DB: db}
	a.closers = append(a.closers, func() { _ = db.Close() })

	if err := storage.Migrate(db); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	store, closeStore, err := newVectorStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	a.VectorStore = store
	a.vectorPing = store.Ping
	slog.Info("Vector store ready", "backend", cfg.VectorBackend, "vector_size", cfg.EmbeddingVectorSize)

	a.Notes = storage.NewNoteRepo(db)
	a.Versions = storage.NewVersionRepo(db, storage.WithPlainTextDeriver(indexer.ExtractPlainText))
	a.Folders = storage.NewFolderRepo(db)
	a.Chunks = storage.NewChunkRepo(db)

	a.Embedder = llm.NewEmbeddingsClient(llm.EmbeddingConfig{
		BaseURL:    cfg.EmbeddingBaseURL,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModelName,
		VectorSize: cfg.EmbeddingVectorSize,
	})
	a.LLM = llm.NewClient(llm.ChatConfig{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModelName,
		Temperature: cfg.AgentTemperature,
	})

	a.Pipeline = indexer.NewPipeline(
		a.Notes,
		a.Versions,
		a.Chunks,
		a.Embedder,
		store,
		indexer.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
	)

	resolver := scope.NewResolver(a.Notes, a.Folders, a.Versions)
	a.Agents = rag.NewAgentFactory(
		rag.AgentConfig{
			Model:       cfg.LLMModelName,
			Temperature: cfg.AgentTemperature,
			TopK:        cfg.AgentTopK,
			MaxSteps:    cfg.AgentMaxSteps,
		},
		a.LLM,
		a.Embedder,
		store,
		resolver,
		a.Notes,
	)

	a.ChatService = service.NewChatService(a.Agents)
	a.SearchService = service.NewSearchService(
		a.Chunks,
		a.Embedder,
		store,
		resolver,
		search.NewAggregator(a.Notes, a.Folders, a.Versions),
		search.NewTextSearcher(a.Notes, a.Folders),
		cfg.SearchTopK,
	)
	a.PublishService = service.NewPublishService(a.Versions, a.Notes, a.Pipeline)
	a.StatsService = service.NewStatsService(a.Pipeline, cfg.EmbeddingModelName)
	a.Importer = vault.NewImporter(a.Notes, a.Folders, a.PublishService)

	return a, nil
}

// newVectorStore connects the configured backend.
func newVectorStore(ctx context.Context, cfg *config.Config) (pingableStore, func(), error) {
	switch cfg.VectorBackend {
	case config.VectorBackendMemory:
		return vectorstore.NewMemoryStore(), func() {}, nil
	case config.VectorBackendPGVector:
		store, err := vectorstore.NewPGVectorStore(ctx, cfg.PGVectorDSN, cfg.QdrantCollectionPrefix, cfg.EmbeddingVectorSize)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect pgvector store: %w", err)
		}
		return store, store.Close, nil
	case config.VectorBackendQdrant:
		store, err := vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
			URL:              cfg.QdrantURL,
			APIKey:           cfg.QdrantAPIKey,
			CollectionPrefix: cfg.QdrantCollectionPrefix,
			VectorSize:       cfg.EmbeddingVectorSize,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}

// ValidateEmbeddings embeds a probe text and fails when the model's vector size does not
// match the configured one.
func (a *App) ValidateEmbeddings(ctx context.Context) error {
	vector, _, err := a.Embedder.EmbedText(ctx, "test")
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vector) != a.Config.EmbeddingVectorSize {
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", a.Config.EmbeddingVectorSize, len(vector))
	}
	return nil
}

// HealthChecks returns the dependency checks served by GET /api/health.
func (a *App) HealthChecks() map[string]handlers.CheckFunc {
	return map[string]handlers.CheckFunc{
		"database":     a.DB.PingContext,
		"vector_store": a.vectorPing,
	}
}

// Router returns the HTTP API.
func (a *App) Router() http.Handler {
	return apihttp.NewRouter(&apihttp.Deps{
		ChatService:    a.ChatService,
		SearchService:  a.SearchService,
		PublishService: a.PublishService,
		StatsService:   a.StatsService,
		HealthChecks:   a.HealthChecks(),
	})
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// SetupLogging installs the default slog logger for the configured level and format.
func SetupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
