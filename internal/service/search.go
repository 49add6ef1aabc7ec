package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_search_service.go -package=mocks -mock_names=SearchService=MockSearchService notebook-ai/internal/service SearchService

import (
	"context"
	"strings"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/scope"
	"notebook-ai/internal/search"
	"notebook-ai/internal/vectorstore"
)

// DefaultSearchTopK is the number of chunks fetched from the vector store per search.
const DefaultSearchTopK = 20

// ChunkCounter reports how many chunks a user has embedded.
type ChunkCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}

// QueryEmbedder embeds a search query.
type QueryEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, llm.Usage, error)
}

// SearchScopeResolver resolves the versions a search covers.
type SearchScopeResolver interface {
	Resolve(ctx context.Context, userID string, s scope.Scope) (scope.Resolved, error)
	ResolvePublishedHistory(ctx context.Context, userID string) (scope.Resolved, error)
}

// HitAggregator groups vector hits into notes.
type HitAggregator interface {
	Aggregate(ctx context.Context, hits []vectorstore.Hit, userID string) ([]search.ResultNote, error)
}

// FallbackSearcher searches notes by text.
type FallbackSearcher interface {
	Search(ctx context.Context, query, userID string) ([]search.ResultNote, error)
}

// SearchRequest represents a search request in the domain layer.
type SearchRequest struct {
	UserID string
	Query  string
	// History searches every published version instead of only the latest per note.
	History bool
}

// SearchService provides note search.
type SearchService interface {
	// Search runs a semantic search, or a text search when the user has nothing embedded.
	Search(ctx context.Context, req SearchRequest) (search.Result, error)
}

// searchService implements SearchService.
type searchService struct {
	chunks      ChunkCounter
	embedder    QueryEmbedder
	vectorStore vectorstore.VectorStore
	resolver    SearchScopeResolver
	aggregator  HitAggregator
	fallback    FallbackSearcher
	topK        int
}

// NewSearchService creates a new SearchService. topK <= 0 uses DefaultSearchTopK.
func NewSearchService(
	chunks ChunkCounter,
	embedder QueryEmbedder,
	vectorStore vectorstore.VectorStore,
	resolver SearchScopeResolver,
	aggregator HitAggregator,
	fallback FallbackSearcher,
	topK int,
) SearchService {
	if topK <= 0 {
		topK = DefaultSearchTopK
	}
	return &searchService{
		chunks:      chunks,
		embedder:    embedder,
		vectorStore: vectorStore,
		resolver:    resolver,
		aggregator:  aggregator,
		fallback:    fallback,
		topK:        topK,
	}
}

// Search runs a search request.
func (s *searchService) Search(ctx context.Context, req SearchRequest) (search.Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query := strings.TrimSpace(req.Query)
	if req.UserID == "" {
		return search.Result{}, &ValidationError{Field: "user_id", Message: "cannot be empty"}
	}
	if query == "" {
		logger.WarnContext(ctx, "empty query in search request")
		return search.Result{}, &ValidationError{Field: "query", Message: "cannot be empty"}
	}

	embedded, err := s.chunks.CountByUser(ctx, req.UserID)
	if err != nil {
		return search.Result{}, translateError(err, "failed to count chunks", ErrInternal)
	}
	if embedded == 0 {
		logger.InfoContext(ctx, "no embeddings for user, using text search", "user_id", req.UserID)
		return s.textSearch(ctx, query, req.UserID)
	}

	// The ledger can outlive the vectors, e.g. an in-memory store after a restart.
	points, err := s.vectorStore.Count(ctx, req.UserID)
	if err != nil {
		return search.Result{}, translateError(err, "failed to count vectors", ErrExternalService)
	}
	if points == 0 {
		logger.WarnContext(ctx, "vector store empty but chunk ledger is not, using text search",
			"user_id", req.UserID, "ledger_chunks", embedded)
		return s.textSearch(ctx, query, req.UserID)
	}

	var resolved scope.Resolved
	if req.History {
		resolved, err = s.resolver.ResolvePublishedHistory(ctx, req.UserID)
	} else {
		resolved, err = s.resolver.Resolve(ctx, req.UserID, scope.GlobalScope{})
	}
	if err != nil {
		return search.Result{}, translateError(err, "failed to resolve search scope", ErrInternal)
	}
	if resolved.Empty() {
		return search.NewResult(query, nil), nil
	}

	vector, usage, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return search.Result{}, translateError(err, "failed to embed query", ErrExternalService)
	}

	hits, err := s.vectorStore.Query(ctx, req.UserID, vector, s.topK, resolved.Filter())
	if err != nil {
		logger.ErrorContext(ctx, "failed to query vector store", "error", err)
		return search.Result{}, translateError(err, "failed to query vector store", ErrExternalService)
	}

	notes, err := s.aggregator.Aggregate(ctx, hits, req.UserID)
	if err != nil {
		return search.Result{}, translateError(err, "failed to aggregate search results", ErrInternal)
	}

	logger.InfoContext(ctx, "semantic search completed",
		"user_id", req.UserID,
		"history", req.History,
		"hits", len(hits),
		"notes", len(notes),
		"embedding_tokens", usage.EmbeddingTokens,
	)
	return search.NewResult(query, notes), nil
}

func (s *searchService) textSearch(ctx context.Context, query, userID string) (search.Result, error) {
	notes, err := s.fallback.Search(ctx, query, userID)
	if err != nil {
		return search.Result{}, translateError(err, "failed to run text search", ErrInternal)
	}
	return search.NewResult(query, notes), nil
}
