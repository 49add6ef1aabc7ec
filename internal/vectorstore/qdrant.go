package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"notebook-ai/internal/contextutil"
)

// QdrantConfig configures the Qdrant backend.
type QdrantConfig struct {
	URL              string // "http://host:port"; the gRPC port is derived from it
	APIKey           string
	CollectionPrefix string // collections are named <prefix>_<userID>
	VectorSize       int
}

// QdrantStore implements VectorStore using Qdrant with one collection per user.
type QdrantStore struct {
	client     *qdrant.Client
	prefix     string
	vectorSize int
	ensured    sync.Map // collection name -> struct{}
}

// grpcEndpoint derives the gRPC host, port and TLS flag from an HTTP URL.
// The gRPC port is the HTTP port + 1 (6333 -> 6334).
func grpcEndpoint(urlStr string) (string, int, bool, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			port = httpPort + 1
		}
	}

	return host, port, parsedURL.Scheme == "https", nil
}

// NewQdrantStore creates a new Qdrant vector store client.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	host, port, useTLS, err := grpcEndpoint(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("vector size must be greater than 0")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	prefix := cfg.CollectionPrefix
	if prefix == "" {
		prefix = "notes"
	}

	return &QdrantStore{
		client:     client,
		prefix:     prefix,
		vectorSize: cfg.VectorSize,
	}, nil
}

// Close releases the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Ping checks that the Qdrant server answers.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// CollectionName returns the collection that holds a user's chunks.
func (s *QdrantStore) CollectionName(userID string) string {
	return collectionName(s.prefix, userID)
}

func collectionName(prefix, userID string) string {
	// Qdrant collection names may not contain '/'.
	return prefix + "_" + strings.ReplaceAll(userID, "/", "_")
}

// Upsert inserts or updates chunks in the user's collection, creating it on first use.
func (s *QdrantStore) Upsert(ctx context.Context, userID string, chunks []Chunk) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) == 0 {
		return nil
	}

	collection := s.CollectionName(userID)
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(c.ID),
			Vectors: qdrant.NewVectors(c.Vector...),
			Payload: qdrant.NewValueMap(chunkPayload(userID, c)),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(chunks), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(chunks))
	return nil
}

// DeleteByVersion removes every point of a version from the user's collection.
func (s *QdrantStore) DeleteByVersion(ctx context.Context, userID, versionID string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	collection := s.CollectionName(userID)
	exists, err := s.collectionExists(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatchKeyword(FieldVersionID, versionID)},
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count version points: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection, "version_id", versionID, "error", err)
		return 0, fmt.Errorf("failed to delete points: %w", err)
	}

	logger.InfoContext(ctx, "deleted points", "collection", collection, "version_id", versionID, "count", count)
	return int(count), nil
}

// ReplaceVersion deletes then upserts. Qdrant has no multi-operation transactions,
// so a failed upsert leaves the version without points until it is re-embedded.
func (s *QdrantStore) ReplaceVersion(ctx context.Context, userID, versionID string, chunks []Chunk) (int, error) {
	for _, c := range chunks {
		if c.VersionID != versionID {
			return 0, fmt.Errorf("chunk %s belongs to version %s, not %s", c.ID, c.VersionID, versionID)
		}
	}

	removed, err := s.DeleteByVersion(ctx, userID, versionID)
	if err != nil {
		return 0, err
	}
	if err := s.Upsert(ctx, userID, chunks); err != nil {
		return removed, err
	}
	return removed, nil
}

// Query performs a similarity search in the user's collection.
func (s *QdrantStore) Query(ctx context.Context, userID string, vector []float32, topK int, filter Filter) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	if err := filter.validate(); err != nil {
		return nil, err
	}
	if filter.MatchesNothing() {
		return []Hit{}, nil
	}

	collection := s.CollectionName(userID)
	exists, err := s.collectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []Hit{}, nil
	}

	limit := uint64(topK)
	queryReq := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if qf := toQdrantFilter(filter); qf != nil {
		queryReq.Filter = qf
	}

	scoredPoints, err := s.client.Query(ctx, queryReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "top_k", topK, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	hits := make([]Hit, 0, len(scoredPoints))
	for _, p := range scoredPoints {
		hit := hitFromPayload(convertPayloadToMap(p.GetPayload()))
		if p.Id != nil {
			hit.ID = p.Id.GetUuid()
		}
		hit.Score = p.Score
		hits = append(hits, hit)
	}

	logger.InfoContext(ctx, "search completed", "collection", collection, "top_k", topK, "results", len(hits))
	return hits, nil
}

// Count returns the number of points in the user's collection.
func (s *QdrantStore) Count(ctx context.Context, userID string) (int, error) {
	collection := s.CollectionName(userID)
	exists, err := s.collectionExists(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(count), nil
}

func (s *QdrantStore) collectionExists(ctx context.Context, collection string) (bool, error) {
	if _, ok := s.ensured.Load(collection); ok {
		return true, nil
	}
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		s.ensured.Store(collection, struct{}{})
	}
	return exists, nil
}

// ensureCollection creates the collection when missing, or validates its vector size.
func (s *QdrantStore) ensureCollection(ctx context.Context, collection string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if _, ok := s.ensured.Load(collection); ok {
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", s.vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		for _, field := range []string{FieldNoteID, FieldVersionID, FieldFolderID} {
			_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
				CollectionName: collection,
				FieldName:      field,
				FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
			})
			if err != nil {
				return fmt.Errorf("failed to index payload field %s: %w", field, err)
			}
		}
		s.ensured.Store(collection, struct{}{})
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	var actualSize uint64
	if config := info.GetConfig(); config != nil && config.GetParams() != nil {
		if params := config.GetParams().GetVectorsConfig().GetParams(); params != nil {
			actualSize = params.GetSize()
		}
	}
	if actualSize == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if int(actualSize) != s.vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", s.vectorSize, actualSize)
	}

	s.ensured.Store(collection, struct{}{})
	return nil
}

func toQdrantFilter(filter Filter) *qdrant.Filter {
	if len(filter.Must) == 0 {
		return nil
	}
	must := make([]*qdrant.Condition, 0, len(filter.Must))
	for _, p := range filter.Must {
		must = append(must, qdrant.NewMatchKeywords(p.Field, p.Values...))
	}
	return &qdrant.Filter{Must: must}
}

func chunkPayload(userID string, c Chunk) map[string]any {
	return map[string]any{
		FieldUserID:     userID,
		FieldNoteID:     c.NoteID,
		FieldVersionID:  c.VersionID,
		FieldFolderID:   c.FolderID,
		FieldChunkIndex: int64(c.ChunkIndex),
		FieldChunkText:  c.Text,
	}
}

func hitFromPayload(meta map[string]any) Hit {
	str := func(key string) string {
		s, _ := meta[key].(string)
		return s
	}
	var index int
	switch v := meta[FieldChunkIndex].(type) {
	case int64:
		index = int(v)
	case float64:
		index = int(v)
	}
	return Hit{
		NoteID:     str(FieldNoteID),
		VersionID:  str(FieldVersionID),
		FolderID:   str(FieldFolderID),
		ChunkIndex: index,
		Text:       str(FieldChunkText),
	}
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
