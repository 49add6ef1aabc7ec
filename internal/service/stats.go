package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_stats_service.go -package=mocks -mock_names=StatsService=MockStatsService notebook-ai/internal/service StatsService

import (
	"context"

	"notebook-ai/internal/indexer"
)

// CoverageReporter computes indexing coverage.
type CoverageReporter interface {
	CoverageStats(ctx context.Context, userID, embeddingModelName string) (*indexer.CoverageStats, error)
}

// StatsService reports how much of a user's content is embedded.
type StatsService interface {
	Coverage(ctx context.Context, userID string) (*indexer.CoverageStats, error)
}

type statsService struct {
	reporter       CoverageReporter
	embeddingModel string
}

// NewStatsService creates a new StatsService for the configured embedding model.
func NewStatsService(reporter CoverageReporter, embeddingModel string) StatsService {
	return &statsService{reporter: reporter, embeddingModel: embeddingModel}
}

func (s *statsService) Coverage(ctx context.Context, userID string) (*indexer.CoverageStats, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Message: "cannot be empty"}
	}
	stats, err := s.reporter.CoverageStats(ctx, userID, s.embeddingModel)
	if err != nil {
		return nil, translateError(err, "failed to compute coverage stats", ErrInternal)
	}
	return stats, nil
}
