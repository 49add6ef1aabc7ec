package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"notebook-ai/internal/indexer"
	"notebook-ai/internal/service/mocks"
)

func TestStatsHandler_ServeHTTP(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("coverage", func(t *testing.T) {
		mockStatsService := mocks.NewMockStatsService(ctrl)
		mockStatsService.EXPECT().Coverage(gomock.Any(), "user-1").Return(&indexer.CoverageStats{
			PublishedVersions: 3,
			ChunksEmbedded:    7,
			ChunkerVersion:    indexer.ChunkerVersion,
		}, nil)

		w := httptest.NewRecorder()
		NewStatsHandler(mockStatsService).ServeHTTP(w, newUserRequest(http.MethodGet, "/api/stats", nil, "user-1"))

		if w.Code != http.StatusOK {
			t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, http.StatusOK)
		}
		var resp indexer.CoverageStats
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if resp.PublishedVersions != 3 || resp.ChunksEmbedded != 7 {
			t.Errorf("ServeHTTP() response = %+v", resp)
		}
	})

	t.Run("failure", func(t *testing.T) {
		mockStatsService := mocks.NewMockStatsService(ctrl)
		mockStatsService.EXPECT().Coverage(gomock.Any(), "user-1").Return(nil, errors.New("db closed"))

		w := httptest.NewRecorder()
		NewStatsHandler(mockStatsService).ServeHTTP(w, newUserRequest(http.MethodGet, "/api/stats", nil, "user-1"))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ServeHTTP() status = %v, want %v", w.Code, http.StatusInternalServerError)
		}
	})
}
