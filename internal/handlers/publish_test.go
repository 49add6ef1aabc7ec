package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"notebook-ai/internal/llm"
	"notebook-ai/internal/service"
	"notebook-ai/internal/service/mocks"
)

func newPublishRouter(h *PublishHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/versions/{versionID}/publish", h.Publish)
	r.Post("/api/versions/{versionID}/unpublish", h.Unpublish)
	r.Delete("/api/notes/{noteID}", h.DeleteNote)
	return r
}

func TestPublishHandler_Publish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name          string
		mockSetup     func(*mocks.MockPublishService)
		wantStatus    int
		checkResponse func(*testing.T, PublishResponse)
	}{
		{
			name: "published and embedded",
			mockSetup: func(m *mocks.MockPublishService) {
				m.EXPECT().Publish(gomock.Any(), "user-1", "v-1").Return(service.PublishResult{
					VersionID:      "v-1",
					DraftVersionID: "v-2",
					Chunks:         3,
					Usage:          llm.Usage{EmbeddingTokens: 42},
				}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp PublishResponse) {
				if resp.DraftVersionID != "v-2" || resp.Chunks != 3 || resp.Usage.EmbeddingTokens != 42 {
					t.Errorf("response = %+v", resp)
				}
				if resp.EmbedError != "" {
					t.Errorf("embed_error = %q, want empty", resp.EmbedError)
				}
			},
		},
		{
			name: "published without embeddings",
			mockSetup: func(m *mocks.MockPublishService) {
				m.EXPECT().Publish(gomock.Any(), "user-1", "v-1").Return(service.PublishResult{
					VersionID:  "v-1",
					EmbedError: service.WrapError(service.ErrRateLimited, "failed to embed version"),
				}, nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp PublishResponse) {
				if resp.EmbedError == "" {
					t.Error("embed_error should be set")
				}
			},
		},
		{
			name: "not found",
			mockSetup: func(m *mocks.MockPublishService) {
				m.EXPECT().Publish(gomock.Any(), "user-1", "v-1").Return(service.PublishResult{}, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPublishService := mocks.NewMockPublishService(ctrl)
			tt.mockSetup(mockPublishService)

			router := newPublishRouter(NewPublishHandler(mockPublishService))
			req := newUserRequest(http.MethodPost, "/api/versions/v-1/publish", nil, "user-1")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Publish() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.checkResponse != nil {
				var resp PublishResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestPublishHandler_Unpublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("unpublished", func(t *testing.T) {
		mockPublishService := mocks.NewMockPublishService(ctrl)
		mockPublishService.EXPECT().Unpublish(gomock.Any(), "user-1", "v-1").
			Return(service.UnpublishResult{VersionID: "v-1", Removed: 4}, nil)

		router := newPublishRouter(NewPublishHandler(mockPublishService))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUserRequest(http.MethodPost, "/api/versions/v-1/unpublish", nil, "user-1"))

		if w.Code != http.StatusOK {
			t.Fatalf("Unpublish() status = %v, want %v", w.Code, http.StatusOK)
		}
		var resp UnpublishResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if resp.VersionID != "v-1" || resp.Removed != 4 {
			t.Errorf("Unpublish() response = %+v", resp)
		}
	})

	t.Run("draft version", func(t *testing.T) {
		mockPublishService := mocks.NewMockPublishService(ctrl)
		mockPublishService.EXPECT().Unpublish(gomock.Any(), "user-1", "v-1").
			Return(service.UnpublishResult{}, &service.ValidationError{Field: "version_id", Message: "version is not published"})

		router := newPublishRouter(NewPublishHandler(mockPublishService))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, newUserRequest(http.MethodPost, "/api/versions/v-1/unpublish", nil, "user-1"))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Unpublish() status = %v, want %v", w.Code, http.StatusBadRequest)
		}
	})
}

func TestPublishHandler_DeleteNote(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tests := []struct {
		name       string
		userID     string
		mockSetup  func(*mocks.MockPublishService)
		wantStatus int
	}{
		{
			name:   "deleted",
			userID: "user-1",
			mockSetup: func(m *mocks.MockPublishService) {
				m.EXPECT().DeleteNote(gomock.Any(), "user-1", "n-1").Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:   "vector store down",
			userID: "user-1",
			mockSetup: func(m *mocks.MockPublishService) {
				m.EXPECT().DeleteNote(gomock.Any(), "user-1", "n-1").
					Return(service.WrapError(service.ErrExternalService, "failed to remove chunks"))
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:   "unexpected error",
			userID: "user-1",
			mockSetup: func(m *mocks.MockPublishService) {
				m.EXPECT().DeleteNote(gomock.Any(), "user-1", "n-1").Return(errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "missing user",
			mockSetup:  func(m *mocks.MockPublishService) {},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPublishService := mocks.NewMockPublishService(ctrl)
			tt.mockSetup(mockPublishService)

			router := newPublishRouter(NewPublishHandler(mockPublishService))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, newUserRequest(http.MethodDelete, "/api/notes/n-1", nil, tt.userID))

			if w.Code != tt.wantStatus {
				t.Errorf("DeleteNote() status = %v, want %v", w.Code, tt.wantStatus)
			}
		})
	}
}
