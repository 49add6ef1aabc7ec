package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"notebook-ai/internal/handlers"
	"notebook-ai/internal/search"
	"notebook-ai/internal/service"
	"notebook-ai/internal/service/mocks"
)

type routerMocks struct {
	chat    *mocks.MockChatService
	search  *mocks.MockSearchService
	publish *mocks.MockPublishService
	stats   *mocks.MockStatsService
}

func newTestRouter(t *testing.T) (http.Handler, *routerMocks) {
	ctrl := gomock.NewController(t)
	m := &routerMocks{
		chat:    mocks.NewMockChatService(ctrl),
		search:  mocks.NewMockSearchService(ctrl),
		publish: mocks.NewMockPublishService(ctrl),
		stats:   mocks.NewMockStatsService(ctrl),
	}
	deps := &Deps{
		ChatService:    m.chat,
		SearchService:  m.search,
		PublishService: m.publish,
		StatsService:   m.stats,
		HealthChecks: map[string]handlers.CheckFunc{
			"database": func(ctx context.Context) error { return nil },
		},
	}
	return NewRouter(deps), m
}

func TestNewRouter(t *testing.T) {
	router, _ := newTestRouter(t)
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		userID     string
		body       string
		setup      func(m *routerMocks)
		wantStatus int
	}{
		{
			name:       "GET /api/health without user",
			method:     http.MethodGet,
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /api/chat requires user",
			method:     http.MethodPost,
			path:       "/api/chat",
			body:       `{"message":"hi"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "POST /api/chat exists",
			method:     http.MethodPost,
			path:       "/api/chat",
			userID:     "user-1",
			wantStatus: http.StatusBadRequest, // Bad request due to empty body, but route exists
		},
		{
			name:       "GET /api/chat method not allowed",
			method:     http.MethodGet,
			path:       "/api/chat",
			userID:     "user-1",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:   "POST /api/search",
			method: http.MethodPost,
			path:   "/api/search",
			userID: "user-1",
			body:   `{"query":"stew"}`,
			setup: func(m *routerMocks) {
				m.search.EXPECT().
					Search(gomock.Any(), service.SearchRequest{UserID: "user-1", Query: "stew"}).
					Return(search.NewResult("stew", nil), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "POST /api/versions/{id}/publish",
			method: http.MethodPost,
			path:   "/api/versions/v-1/publish",
			userID: "user-1",
			setup: func(m *routerMocks) {
				m.publish.EXPECT().Publish(gomock.Any(), "user-1", "v-1").
					Return(service.PublishResult{VersionID: "v-1"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "POST /api/versions/{id}/unpublish",
			method: http.MethodPost,
			path:   "/api/versions/v-1/unpublish",
			userID: "user-1",
			setup: func(m *routerMocks) {
				m.publish.EXPECT().Unpublish(gomock.Any(), "user-1", "v-1").
					Return(service.UnpublishResult{VersionID: "v-1"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "DELETE /api/notes/{id}",
			method: http.MethodDelete,
			path:   "/api/notes/n-1",
			userID: "user-1",
			setup: func(m *routerMocks) {
				m.publish.EXPECT().DeleteNote(gomock.Any(), "user-1", "n-1").Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/unknown",
			userID:     "user-1",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := newTestRouter(t)
			if tt.setup != nil {
				tt.setup(m)
			}

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.userID != "" {
				req.Header.Set(UserIDHeader, tt.userID)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("Router should apply CORS middleware")
	}
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %v, want %v", w.Code, http.StatusNoContent)
	}
}
