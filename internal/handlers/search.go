package handlers

import (
	"net/http"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/service"
)

// SearchHandler handles HTTP requests for note search.
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchRequest represents the HTTP request payload for search.
type SearchRequest struct {
	Query string `json:"query"`
	// History includes every published version, not only the latest per note.
	History bool `json:"history,omitempty"`
}

// ServeHTTP handles HTTP requests for search. The response body is a search.Result.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.searchService.Search(ctx, service.SearchRequest{
		UserID:  userID,
		Query:   req.Query,
		History: req.History,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to search notes")
		return
	}

	writeJSON(ctx, w, http.StatusOK, result)
}
