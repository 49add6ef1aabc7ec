package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/service"
)

// PublishHandler handles publication changes of versions and note deletion.
type PublishHandler struct {
	publishService service.PublishService
}

// NewPublishHandler creates a new PublishHandler.
func NewPublishHandler(publishService service.PublishService) *PublishHandler {
	return &PublishHandler{publishService: publishService}
}

// PublishResponse is returned after a version has been published.
type PublishResponse struct {
	VersionID      string    `json:"version_id"`
	DraftVersionID string    `json:"draft_version_id,omitempty"`
	Chunks         int       `json:"chunks"`
	Removed        int       `json:"removed"`
	Usage          llm.Usage `json:"usage"`
	// EmbedError is set when the version was published but embedding failed.
	EmbedError string `json:"embed_error,omitempty"`
}

// UnpublishResponse is returned after a version has been unpublished.
type UnpublishResponse struct {
	VersionID string `json:"version_id"`
	Removed   int    `json:"removed"`
}

// Publish handles POST /api/versions/{versionID}/publish.
func (h *PublishHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.publishService.Publish(ctx, userID, chi.URLParam(r, "versionID"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to publish version")
		return
	}

	resp := PublishResponse{
		VersionID:      result.VersionID,
		DraftVersionID: result.DraftVersionID,
		Chunks:         result.Chunks,
		Removed:        result.Removed,
		Usage:          result.Usage,
	}
	if result.EmbedError != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "version published without embeddings", "version_id", result.VersionID, "error", result.EmbedError)
		resp.EmbedError = result.EmbedError.Error()
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Unpublish handles POST /api/versions/{versionID}/unpublish.
func (h *PublishHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.publishService.Unpublish(ctx, userID, chi.URLParam(r, "versionID"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to unpublish version")
		return
	}
	writeJSON(ctx, w, http.StatusOK, UnpublishResponse{VersionID: result.VersionID, Removed: result.Removed})
}

// DeleteNote handles DELETE /api/notes/{noteID}.
func (h *PublishHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.publishService.DeleteNote(ctx, userID, chi.URLParam(r, "noteID")); err != nil {
		handleServiceError(w, ctx, err, "Failed to delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
