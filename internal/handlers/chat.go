package handlers

import (
	"net/http"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/rag"
	"notebook-ai/internal/scope"
	"notebook-ai/internal/service"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// ScopeRequest selects the notes a chat may read. Kind is "note", "folder" or "global".
type ScopeRequest struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// HistoryMessage is an earlier turn of the conversation.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the HTTP request payload for chat.
type ChatRequest struct {
	Message string           `json:"message"`
	Scope   *ScopeRequest    `json:"scope,omitempty"`
	History []HistoryMessage `json:"history,omitempty"`
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Answer     string       `json:"answer"`
	AnswerHTML string       `json:"answer_html"`
	Sources    []rag.Source `json:"sources"`
	Usage      llm.Usage    `json:"usage"`
}

// ServeHTTP handles HTTP requests for chat.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	var req ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var s scope.Scope = scope.GlobalScope{}
	if req.Scope != nil {
		parsed, err := scope.Parse(req.Scope.Kind, req.Scope.ID)
		if err != nil {
			logger.WarnContext(ctx, "invalid scope", "kind", req.Scope.Kind, "error", err)
			writeError(w, http.StatusBadRequest, "Invalid scope: "+err.Error())
			return
		}
		s = parsed
	}

	var history []llm.Message
	for _, m := range req.History {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	svcResp, err := h.chatService.Chat(ctx, service.ChatRequest{
		UserID:  userID,
		Message: req.Message,
		Scope:   s,
		History: history,
	})
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process chat request")
		return
	}

	answerHTML, err := renderMarkdown(svcResp.Answer)
	if err != nil {
		logger.WarnContext(ctx, "failed to render answer markdown", "error", err)
	}

	sources := svcResp.Sources
	if sources == nil {
		sources = []rag.Source{}
	}
	writeJSON(ctx, w, http.StatusOK, ChatResponse{
		Answer:     svcResp.Answer,
		AnswerHTML: answerHTML,
		Sources:    sources,
		Usage:      svcResp.Usage,
	})
}
