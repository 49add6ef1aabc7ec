package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_answerer.go -package=mocks notebook-ai/internal/service Answerer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_service.go -package=mocks -mock_names=ChatService=MockChatService notebook-ai/internal/service ChatService

import (
	"context"
	"strings"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/rag"
	"notebook-ai/internal/scope"
)

// MaxHistoryMessages caps how many prior turns a chat request may carry.
const MaxHistoryMessages = 50

// Answerer answers a question over a scope.
// This interface is defined from the service layer's perspective (consumer-first).
type Answerer interface {
	Answer(ctx context.Context, userID string, s scope.Scope, history []llm.Message, question string) (rag.Result, error)
}

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	UserID  string
	Message string
	// Scope defaults to the global scope when nil.
	Scope   scope.Scope
	History []llm.Message
}

// ChatResponse represents a chat response in the domain layer.
type ChatResponse struct {
	Answer  string
	Sources []rag.Source
	Usage   llm.Usage
}

// ChatService provides chat functionality.
type ChatService interface {
	// Chat answers the request's message from the user's notes within the request's scope.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// chatService implements ChatService.
type chatService struct {
	answerer Answerer
}

// NewChatService creates a new ChatService.
func NewChatService(answerer Answerer) ChatService {
	return &chatService{
		answerer: answerer,
	}
}

// Chat answers a chat request.
func (s *chatService) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	// Business validation
	if err := validateChatRequest(req); err != nil {
		logger.WarnContext(ctx, "invalid chat request", "error", err)
		return ChatResponse{}, err
	}
	sc := req.Scope
	if sc == nil {
		sc = scope.GlobalScope{}
	}

	result, err := s.answerer.Answer(ctx, req.UserID, sc, req.History, strings.TrimSpace(req.Message))
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer chat request", "scope", sc.Kind(), "error", err)
		return ChatResponse{Usage: result.Usage}, translateError(err, "failed to answer chat request", ErrExternalService)
	}

	logger.InfoContext(ctx, "chat request processed successfully",
		"scope", sc.Kind(),
		"message_length", len(req.Message),
		"answer_length", len(result.Answer),
		"sources", len(result.Sources),
		"total_tokens", result.Usage.Total(),
	)
	return ChatResponse{
		Answer:  result.Answer,
		Sources: result.Sources,
		Usage:   result.Usage,
	}, nil
}

func validateChatRequest(req ChatRequest) error {
	if req.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "cannot be empty"}
	}
	if strings.TrimSpace(req.Message) == "" {
		return &ValidationError{Field: "message", Message: "cannot be empty"}
	}
	if len(req.History) > MaxHistoryMessages {
		return &ValidationError{Field: "history", Message: "too many messages"}
	}
	for _, m := range req.History {
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			return &ValidationError{Field: "history", Message: "role must be user or assistant"}
		}
	}
	return nil
}
