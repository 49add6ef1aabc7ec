package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_completer.go -package=mocks notebook-ai/internal/rag ChatCompleter
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks notebook-ai/internal/rag Embedder

import (
	"context"
	"fmt"
	"sort"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/scope"
	"notebook-ai/internal/storage"
	"notebook-ai/internal/vectorstore"
)

// ChatCompleter runs one chat completion, optionally offering tools.
type ChatCompleter interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (*llm.Completion, error)
}

// Embedder embeds a single query.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, llm.Usage, error)
}

// ScopeResolver resolves a scope to the versions it covers.
type ScopeResolver interface {
	Resolve(ctx context.Context, userID string, s scope.Scope) (scope.Resolved, error)
}

// NoteLookup loads a live note for its title.
type NoteLookup interface {
	GetByID(ctx context.Context, noteID, userID string) (*storage.Note, error)
}

// AgentFactory creates per-request chat agents.
type AgentFactory struct {
	cfg         AgentConfig
	chat        ChatCompleter
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	resolver    ScopeResolver
	notes       NoteLookup
}

// NewAgentFactory creates a new AgentFactory.
func NewAgentFactory(
	cfg AgentConfig,
	chat ChatCompleter,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	resolver ScopeResolver,
	notes NoteLookup,
) *AgentFactory {
	return &AgentFactory{
		cfg:         cfg.withDefaults(),
		chat:        chat,
		embedder:    embedder,
		vectorStore: vectorStore,
		resolver:    resolver,
		notes:       notes,
	}
}

// Agent answers one question over a fixed scope. It is not safe for concurrent use.
type Agent struct {
	cfg     AgentConfig
	chat    ChatCompleter
	tool    *SearchNotesTool
	scope   scope.Resolved
	history []llm.Message
}

// CreateAgent resolves s for userID and returns an agent bound to the result.
// The scope is resolved once; versions published afterwards are not visible to the agent.
func (f *AgentFactory) CreateAgent(ctx context.Context, userID string, s scope.Scope, history []llm.Message) (*Agent, error) {
	resolved, err := f.resolver.Resolve(ctx, userID, s)
	if err != nil {
		return nil, err
	}

	return &Agent{
		cfg:  f.cfg,
		chat: f.chat,
		tool: &SearchNotesTool{
			userID:      userID,
			filter:      resolved.Filter(),
			topK:        f.cfg.TopK,
			embedder:    f.embedder,
			vectorStore: f.vectorStore,
			notes:       f.notes,
		},
		scope:   resolved,
		history: history,
	}, nil
}

// Answer creates an agent for one request and runs it on question.
func (f *AgentFactory) Answer(ctx context.Context, userID string, s scope.Scope, history []llm.Message, question string) (Result, error) {
	agent, err := f.CreateAgent(ctx, userID, s, history)
	if err != nil {
		return Result{}, err
	}
	return agent.Run(ctx, question)
}

// Scope returns the versions the agent can search.
func (a *Agent) Scope() scope.Resolved {
	return a.scope
}

// Run answers question, letting the model call search_notes up to the configured number of steps.
func (a *Agent) Run(ctx context.Context, question string) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: buildSystemPrompt(a.scope, a.history)},
		{Role: llm.RoleUser, Content: question},
	}
	tools := []llm.Tool{a.tool.Definition()}

	var usage llm.Usage
	sources := make(map[string]Source)

	logger.InfoContext(ctx, "agent run started",
		"scope", a.scope.Kind,
		"versions_in_scope", len(a.scope.Refs),
		"history_messages", len(a.history),
		"max_steps", a.cfg.MaxSteps,
	)

	for step := 1; step <= a.cfg.MaxSteps; step++ {
		completion, err := a.chat.ChatWithMessages(ctx, messages, a.params(tools))
		if err != nil {
			logger.ErrorContext(ctx, "failed to get LLM response", "step", step, "error", err)
			return Result{Usage: usage}, fmt.Errorf("failed to get LLM response: %w", err)
		}
		usage = usage.Add(completion.Usage)

		if len(completion.Message.ToolCalls) == 0 {
			logger.InfoContext(ctx, "agent run completed", "steps", step, "sources", len(sources), "total_tokens", usage.Total())
			return Result{Answer: completion.Message.Content, Sources: sortedSources(sources), Usage: usage}, nil
		}

		messages = append(messages, completion.Message)
		for _, call := range completion.Message.ToolCalls {
			content, err := a.runTool(ctx, call, sources, &usage)
			if err != nil {
				return Result{Usage: usage}, err
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    content,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
		logger.DebugContext(ctx, "agent step completed", "step", step, "tool_calls", len(completion.Message.ToolCalls))
	}

	logger.WarnContext(ctx, "agent step budget exhausted, forcing final answer", "max_steps", a.cfg.MaxSteps)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: "You have used all available searches. Answer now using only the results above.",
	})
	completion, err := a.chat.ChatWithMessages(ctx, messages, a.params(nil))
	if err != nil {
		return Result{Usage: usage}, fmt.Errorf("failed to get LLM response: %w", err)
	}
	usage = usage.Add(completion.Usage)

	return Result{Answer: completion.Message.Content, Sources: sortedSources(sources), Usage: usage}, nil
}

func (a *Agent) params(tools []llm.Tool) llm.ChatParams {
	return llm.ChatParams{
		Model:       a.cfg.Model,
		Temperature: a.cfg.Temperature,
		Tools:       tools,
	}
}

// runTool executes one tool call and records its sources.
func (a *Agent) runTool(ctx context.Context, call llm.ToolCall, sources map[string]Source, usage *llm.Usage) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if call.Function.Name != SearchNotesToolName {
		logger.WarnContext(ctx, "model requested unknown tool", "tool", call.Function.Name)
		return encodeOutput(searchNotesOutput{Results: []searchNotesItem{}, Error: "unknown tool " + call.Function.Name}), nil
	}

	content, found, u, err := a.tool.Call(ctx, call.Function.Arguments)
	*usage = usage.Add(u)
	if err != nil {
		logger.ErrorContext(ctx, "search_notes failed", "error", err)
		return "", err
	}

	for _, s := range found {
		if prev, ok := sources[s.ChunkID]; !ok || s.Score > prev.Score {
			sources[s.ChunkID] = s
		}
	}
	return content, nil
}

func sortedSources(byChunk map[string]Source) []Source {
	out := make([]Source, 0, len(byChunk))
	for _, s := range byChunk {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}
