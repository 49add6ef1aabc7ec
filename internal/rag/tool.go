package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"notebook-ai/internal/contextutil"
	"notebook-ai/internal/llm"
	"notebook-ai/internal/vectorstore"
)

// SearchNotesToolName is the function name exposed to the model.
const SearchNotesToolName = "search_notes"

const noResultsMessage = "No relevant notes found in the current scope."

// SearchNotesTool searches the chunks of the versions resolved for one agent.
type SearchNotesTool struct {
	userID      string
	filter      vectorstore.Filter
	topK        int
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	notes       NoteLookup
}

type searchNotesArgs struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type searchNotesOutput struct {
	Results []searchNotesItem `json:"results"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
}

type searchNotesItem struct {
	NoteTitle  string  `json:"note_title"`
	NoteID     string  `json:"note_id"`
	VersionID  string  `json:"version_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
	Text       string  `json:"text"`
}

// Definition returns the tool schema offered to the model.
func (t *SearchNotesTool) Definition() llm.Tool {
	return llm.Tool{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        SearchNotesToolName,
			Description: "Semantic search over the user's published notes in the current scope. Returns the most relevant passages.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "What to look for, phrased as a search query.",
					},
					"top_k": map[string]any{
						"type":        "integer",
						"description": fmt.Sprintf("Number of passages to return (default %d, max %d).", t.topK, MaxTopK),
						"minimum":     1,
						"maximum":     MaxTopK,
					},
				},
				"required": []string{"query"},
			},
		},
	}
}

// Call runs the tool for a raw JSON argument string and returns the content of the
// tool message. Malformed arguments are reported back to the model instead of failing the run.
func (t *SearchNotesTool) Call(ctx context.Context, arguments string) (string, []Source, llm.Usage, error) {
	var args searchNotesArgs
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return encodeOutput(searchNotesOutput{Results: []searchNotesItem{}, Error: "arguments must be a JSON object with a query string"}), nil, llm.Usage{}, nil
	}
	if strings.TrimSpace(args.Query) == "" {
		return encodeOutput(searchNotesOutput{Results: []searchNotesItem{}, Error: "query must not be empty"}), nil, llm.Usage{}, nil
	}

	sources, usage, err := t.Search(ctx, args.Query, args.TopK)
	if err != nil {
		return "", nil, usage, err
	}

	out := searchNotesOutput{Results: make([]searchNotesItem, 0, len(sources))}
	for _, s := range sources {
		out.Results = append(out.Results, searchNotesItem{
			NoteTitle:  s.NoteTitle,
			NoteID:     s.NoteID,
			VersionID:  s.VersionID,
			ChunkIndex: s.ChunkIndex,
			Score:      s.Score,
			Text:       s.Text,
		})
	}
	if len(sources) == 0 {
		out.Message = noResultsMessage
	}
	return encodeOutput(out), sources, usage, nil
}

// Search embeds query and returns the nearest chunks in scope.
// topK <= 0 uses the tool default; values above MaxTopK are capped.
func (t *SearchNotesTool) Search(ctx context.Context, query string, topK int) ([]Source, llm.Usage, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if topK <= 0 {
		topK = t.topK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	if t.filter.MatchesNothing() {
		logger.InfoContext(ctx, "search_notes skipped, nothing in scope", "query", query)
		return []Source{}, llm.Usage{}, nil
	}

	vector, usage, err := t.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, usage, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := t.vectorStore.Query(ctx, t.userID, vector, topK, t.filter)
	if err != nil {
		return nil, usage, fmt.Errorf("failed to search vector store: %w", err)
	}

	titles := make(map[string]string)
	missing := make(map[string]bool)
	sources := make([]Source, 0, len(hits))
	for _, hit := range hits {
		if missing[hit.NoteID] {
			continue
		}
		title, ok := titles[hit.NoteID]
		if !ok {
			note, err := t.notes.GetByID(ctx, hit.NoteID, t.userID)
			if err != nil {
				logger.WarnContext(ctx, "skipping hits for unavailable note", "note_id", hit.NoteID, "error", err)
				missing[hit.NoteID] = true
				continue
			}
			title = note.Title
			titles[hit.NoteID] = title
		}
		sources = append(sources, Source{
			ChunkID:    hit.ID,
			NoteID:     hit.NoteID,
			NoteTitle:  title,
			VersionID:  hit.VersionID,
			ChunkIndex: hit.ChunkIndex,
			Score:      hit.Score,
			Text:       hit.Text,
		})
	}

	logger.InfoContext(ctx, "search_notes completed", "query", query, "top_k", topK, "hits", len(hits), "sources", len(sources))
	return sources, usage, nil
}

func encodeOutput(out searchNotesOutput) string {
	b, err := json.Marshal(out)
	if err != nil {
		return `{"results":[],"error":"failed to encode results"}`
	}
	return string(b)
}
