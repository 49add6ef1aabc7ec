package rag

import "notebook-ai/internal/llm"

const (
	// DefaultTopK is the number of chunks search_notes returns when the model does not ask for a count.
	DefaultTopK = 5
	// MaxTopK caps the number of chunks a single search_notes call may return.
	MaxTopK = 20
	// DefaultMaxSteps bounds the number of tool-calling rounds per question.
	DefaultMaxSteps = 4
)

// AgentConfig holds tunables for chat agents.
type AgentConfig struct {
	// Model overrides the chat client's default model when set.
	Model string
	// Temperature for completions. 0 uses the chat client's default.
	Temperature float32
	// TopK is the default number of chunks per search_notes call.
	TopK int
	// MaxSteps is the number of completions that may request tools before a final answer is forced.
	MaxSteps int
}

func (c AgentConfig) withDefaults() AgentConfig {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.TopK > MaxTopK {
		c.TopK = MaxTopK
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	return c
}

// Source is a chunk the agent retrieved while answering.
type Source struct {
	ChunkID    string  `json:"chunk_id"`
	NoteID     string  `json:"note_id"`
	NoteTitle  string  `json:"note_title"`
	VersionID  string  `json:"version_id"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
	Text       string  `json:"text"`
}

// Result is the outcome of one agent run.
type Result struct {
	// Answer is the final assistant message.
	Answer string `json:"answer"`
	// Sources are the chunks returned by search_notes, deduplicated, best score first.
	Sources []Source `json:"sources"`
	// Usage sums the tokens spent on completions and query embeddings.
	Usage llm.Usage `json:"usage"`
}
