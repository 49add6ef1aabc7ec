package llm

// Roles used in chat conversations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single message in a chat conversation.
// Assistant messages may carry tool calls; tool messages answer one of them by ToolCallID.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Tool describes a function the model may call.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the callable part of a Tool. Parameters is a JSON Schema object.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolCall is a model's request to invoke a tool.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the tool name and its JSON-encoded arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage counts tokens spent on a request. Embedding tokens are estimated locally.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	EmbeddingTokens  int `json:"embedding_tokens"`
}

// Add returns the sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		EmbeddingTokens:  u.EmbeddingTokens + other.EmbeddingTokens,
	}
}

// Total is the number of tokens across all categories.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens + u.EmbeddingTokens
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	// Temperature controls the randomness of the output.
	// If 0, the client's configured temperature is used.
	Temperature float32

	// Tools offered to the model. Empty means a plain completion.
	Tools []Tool
}

// Completion is a single assistant turn returned by the chat API.
type Completion struct {
	Message      Message
	FinishReason string
	Usage        Usage
}

// ChatConfig configures the chat completions client.
type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
}

// EmbeddingConfig configures the embeddings client.
type EmbeddingConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	VectorSize int // Expected vector size; every returned vector is validated against it
}
