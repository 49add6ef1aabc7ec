package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
)

// DefaultVectorSize is the dimension of the default embedding model.
const DefaultVectorSize = 1536

// runesPerToken approximates tokenizer output for budgeting purposes.
const runesPerToken = 4

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
type EmbeddingsClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	ExpectedSize int // Expected vector size for validation
	client       *http.Client
}

// NewEmbeddingsClient creates a new embeddings client.
// All embeddings returned by EmbedTexts are validated against cfg.VectorSize.
func NewEmbeddingsClient(cfg EmbeddingConfig) *EmbeddingsClient {
	size := cfg.VectorSize
	if size <= 0 {
		size = DefaultVectorSize
	}
	return &EmbeddingsClient{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		ExpectedSize: size,
		client:       http.DefaultClient,
	}
}

// EmbeddingsRequest represents the request payload for embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// EstimateTokens approximates the token count of texts at four runes per token, rounded up.
func EstimateTokens(texts []string) int {
	runes := 0
	for _, t := range texts {
		runes += len([]rune(t))
	}
	return (runes + runesPerToken - 1) / runesPerToken
}

// EmbedTexts generates embeddings for the given texts in a single request.
// Vectors are returned in input order. The usage estimate is returned even on failure.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, Usage, error) {
	usage := Usage{EmbeddingTokens: EstimateTokens(texts)}
	if len(texts) == 0 {
		return nil, usage, fmt.Errorf("empty input array")
	}

	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)

	payload := EmbeddingsRequest{
		Model: c.Model,
		Input: texts,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, usage, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, usage, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, usage, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, usage, statusError(resp.StatusCode, raw)
	}

	var embeddingsResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, usage, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embeddingsResp.Data) != len(texts) {
		return nil, usage, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddingsResp.Data))
	}

	data := embeddingsResp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	result := make([][]float32, len(data))
	for i, d := range data {
		if d.Index != i {
			return nil, usage, fmt.Errorf("embedding index %d out of range for %d inputs", d.Index, len(texts))
		}
		if len(d.Embedding) != c.ExpectedSize {
			return nil, usage, fmt.Errorf("embedding %d has size %d, expected %d", i, len(d.Embedding), c.ExpectedSize)
		}

		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		result[i] = vec
	}

	return result, usage, nil
}

// EmbedText embeds a single text.
func (c *EmbeddingsClient) EmbedText(ctx context.Context, text string) ([]float32, Usage, error) {
	vecs, usage, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, usage, err
	}
	return vecs[0], usage, nil
}
