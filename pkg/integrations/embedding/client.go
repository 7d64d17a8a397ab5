// Package embedding wraps the OpenAI-compatible text-embeddings endpoint
// used by EP stage 6 (spec.md §4.2) and RE channel C1 (spec.md §4.6).
package embedding

import (
	"context"
	"fmt"

	"github.com/SkyAerope/Brainpile/pkg/config"
	"github.com/SkyAerope/Brainpile/pkg/core"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client generates dense text embeddings against a configured
// OpenAI-compatible endpoint.
type Client struct {
	raw   openai.Client
	model string
}

// NewClient builds a Client targeting the configured embedding service.
func NewClient(cfg config.EmbeddingConfig) *Client {
	raw := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.APIBase),
	)
	return &Client{raw: raw, model: cfg.Model}
}

// Embed encodes text into a dense vector. Callers are responsible for
// skipping the call when text is empty (spec.md §3: "text_embedding is set
// iff searchable_text is non-empty and the embedding service succeeded").
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.raw.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: c.model,
	})
	if err != nil {
		return nil, &core.TransportError{Op: "embedding.Embed", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &core.TransportError{Op: "embedding.Embed", Err: fmt.Errorf("no embedding data returned")}
	}

	data := resp.Data[0].Embedding
	vector := make([]float32, len(data))
	for i, v := range data {
		vector[i] = float32(v)
	}
	return vector, nil
}
