package qwen

import (
	"context"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/debug"
	"github.com/modelrelay/qwen-go/pkg/provider"
)

const embeddingsPath = "/embeddings"

// defaultMaxEmbeddingsPerCall is the backend's documented per-request
// row limit.
const defaultMaxEmbeddingsPerCall = 2048

// EmbeddingSettings are per-model settings for embedding adapters.
type EmbeddingSettings struct {
	// MaxEmbeddingsPerCall overrides the default batch limit.
	MaxEmbeddingsPerCall int
}

// EmbeddingModel adapts the embeddings endpoint to the EmbeddingModel
// capability.
type EmbeddingModel struct {
	provider   *Provider
	modelID    string
	maxPerCall int
}

var _ provider.EmbeddingModel = (*EmbeddingModel)(nil)

// ModelID returns the backend model identifier.
func (m *EmbeddingModel) ModelID() string {
	return m.modelID
}

// MaxEmbeddingsPerCall returns the largest batch accepted by Embed.
func (m *EmbeddingModel) MaxEmbeddingsPerCall() int {
	return m.maxPerCall
}

// Embed returns one vector per input value, in input order. Oversized
// batches fail before any network call; the backend is trusted to
// preserve input order in its response.
func (m *EmbeddingModel) Embed(ctx context.Context, req *provider.EmbedRequest) (*provider.EmbedResponse, error) {
	if len(req.Values) > m.maxPerCall {
		return nil, &api.TooManyEmbeddingValuesError{
			Provider:             ProviderName,
			ModelID:              m.modelID,
			MaxEmbeddingsPerCall: m.maxPerCall,
			Count:                len(req.Values),
		}
	}

	body := embeddingRequest{
		Model:          m.modelID,
		Input:          req.Values,
		EncodingFormat: "float",
	}

	url := m.provider.cfg.BaseURL + embeddingsPath
	debug.Log("embeddings", "request", "url", url, "model", m.modelID, "values", len(req.Values))

	httpResp, err := m.provider.postJSON(ctx, url, body, req.Headers, false)
	if err != nil {
		return nil, err
	}

	var embResp embeddingResponse
	if _, err := decodeJSON(url, httpResp, &embResp); err != nil {
		return nil, err
	}

	embeddings := make([][]float64, 0, len(embResp.Data))
	for _, d := range embResp.Data {
		embeddings = append(embeddings, d.Embedding)
	}

	resp := &provider.EmbedResponse{
		Embeddings: embeddings,
		Response:   &api.ResponseMetadata{ID: embResp.ID, ModelID: embResp.Model},
	}
	if embResp.Usage != nil && embResp.Usage.TotalTokens != nil {
		resp.Usage = &api.EmbeddingUsage{Tokens: embResp.Usage.TotalTokens}
	}
	return resp, nil
}
