package qwen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/debug"
	"github.com/modelrelay/qwen-go/pkg/provider"
)

// The backend exposes two structurally incompatible rerank wire formats:
// a legacy nested shape at the DashScope-native endpoint and a flat
// OpenAI-compatible shape at a different path. The format is selected by
// matching the model id against known prefixes; adding a format is a
// table change, not a new branch.

// rerankWireFormat describes one endpoint/shape pair.
type rerankWireFormat struct {
	name         string
	endpointPath string
	buildRequest func(modelID, query string, documents []string, topN *int, opts map[string]any) any
	parseResults func(body []byte) ([]rerankResult, *rerankUsage, error)
}

var legacyRerankFormat = rerankWireFormat{
	name:         "text-rerank",
	endpointPath: "/api/v1/services/rerank/text-rerank/text-rerank",
	buildRequest: func(modelID, query string, documents []string, topN *int, _ map[string]any) any {
		return textRerankRequest{
			Model: modelID,
			Input: textRerankInput{Query: query, Documents: documents},
			Parameters: textRerankParameters{
				ReturnDocuments: false,
				TopN:            topN,
			},
		}
	},
	parseResults: func(body []byte) ([]rerankResult, *rerankUsage, error) {
		var resp textRerankResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, nil, err
		}
		return resp.Output.Results, resp.Usage, nil
	},
}

var flatRerankFormat = rerankWireFormat{
	name:         "compatible-rerank",
	endpointPath: "/compatible-api/v1/reranks",
	buildRequest: func(modelID, query string, documents []string, topN *int, opts map[string]any) any {
		req := flatRerankRequest{
			Model:     modelID,
			Query:     query,
			Documents: documents,
			TopN:      topN,
		}
		if instruct, ok := opts["instruct"].(string); ok {
			req.Instruct = instruct
		}
		return req
	},
	parseResults: func(body []byte) ([]rerankResult, *rerankUsage, error) {
		var resp flatRerankResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, nil, err
		}
		return resp.Results, resp.Usage, nil
	},
}

// rerankFormatRules maps model-id prefixes to wire formats. Models that
// match no rule use the legacy format.
var rerankFormatRules = []struct {
	prefix string
	format rerankWireFormat
}{
	{prefix: "qwen3-reranker", format: flatRerankFormat},
}

func rerankFormatForModel(modelID string) rerankWireFormat {
	for _, rule := range rerankFormatRules {
		if strings.HasPrefix(modelID, rule.prefix) {
			return rule.format
		}
	}
	return legacyRerankFormat
}

// RerankModel adapts the reranking endpoints to the RerankModel
// capability.
type RerankModel struct {
	provider *Provider
	modelID  string
}

var _ provider.RerankModel = (*RerankModel)(nil)

// ModelID returns the backend model identifier.
func (m *RerankModel) ModelID() string {
	return m.modelID
}

// Rerank submits the query and documents and returns the backend's
// relevance-ordered ranking. Results arrive in descending score order
// and are never re-sorted client-side; only the request's TopN limit
// trims the result count.
func (m *RerankModel) Rerank(ctx context.Context, req *provider.RerankRequest) (*provider.RerankResponse, error) {
	documents, err := serializeRerankDocuments(req.Documents)
	if err != nil {
		return nil, err
	}

	format := rerankFormatForModel(m.modelID)
	opts := req.ProviderOptions.For(ProviderName)
	body := format.buildRequest(m.modelID, req.Query, documents, req.TopN, opts)

	url := m.provider.rootBaseURL() + format.endpointPath
	debug.Log("rerank", "request", "url", url, "model", m.modelID, "format", format.name, "documents", len(documents))

	httpResp, err := m.provider.postJSON(ctx, url, body, req.Headers, false)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	rawBody, err := decodeJSON(url, httpResp, &raw)
	if err != nil {
		return nil, err
	}

	results, usage, err := format.parseResults(rawBody)
	if err != nil {
		return nil, api.NewAPICallError(url, httpResp.StatusCode, "failed to parse rerank response: "+err.Error(), string(rawBody))
	}

	ranking := make([]provider.RankingEntry, 0, len(results))
	for _, r := range results {
		ranking = append(ranking, provider.RankingEntry{
			Index:          r.Index,
			RelevanceScore: r.RelevanceScore,
		})
	}

	resp := &provider.RerankResponse{Ranking: ranking}
	if usage != nil && usage.TotalTokens != nil {
		resp.Usage = &api.EmbeddingUsage{Tokens: usage.TotalTokens}
	}
	return resp, nil
}

// serializeRerankDocuments renders each document as a string: text
// documents pass through, JSON documents are serialized.
func serializeRerankDocuments(docs []provider.RerankDocument) ([]string, error) {
	out := make([]string, 0, len(docs))
	for i, doc := range docs {
		if doc.JSON != nil {
			data, err := json.Marshal(doc.JSON)
			if err != nil {
				return nil, fmt.Errorf("qwen: marshal rerank document %d: %w", i, err)
			}
			out = append(out, string(data))
			continue
		}
		out = append(out, doc.Text)
	}
	return out, nil
}
