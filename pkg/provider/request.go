package provider

import "github.com/modelrelay/qwen-go/pkg/api"

// InputFormat selects how a completion-style model receives the prompt.
type InputFormat string

const (
	// InputFormatMessages renders the conversation with role labels.
	InputFormatMessages InputFormat = "messages"

	// InputFormatPrompt passes a single user text through verbatim.
	InputFormatPrompt InputFormat = "prompt"
)

// GenerateRequest is the canonical call-options record for language model
// calls. Pointer fields distinguish "not set" from a zero value; unset
// sampling parameters are omitted from the wire request.
type GenerateRequest struct {
	Prompt api.Prompt

	MaxOutputTokens  *int
	Temperature      *float64
	TopP             *float64
	TopK             *int
	FrequencyPenalty *float64
	PresencePenalty  *float64
	StopSequences    []string
	Seed             *int

	ResponseFormat *api.ResponseFormat

	Tools      []api.Tool
	ToolChoice *api.ToolChoice

	// InputFormat applies to completion-style models only.
	InputFormat InputFormat

	// ProviderOptions carries request-level provider-specific settings.
	ProviderOptions api.ProviderOptions

	// Headers are extra HTTP headers merged into the outbound request.
	Headers map[string]string
}

// GenerateResponse is the canonical result of a non-streaming call.
type GenerateResponse struct {
	// Content holds the produced parts in canonical order: reasoning,
	// then text, then tool calls in backend-reported order.
	Content []api.ContentPart

	FinishReason api.FinishReason
	Usage        api.Usage
	Warnings     []api.CallWarning
	Response     *api.ResponseMetadata

	// ProviderMetadata carries provider-specific response fields derived
	// from the raw body by a configured extractor.
	ProviderMetadata map[string]any
}

// EmbedRequest is the canonical call-options record for embedding calls.
type EmbedRequest struct {
	Values []string

	ProviderOptions api.ProviderOptions
	Headers         map[string]string
}

// EmbedResponse holds one embedding vector per input value, in input order.
type EmbedResponse struct {
	Embeddings [][]float64
	Usage      *api.EmbeddingUsage
	Response   *api.ResponseMetadata
}

// RerankDocument is one document submitted for reranking. A document is
// either plain text or an arbitrary JSON-serializable value; values are
// serialized to strings before transmission.
type RerankDocument struct {
	Text string
	JSON any
}

// TextDocument creates a plain-text rerank document.
func TextDocument(text string) RerankDocument {
	return RerankDocument{Text: text}
}

// JSONDocument creates a rerank document from a JSON-serializable value.
func JSONDocument(v any) RerankDocument {
	return RerankDocument{JSON: v}
}

// RerankRequest is the canonical call-options record for reranking calls.
type RerankRequest struct {
	Query     string
	Documents []RerankDocument

	// TopN limits how many ranked results the backend returns.
	TopN *int

	ProviderOptions api.ProviderOptions
	Headers         map[string]string
}

// RankingEntry scores one document. Index is the document's position in
// the request; entries arrive in descending relevance order as returned
// by the backend and are never re-sorted.
type RankingEntry struct {
	Index          int
	RelevanceScore float64
}

// RerankResponse is the canonical result of a rerank call.
type RerankResponse struct {
	Ranking []RankingEntry
	Usage   *api.EmbeddingUsage
}
