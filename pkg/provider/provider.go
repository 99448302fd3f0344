package provider

import (
	"context"

	"github.com/modelrelay/qwen-go/pkg/api"
)

// LanguageModel abstracts a text-generating model, chat or completion
// style. Implementations must be safe for concurrent use: per-call state
// is never shared between calls.
type LanguageModel interface {
	// ModelID returns the backend model identifier.
	ModelID() string

	// Generate performs one non-streaming call.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Stream performs one streaming call. The returned channel delivers
	// ordered lifecycle events and is closed by the adapter when the
	// stream finishes or fails. A finish event precedes the close unless
	// the context is cancelled first.
	Stream(ctx context.Context, req *GenerateRequest) (<-chan api.StreamEvent, error)
}

// EmbeddingModel abstracts a text embedding model.
type EmbeddingModel interface {
	ModelID() string

	// MaxEmbeddingsPerCall returns the largest batch accepted by Embed.
	MaxEmbeddingsPerCall() int

	// Embed returns one vector per input value, in input order.
	Embed(ctx context.Context, req *EmbedRequest) (*EmbedResponse, error)
}

// RerankModel abstracts a document reranking model.
type RerankModel interface {
	ModelID() string

	// Rerank scores the documents against the query and returns them in
	// the backend's relevance order.
	Rerank(ctx context.Context, req *RerankRequest) (*RerankResponse, error)
}
