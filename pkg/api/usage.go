package api

// Usage holds token accounting for one model call. All counts are
// optional: a nil field means the backend did not report that number,
// which is distinct from reporting zero.
type Usage struct {
	InputTokens  InputTokenUsage
	OutputTokens OutputTokenUsage
}

// InputTokenUsage breaks down prompt-side token counts.
type InputTokenUsage struct {
	Total      *int
	NoCache    *int
	CacheRead  *int
	CacheWrite *int
}

// OutputTokenUsage breaks down completion-side token counts.
type OutputTokenUsage struct {
	Total     *int
	Text      *int
	Reasoning *int
}

// EmbeddingUsage holds token accounting for an embedding or rerank call.
// Backends report only a total for these endpoints.
type EmbeddingUsage struct {
	Tokens *int
}
