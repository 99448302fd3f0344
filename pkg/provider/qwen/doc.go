// Package qwen implements the provider capability interfaces for the Qwen
// (DashScope) HTTP APIs: chat completions, text completions, embeddings,
// and document reranking. It translates between the canonical types from
// pkg/api and the backend's OpenAI-compatible wire format, handling request
// serialization, response parsing, SSE chunk transcoding into lifecycle
// events, tool call argument accumulation, and error mapping.
package qwen
