package qwen

import (
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the production DashScope OpenAI-compatible endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	// APIKeyEnvVar names the environment variable consulted when
	// Config.APIKey is empty.
	APIKeyEnvVar = "DASHSCOPE_API_KEY"
)

// Config holds configuration shared by all models built from one Provider.
// The zero value is usable when the API key is available from the
// environment. Config is copied at construction and never mutated
// afterwards, so concurrent calls need no synchronization.
type Config struct {
	// BaseURL of the OpenAI-compatible API. Defaults to DefaultBaseURL.
	BaseURL string

	// APIKey for bearer authentication. Defaults to $DASHSCOPE_API_KEY.
	APIKey string

	// Headers are added to every outbound request.
	Headers map[string]string

	// HTTPClient overrides the default transport. When set, Timeout is
	// ignored.
	HTTPClient *http.Client

	// Timeout for non-streaming HTTP requests. Defaults to 120s.
	// Streaming requests rely on context cancellation instead.
	Timeout time.Duration

	// MetadataExtractor derives provider-specific metadata from the raw
	// response body of non-streaming calls. Optional.
	MetadataExtractor func(rawBody []byte) map[string]any
}
