package qwen

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// ProviderName is the key under which this adapter's entry in a
	// ProviderOptions bag is consulted. Entries for other providers are
	// ignored.
	ProviderName = "qwen"

	// Version of this library, reported in the User-Agent header.
	Version = "0.1.0"
)

// compatibleModeSuffix is the path portion of DefaultBaseURL below the
// DashScope root. Rerank endpoints live outside the compatible-mode tree,
// so the rerank adapter strips this suffix to find the root.
const compatibleModeSuffix = "/compatible-mode/v1"

// Provider constructs configured model adapters sharing one base URL,
// auth header, and HTTP transport.
type Provider struct {
	cfg    Config
	client *http.Client
}

// New creates a Provider from cfg, applying defaults for every unset
// field. It fails when no API key is available from cfg or the
// environment.
func New(cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(APIKeyEnvVar)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("qwen: API key is required: set Config.APIKey or %s", APIKeyEnvVar)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Provider{cfg: cfg, client: client}, nil
}

// ChatModel returns a chat adapter for the given model with default
// settings.
func (p *Provider) ChatModel(modelID string) *ChatModel {
	return p.ChatModelWithSettings(modelID, ChatSettings{})
}

// ChatModelWithSettings returns a chat adapter with per-model settings.
func (p *Provider) ChatModelWithSettings(modelID string, settings ChatSettings) *ChatModel {
	return &ChatModel{provider: p, modelID: modelID, settings: settings}
}

// CompletionModel returns a single-prompt completion adapter with default
// settings.
func (p *Provider) CompletionModel(modelID string) *CompletionModel {
	return p.CompletionModelWithSettings(modelID, CompletionSettings{})
}

// CompletionModelWithSettings returns a completion adapter with per-model
// settings.
func (p *Provider) CompletionModelWithSettings(modelID string, settings CompletionSettings) *CompletionModel {
	return &CompletionModel{provider: p, modelID: modelID, settings: settings}
}

// EmbeddingModel returns an embedding adapter with the default batch
// limit.
func (p *Provider) EmbeddingModel(modelID string) *EmbeddingModel {
	return p.EmbeddingModelWithSettings(modelID, EmbeddingSettings{})
}

// EmbeddingModelWithSettings returns an embedding adapter with per-model
// settings.
func (p *Provider) EmbeddingModelWithSettings(modelID string, settings EmbeddingSettings) *EmbeddingModel {
	maxPerCall := settings.MaxEmbeddingsPerCall
	if maxPerCall <= 0 {
		maxPerCall = defaultMaxEmbeddingsPerCall
	}
	return &EmbeddingModel{provider: p, modelID: modelID, maxPerCall: maxPerCall}
}

// RerankModel returns a reranking adapter. The wire format and endpoint
// are selected per model id; see rerank.go.
func (p *Provider) RerankModel(modelID string) *RerankModel {
	return &RerankModel{provider: p, modelID: modelID}
}

// rootBaseURL returns the DashScope root for endpoints that live outside
// the compatible-mode tree.
func (p *Provider) rootBaseURL() string {
	return strings.TrimSuffix(p.cfg.BaseURL, compatibleModeSuffix)
}
