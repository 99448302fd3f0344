package qwen

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/tidwall/sjson"
)

// Wire types for the DashScope OpenAI-compatible endpoints. Request types
// are built fresh per call and discarded after serialization; response
// types are decoded leniently, tolerating absent optional fields.

// mergeExtra injects provider-option keys into an already-serialized JSON
// object. Keys are applied in sorted order for deterministic output, and a
// key colliding with a struct field overwrites it: options ride alongside
// (and win over) the standard fields.
func mergeExtra(data []byte, extra map[string]any) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var err error
	for _, k := range keys {
		// Escape path metacharacters so option keys are treated literally.
		path := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`).Replace(k)
		data, err = sjson.SetBytes(data, path, extra[k])
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// chatCompletionRequest is the body for POST /chat/completions.
type chatCompletionRequest struct {
	Model            string             `json:"model"`
	Messages         []chatMessage      `json:"messages"`
	Tools            []chatTool         `json:"tools,omitempty"`
	ToolChoice       any                `json:"tool_choice,omitempty"`
	MaxTokens        *int               `json:"max_tokens,omitempty"`
	Temperature      *float64           `json:"temperature,omitempty"`
	TopP             *float64           `json:"top_p,omitempty"`
	FrequencyPenalty *float64           `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64           `json:"presence_penalty,omitempty"`
	Stop             []string           `json:"stop,omitempty"`
	Seed             *int               `json:"seed,omitempty"`
	ResponseFormat   any                `json:"response_format,omitempty"`
	Stream           bool               `json:"stream,omitempty"`
	StreamOptions    *chatStreamOptions `json:"stream_options,omitempty"`
}

// chatStreamOptions controls streaming behavior.
type chatStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// chatMessage is one entry of the flat messages array. Content is a plain
// string or a []chatContentPart. extra holds merged provider options
// spread at the top level of the serialized object.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    any            `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`

	extra map[string]any
}

func (m chatMessage) MarshalJSON() ([]byte, error) {
	type plain chatMessage
	data, err := json.Marshal(plain(m))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, m.extra)
}

// chatContentPart is one typed sub-part of an array-valued content field.
type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`

	extra map[string]any
}

func (p chatContentPart) MarshalJSON() ([]byte, error) {
	type plain chatContentPart
	data, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, p.extra)
}

type chatImageURL struct {
	URL string `json:"url"`
}

// chatToolCall is a tool call entry in an assistant message.
type chatToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`

	extra map[string]any
}

func (c chatToolCall) MarshalJSON() ([]byte, error) {
	type plain chatToolCall
	data, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, c.extra)
}

type chatFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// chatTool is a tool definition.
type chatTool struct {
	Type     string          `json:"type"`
	Function chatFunctionDef `json:"function"`
}

type chatFunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// wireUsage holds token counts as reported by the backend. Pointers
// distinguish "not reported" from zero.
type wireUsage struct {
	PromptTokens            *int              `json:"prompt_tokens"`
	CompletionTokens        *int              `json:"completion_tokens"`
	TotalTokens             *int              `json:"total_tokens"`
	PromptTokensDetails     *promptDetails    `json:"prompt_tokens_details"`
	CompletionTokensDetails *completionDetail `json:"completion_tokens_details"`
}

type promptDetails struct {
	CachedTokens *int `json:"cached_tokens"`
}

type completionDetail struct {
	ReasoningTokens *int `json:"reasoning_tokens"`
}

// chatCompletionResponse is the non-streaming response body.
type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *wireUsage   `json:"usage"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Role             string                 `json:"role"`
	Content          *string                `json:"content"`
	ReasoningContent *string                `json:"reasoning_content"`
	ToolCalls        []chatResponseToolCall `json:"tool_calls"`
}

type chatResponseToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function chatFunctionCall `json:"function"`
}

// chatCompletionChunk is one SSE chunk of a streaming response. A chunk
// carrying Error signals an application-level failure instead of a delta.
type chatCompletionChunk struct {
	ID      string             `json:"id"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []chatChunkChoice  `json:"choices"`
	Usage   *wireUsage         `json:"usage"`
	Error   *vendorErrorDetail `json:"error"`
}

type chatChunkChoice struct {
	Index        int            `json:"index"`
	Delta        chatChunkDelta `json:"delta"`
	FinishReason *string        `json:"finish_reason"`
}

type chatChunkDelta struct {
	Role             string              `json:"role,omitempty"`
	Content          *string             `json:"content"`
	ReasoningContent *string             `json:"reasoning_content"`
	ToolCalls        []chatChunkToolCall `json:"tool_calls"`
}

// chatChunkToolCall reports a call by zero-based index; the stable id
// appears only on the first chunk for that index.
type chatChunkToolCall struct {
	Index    int               `json:"index"`
	ID       string            `json:"id,omitempty"`
	Type     string            `json:"type,omitempty"`
	Function chatChunkFunction `json:"function"`
}

type chatChunkFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// vendorErrorDetail is the backend's error object, either nested under
// "error" or at the top level of the body.
type vendorErrorDetail struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// completionRequest is the body for POST /completions.
type completionRequest struct {
	Model            string             `json:"model"`
	Prompt           string             `json:"prompt"`
	MaxTokens        *int               `json:"max_tokens,omitempty"`
	Temperature      *float64           `json:"temperature,omitempty"`
	TopP             *float64           `json:"top_p,omitempty"`
	FrequencyPenalty *float64           `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64           `json:"presence_penalty,omitempty"`
	Stop             []string           `json:"stop,omitempty"`
	Seed             *int               `json:"seed,omitempty"`
	Stream           bool               `json:"stream,omitempty"`
	StreamOptions    *chatStreamOptions `json:"stream_options,omitempty"`
}

// completionResponse is the non-streaming completion response body.
type completionResponse struct {
	ID      string             `json:"id"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
	Usage   *wireUsage         `json:"usage"`
}

type completionChoice struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

// completionChunk is one SSE chunk of a streaming completion response.
type completionChunk struct {
	ID      string                  `json:"id"`
	Created int64                   `json:"created"`
	Model   string                  `json:"model"`
	Choices []completionChunkChoice `json:"choices"`
	Usage   *wireUsage              `json:"usage"`
	Error   *vendorErrorDetail      `json:"error"`
}

type completionChunkChoice struct {
	Index        int     `json:"index"`
	Text         string  `json:"text"`
	FinishReason *string `json:"finish_reason"`
}

// embeddingRequest is the body for POST /embeddings.
type embeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

// embeddingResponse is the embedding response body. Vectors arrive in
// input order.
type embeddingResponse struct {
	ID    string          `json:"id"`
	Model string          `json:"model"`
	Data  []embeddingData `json:"data"`
	Usage *wireUsage      `json:"usage"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// textRerankRequest is the legacy nested rerank body for
// POST /api/v1/services/rerank/text-rerank/text-rerank.
type textRerankRequest struct {
	Model      string               `json:"model"`
	Input      textRerankInput      `json:"input"`
	Parameters textRerankParameters `json:"parameters"`
}

type textRerankInput struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type textRerankParameters struct {
	ReturnDocuments bool `json:"return_documents"`
	TopN            *int `json:"top_n,omitempty"`
}

// textRerankResponse is the legacy rerank response body.
type textRerankResponse struct {
	RequestID string           `json:"request_id"`
	Output    textRerankOutput `json:"output"`
	Usage     *rerankUsage     `json:"usage"`
}

type textRerankOutput struct {
	Results []rerankResult `json:"results"`
}

// flatRerankRequest is the OpenAI-compatible rerank body for
// POST /compatible-api/v1/reranks.
type flatRerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      *int     `json:"top_n,omitempty"`
	Instruct  string   `json:"instruct,omitempty"`
}

// flatRerankResponse is the OpenAI-compatible rerank response body.
type flatRerankResponse struct {
	ID      string         `json:"id"`
	Results []rerankResult `json:"results"`
	Usage   *rerankUsage   `json:"usage"`
}

// rerankResult scores one document. Both wire formats share this shape.
type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankUsage struct {
	TotalTokens *int `json:"total_tokens"`
}
