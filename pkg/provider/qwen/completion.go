package qwen

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/debug"
	"github.com/modelrelay/qwen-go/pkg/provider"
)

const completionsPath = "/completions"

// CompletionSettings are per-model settings for completion adapters.
type CompletionSettings struct {
	// UserLabel and AssistantLabel override the role labels used when
	// flattening a conversation. Defaults: "user" and "assistant".
	UserLabel      string
	AssistantLabel string
}

// CompletionModel adapts the single-prompt completions endpoint to the
// LanguageModel capability. The endpoint has no tool concept, so tool
// definitions and tool choices are rejected outright.
type CompletionModel struct {
	provider *Provider
	modelID  string
	settings CompletionSettings
}

var _ provider.LanguageModel = (*CompletionModel)(nil)

// ModelID returns the backend model identifier.
func (m *CompletionModel) ModelID() string {
	return m.modelID
}

// prepareRequest builds the completion request body, flattening the
// prompt and combining flattener stop sequences with caller-supplied
// ones.
func (m *CompletionModel) prepareRequest(req *provider.GenerateRequest, stream bool) (completionRequest, []api.CallWarning, error) {
	if len(req.Tools) > 0 {
		return completionRequest{}, nil, api.NewUnsupportedFunctionalityError("tools", "")
	}
	if req.ToolChoice != nil {
		return completionRequest{}, nil, api.NewUnsupportedFunctionalityError("toolChoice", "")
	}

	var warnings []api.CallWarning
	if req.TopK != nil {
		warnings = append(warnings, api.CallWarning{
			Type:    api.WarningUnsupportedSetting,
			Setting: "topK",
		})
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json" {
		warnings = append(warnings, api.CallWarning{
			Type:    api.WarningUnsupportedSetting,
			Setting: "responseFormat",
			Details: "the completions endpoint does not support response formats",
		})
	}

	flattened, err := flattenCompletionPrompt(req.Prompt, req.InputFormat, m.settings.UserLabel, m.settings.AssistantLabel)
	if err != nil {
		return completionRequest{}, nil, err
	}

	stop := append([]string{}, flattened.stopSequences...)
	stop = append(stop, req.StopSequences...)

	body := completionRequest{
		Model:            m.modelID,
		Prompt:           flattened.prompt,
		MaxTokens:        req.MaxOutputTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Seed:             req.Seed,
		Stop:             stop,
		Stream:           stream,
	}
	if stream {
		body.StreamOptions = &chatStreamOptions{IncludeUsage: true}
	}
	return body, warnings, nil
}

// Generate performs one non-streaming completion call.
func (m *CompletionModel) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	body, warnings, err := m.prepareRequest(req, false)
	if err != nil {
		return nil, err
	}

	url := m.provider.cfg.BaseURL + completionsPath
	debug.Log("completion", "request", "url", url, "model", m.modelID)

	httpResp, err := m.provider.postJSON(ctx, url, body, req.Headers, false)
	if err != nil {
		return nil, err
	}

	var compResp completionResponse
	raw, err := decodeJSON(url, httpResp, &compResp)
	if err != nil {
		return nil, err
	}

	if len(compResp.Choices) == 0 {
		return nil, api.NewInvalidResponseError("response contained no choices")
	}
	choice := compResp.Choices[0]

	var content []api.ContentPart
	if choice.Text != "" {
		content = append(content, api.TextPart{Text: choice.Text})
	}

	resp := &provider.GenerateResponse{
		Content:      content,
		FinishReason: mapFinishReason(choice.FinishReason),
		Usage:        normalizeUsage(compResp.Usage),
		Warnings:     warnings,
		Response:     extractResponseMetadata(compResp.ID, compResp.Model, compResp.Created),
	}
	if extract := m.provider.cfg.MetadataExtractor; extract != nil {
		resp.ProviderMetadata = extract(raw)
	}
	return resp, nil
}

// Stream performs one streaming completion call. The transcoder is a
// reduced variant of the chat one: a single text sub-stream, no
// reasoning, no tool calls.
func (m *CompletionModel) Stream(ctx context.Context, req *provider.GenerateRequest) (<-chan api.StreamEvent, error) {
	body, warnings, err := m.prepareRequest(req, true)
	if err != nil {
		return nil, err
	}

	url := m.provider.cfg.BaseURL + completionsPath
	debug.Log("completion", "stream request", "url", url, "model", m.modelID)

	httpResp, err := m.provider.postJSON(ctx, url, body, req.Headers, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan api.StreamEvent, 16)
	go func() {
		defer close(ch)
		defer httpResp.Body.Close()

		t := newCompletionStreamTranscoder(ch, warnings)
		err := parseSSEStream(ctx, httpResp.Body, t.processChunk)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			t.sendError(api.NewAPICallError(url, 0, "stream read error: "+err.Error(), ""))
		}
		t.flush()
	}()

	return ch, nil
}

// completionStreamTranscoder tracks the single text sub-stream of a
// streaming completion call.
type completionStreamTranscoder struct {
	events   chan<- api.StreamEvent
	warnings []api.CallWarning

	started      bool
	metadataSent bool
	textID       string
	finishReason api.FinishReason
	usage        api.Usage
}

func newCompletionStreamTranscoder(events chan<- api.StreamEvent, warnings []api.CallWarning) *completionStreamTranscoder {
	return &completionStreamTranscoder{
		events:       events,
		warnings:     warnings,
		finishReason: api.FinishReason{Unified: api.FinishUnknown},
	}
}

func (t *completionStreamTranscoder) ensureStarted() {
	if t.started {
		return
	}
	t.started = true
	t.events <- api.StreamEvent{Type: api.EventStreamStart, Warnings: t.warnings}
}

func (t *completionStreamTranscoder) sendError(err error) {
	t.events <- api.StreamEvent{Type: api.EventError, Err: err}
}

func (t *completionStreamTranscoder) processChunk(data []byte) error {
	var chunk completionChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		debug.Log("streaming", "malformed chunk", "error", err.Error(), "data", debug.Truncate(string(data), 200))
		t.sendError(api.NewInvalidResponseError("malformed stream chunk: " + err.Error()))
		return nil
	}

	t.ensureStarted()

	if chunk.Error != nil {
		t.sendError(errors.New(chunk.Error.Message))
		return nil
	}

	if !t.metadataSent && (chunk.ID != "" || chunk.Model != "" || chunk.Created > 0) {
		t.metadataSent = true
		t.events <- api.StreamEvent{
			Type:     api.EventResponseMetadata,
			Response: extractResponseMetadata(chunk.ID, chunk.Model, chunk.Created),
		}
	}

	if chunk.Usage != nil {
		t.usage = normalizeUsage(chunk.Usage)
	}

	if len(chunk.Choices) == 0 {
		return nil
	}
	choice := chunk.Choices[0]

	if choice.FinishReason != nil && *choice.FinishReason != "" {
		t.finishReason = mapFinishReason(*choice.FinishReason)
	}

	if choice.Text != "" {
		if t.textID == "" {
			t.textID = api.NewStreamPartID()
			t.events <- api.StreamEvent{Type: api.EventTextStart, ID: t.textID}
		}
		t.events <- api.StreamEvent{Type: api.EventTextDelta, ID: t.textID, Delta: choice.Text}
	}

	return nil
}

func (t *completionStreamTranscoder) flush() {
	t.ensureStarted()

	if t.textID != "" {
		t.events <- api.StreamEvent{Type: api.EventTextEnd, ID: t.textID}
	}

	t.events <- api.StreamEvent{
		Type:         api.EventFinish,
		FinishReason: t.finishReason,
		Usage:        t.usage,
	}
}
