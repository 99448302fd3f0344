package qwen

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/debug"
	"github.com/modelrelay/qwen-go/pkg/provider"
)

const chatCompletionsPath = "/chat/completions"

// ChatSettings are per-model settings for chat adapters.
type ChatSettings struct {
	// SupportsStructuredOutputs enables schema-bearing JSON response
	// formats. Without it, schemas are dropped with a warning and the
	// call degrades to a plain JSON-object hint.
	SupportsStructuredOutputs bool

	// SimulatedStreaming makes Stream perform one ordinary call and
	// synthesize the lifecycle events from the complete result, for
	// models that only support whole-response calls.
	SimulatedStreaming bool
}

// ChatModel adapts the chat completions endpoint to the LanguageModel
// capability. Instances hold only immutable configuration and are safe
// for concurrent use.
type ChatModel struct {
	provider *Provider
	modelID  string
	settings ChatSettings
}

var _ provider.LanguageModel = (*ChatModel)(nil)

// ModelID returns the backend model identifier.
func (m *ChatModel) ModelID() string {
	return m.modelID
}

// Generate performs one non-streaming chat call.
func (m *ChatModel) Generate(ctx context.Context, req *provider.GenerateRequest) (*provider.GenerateResponse, error) {
	body, warnings, err := prepareChatRequest(m.modelID, m.settings, req, false)
	if err != nil {
		return nil, err
	}

	url := m.provider.cfg.BaseURL + chatCompletionsPath
	debug.Log("chat", "request", "url", url, "model", m.modelID)

	httpResp, err := m.provider.postJSON(ctx, url, body, req.Headers, false)
	if err != nil {
		return nil, err
	}

	var chatResp chatCompletionResponse
	raw, err := decodeJSON(url, httpResp, &chatResp)
	if err != nil {
		return nil, err
	}

	if len(chatResp.Choices) == 0 {
		return nil, api.NewInvalidResponseError("response contained no choices")
	}
	choice := chatResp.Choices[0]

	// Canonical content order: reasoning, then text, then tool calls in
	// backend-reported order.
	var content []api.ContentPart
	if rc := choice.Message.ReasoningContent; rc != nil && *rc != "" {
		content = append(content, api.ReasoningPart{Text: *rc})
	}
	if c := choice.Message.Content; c != nil && *c != "" {
		content = append(content, api.TextPart{Text: *c})
	}
	for _, tc := range choice.Message.ToolCalls {
		content = append(content, api.ToolCallPart{
			ToolCallID: tc.ID,
			ToolName:   tc.Function.Name,
			Input:      json.RawMessage(tc.Function.Arguments),
		})
	}

	resp := &provider.GenerateResponse{
		Content:      content,
		FinishReason: mapFinishReason(choice.FinishReason),
		Usage:        normalizeUsage(chatResp.Usage),
		Warnings:     warnings,
		Response:     extractResponseMetadata(chatResp.ID, chatResp.Model, chatResp.Created),
	}
	if extract := m.provider.cfg.MetadataExtractor; extract != nil {
		resp.ProviderMetadata = extract(raw)
	}
	return resp, nil
}

// Stream performs one streaming chat call, or delegates to simulated
// streaming when the model is configured for it. The returned channel is
// closed after a finish event unless the context is cancelled first.
func (m *ChatModel) Stream(ctx context.Context, req *provider.GenerateRequest) (<-chan api.StreamEvent, error) {
	if m.settings.SimulatedStreaming {
		return m.simulateStream(ctx, req)
	}

	body, warnings, err := prepareChatRequest(m.modelID, m.settings, req, true)
	if err != nil {
		return nil, err
	}

	url := m.provider.cfg.BaseURL + chatCompletionsPath
	debug.Log("chat", "stream request", "url", url, "model", m.modelID)

	httpResp, err := m.provider.postJSON(ctx, url, body, req.Headers, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan api.StreamEvent, 16)
	go func() {
		defer close(ch)
		defer httpResp.Body.Close()

		t := newChatStreamTranscoder(ch, warnings)
		err := parseSSEStream(ctx, httpResp.Body, t.processChunk)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, errAbortStream) {
			t.sendError(api.NewAPICallError(url, 0, "stream read error: "+err.Error(), ""))
		}
		t.flush()
	}()

	return ch, nil
}

// simulateStream performs a non-streaming call and replays the complete
// result as the standard lifecycle event sequence, giving callers a
// uniform streaming contract regardless of backend capability.
func (m *ChatModel) simulateStream(ctx context.Context, req *provider.GenerateRequest) (<-chan api.StreamEvent, error) {
	resp, err := m.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan api.StreamEvent, 16)
	go func() {
		defer close(ch)

		ch <- api.StreamEvent{Type: api.EventStreamStart, Warnings: resp.Warnings}
		if resp.Response != nil {
			ch <- api.StreamEvent{Type: api.EventResponseMetadata, Response: resp.Response}
		}

		for _, part := range resp.Content {
			switch p := part.(type) {
			case api.ReasoningPart:
				id := api.NewStreamPartID()
				ch <- api.StreamEvent{Type: api.EventReasoningStart, ID: id}
				ch <- api.StreamEvent{Type: api.EventReasoningDelta, ID: id, Delta: p.Text}
				ch <- api.StreamEvent{Type: api.EventReasoningEnd, ID: id}

			case api.TextPart:
				id := api.NewStreamPartID()
				ch <- api.StreamEvent{Type: api.EventTextStart, ID: id}
				ch <- api.StreamEvent{Type: api.EventTextDelta, ID: id, Delta: p.Text}
				ch <- api.StreamEvent{Type: api.EventTextEnd, ID: id}

			case api.ToolCallPart:
				args, err := json.Marshal(p.Input)
				if err != nil {
					ch <- api.StreamEvent{Type: api.EventError, Err: err}
					continue
				}
				ch <- api.StreamEvent{Type: api.EventToolInputStart, ID: p.ToolCallID, ToolName: p.ToolName}
				ch <- api.StreamEvent{Type: api.EventToolInputDelta, ID: p.ToolCallID, Delta: string(args)}
				ch <- api.StreamEvent{Type: api.EventToolInputEnd, ID: p.ToolCallID}
				ch <- api.StreamEvent{Type: api.EventToolCall, ID: p.ToolCallID, ToolName: p.ToolName, ToolInput: string(args)}
			}
		}

		ch <- api.StreamEvent{
			Type:         api.EventFinish,
			FinishReason: resp.FinishReason,
			Usage:        resp.Usage,
		}
	}()

	return ch, nil
}
