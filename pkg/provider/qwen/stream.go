package qwen

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/debug"
)

// errAbortStream signals that chunk processing already reported a fatal
// error event and reading must stop. The flush still runs so consumers
// always observe a finish event.
var errAbortStream = errors.New("qwen: stream aborted")

// parseSSEStream reads server-sent-event lines from body and hands each
// data payload to handle. A literal "data: [DONE]" line ends the stream.
// Lines without a data prefix (comments, blank keep-alives) are skipped.
func parseSSEStream(ctx context.Context, body io.Reader, handle func(data []byte) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")

		if payload == "[DONE]" {
			return nil
		}

		if err := handle([]byte(payload)); err != nil {
			return err
		}
	}

	return scanner.Err()
}

// toolCallAccumulator assembles one tool call's argument fragments across
// chunks. An accumulator lives for the duration of one streaming call.
type toolCallAccumulator struct {
	id       string
	name     string
	args     strings.Builder
	finished bool
}

// chatStreamTranscoder turns backend SSE chunks into ordered lifecycle
// events on a channel. One instance per streaming call, never reused and
// never shared: all mutable state is confined here.
type chatStreamTranscoder struct {
	events   chan<- api.StreamEvent
	warnings []api.CallWarning

	started      bool
	metadataSent bool
	textID       string
	reasoningID  string
	toolCalls    map[int]*toolCallAccumulator
	finishReason api.FinishReason
	usage        api.Usage
}

func newChatStreamTranscoder(events chan<- api.StreamEvent, warnings []api.CallWarning) *chatStreamTranscoder {
	return &chatStreamTranscoder{
		events:       events,
		warnings:     warnings,
		toolCalls:    make(map[int]*toolCallAccumulator),
		finishReason: api.FinishReason{Unified: api.FinishUnknown},
	}
}

func (t *chatStreamTranscoder) send(ev api.StreamEvent) {
	t.events <- ev
}

// ensureStarted emits the stream-start event exactly once, carrying the
// warnings accumulated while the request was built.
func (t *chatStreamTranscoder) ensureStarted() {
	if t.started {
		return
	}
	t.started = true
	t.send(api.StreamEvent{Type: api.EventStreamStart, Warnings: t.warnings})
}

// sendError reports a stream-level failure as an inline event.
func (t *chatStreamTranscoder) sendError(err error) {
	t.send(api.StreamEvent{Type: api.EventError, Err: err})
}

// processChunk transcodes one SSE data payload. Malformed payloads and
// backend-reported error objects produce error events and processing
// continues with the next chunk; only a tool call without identity aborts
// the stream.
func (t *chatStreamTranscoder) processChunk(data []byte) error {
	var chunk chatCompletionChunk
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
		t.send(api.StreamEvent{
			Type:     api.EventResponseMetadata,
			Response: extractResponseMetadata(chunk.ID, chunk.Model, chunk.Created),
		})
	}

	// Later usage and finish values override earlier ones; no ordering
	// guarantee is assumed beyond that.
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

	delta := choice.Delta

	if delta.ReasoningContent != nil && *delta.ReasoningContent != "" {
		if t.reasoningID == "" {
			t.reasoningID = api.NewStreamPartID()
			t.send(api.StreamEvent{Type: api.EventReasoningStart, ID: t.reasoningID})
		}
		t.send(api.StreamEvent{Type: api.EventReasoningDelta, ID: t.reasoningID, Delta: *delta.ReasoningContent})
	}

	if delta.Content != nil && *delta.Content != "" {
		if t.textID == "" {
			t.textID = api.NewStreamPartID()
			t.send(api.StreamEvent{Type: api.EventTextStart, ID: t.textID})
		}
		t.send(api.StreamEvent{Type: api.EventTextDelta, ID: t.textID, Delta: *delta.Content})
	}

	for _, tc := range delta.ToolCalls {
		if err := t.processToolCallDelta(tc); err != nil {
			return err
		}
	}

	return nil
}

// processToolCallDelta tracks one tool call index. The first sighting
// must carry a function-type call with id and name; later sightings
// append argument fragments until the accumulated text parses as JSON.
// Fragments arriving after completion are ignored.
func (t *chatStreamTranscoder) processToolCallDelta(tc chatChunkToolCall) error {
	acc, ok := t.toolCalls[tc.Index]
	if !ok {
		if tc.Type != "function" || tc.ID == "" || tc.Function.Name == "" {
			err := api.NewInvalidResponseError(fmt.Sprintf(
				"expected 'function' type tool call with id and function name at index %d", tc.Index))
			t.sendError(err)
			return errAbortStream
		}

		acc = &toolCallAccumulator{id: tc.ID, name: tc.Function.Name}
		t.toolCalls[tc.Index] = acc

		t.send(api.StreamEvent{Type: api.EventToolInputStart, ID: acc.id, ToolName: acc.name})

		if tc.Function.Arguments != "" {
			acc.args.WriteString(tc.Function.Arguments)
			t.send(api.StreamEvent{Type: api.EventToolInputDelta, ID: acc.id, Delta: tc.Function.Arguments})
		}

		t.maybeFinishToolCall(acc)
		return nil
	}

	if acc.finished {
		return nil
	}

	acc.args.WriteString(tc.Function.Arguments)
	t.send(api.StreamEvent{Type: api.EventToolInputDelta, ID: acc.id, Delta: tc.Function.Arguments})
	t.maybeFinishToolCall(acc)
	return nil
}

// maybeFinishToolCall closes out a tool call the moment its accumulated
// arguments form complete, valid JSON.
func (t *chatStreamTranscoder) maybeFinishToolCall(acc *toolCallAccumulator) {
	args := acc.args.String()
	if acc.finished || args == "" || !gjson.Valid(args) {
		return
	}
	acc.finished = true
	t.send(api.StreamEvent{Type: api.EventToolInputEnd, ID: acc.id})
	t.send(api.StreamEvent{Type: api.EventToolCall, ID: acc.id, ToolName: acc.name, ToolInput: args})
}

// flush closes every started sub-stream and emits the terminal finish
// event with the last-known finish reason and usage.
func (t *chatStreamTranscoder) flush() {
	t.ensureStarted()

	if t.reasoningID != "" {
		t.send(api.StreamEvent{Type: api.EventReasoningEnd, ID: t.reasoningID})
	}
	if t.textID != "" {
		t.send(api.StreamEvent{Type: api.EventTextEnd, ID: t.textID})
	}

	// The stream closing marks still-open tool calls as finished even if
	// their arguments never parsed.
	for _, acc := range t.toolCalls {
		if !acc.finished {
			acc.finished = true
			t.send(api.StreamEvent{Type: api.EventToolInputEnd, ID: acc.id})
		}
	}

	t.send(api.StreamEvent{
		Type:         api.EventFinish,
		FinishReason: t.finishReason,
		Usage:        t.usage,
	})
}
