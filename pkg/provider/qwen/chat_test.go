package qwen

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/provider"
)

func newTestProvider(t *testing.T, handler http.Handler) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(Config{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)
	return p, srv
}

func TestChatGenerate(t *testing.T) {
	var gotBody []byte
	var gotHeader http.Header

	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotHeader = r.Header.Clone()

		var err error
		gotBody, err = readAllBody(r)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-abc",
			"created": 1719500000,
			"model": "qwen-plus",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "Hello, World!"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 4, "completion_tokens": 30, "total_tokens": 34}
		}`)
	}))

	model := p.ChatModel("qwen-plus")
	assert.Equal(t, "qwen-plus", model.ModelID())

	resp, err := model.Generate(context.Background(), &provider.GenerateRequest{
		Prompt:  userPrompt("Hello"),
		Headers: map[string]string{"X-Request-Id": "req-1"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Content, 1)
	text, ok := resp.Content[0].(api.TextPart)
	require.True(t, ok)
	assert.Equal(t, "Hello, World!", text.Text)

	assert.Equal(t, api.FinishStop, resp.FinishReason.Unified)
	assert.Equal(t, 4, *resp.Usage.InputTokens.Total)
	assert.Equal(t, 30, *resp.Usage.OutputTokens.Total)

	require.NotNil(t, resp.Response)
	assert.Equal(t, "chatcmpl-abc", resp.Response.ID)
	assert.Equal(t, "qwen-plus", resp.Response.ModelID)

	assert.Equal(t, "Bearer test-key", gotHeader.Get("Authorization"))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "qwen-go/"+Version, gotHeader.Get("User-Agent"))
	assert.Equal(t, "req-1", gotHeader.Get("X-Request-Id"))

	body := string(gotBody)
	assert.Equal(t, "qwen-plus", gjson.Get(body, "model").String())
	assert.Equal(t, "Hello", gjson.Get(body, "messages.0.content").String())
	assert.False(t, gjson.Get(body, "stream").Bool())
}

func readAllBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

func TestChatGenerateToolCallsAndReasoning(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"id": "chatcmpl-t",
			"model": "qwen-plus",
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": "Checking.",
					"reasoning_content": "The user wants weather.",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "get_weather", "arguments": "{\"city\":\"Berlin\"}"}
					}]
				},
				"finish_reason": "tool_calls"
			}]
		}`)
	}))

	resp, err := p.ChatModel("qwen-plus").Generate(context.Background(), &provider.GenerateRequest{
		Prompt: userPrompt("weather in berlin?"),
	})
	require.NoError(t, err)

	// Reasoning first, then text, then tool calls.
	require.Len(t, resp.Content, 3)
	reasoning := resp.Content[0].(api.ReasoningPart)
	assert.Equal(t, "The user wants weather.", reasoning.Text)

	text := resp.Content[1].(api.TextPart)
	assert.Equal(t, "Checking.", text.Text)

	call := resp.Content[2].(api.ToolCallPart)
	assert.Equal(t, "call_1", call.ToolCallID)
	assert.Equal(t, "get_weather", call.ToolName)
	assert.JSONEq(t, `{"city":"Berlin"}`, string(call.Input.(json.RawMessage)))

	assert.Equal(t, api.FinishToolCalls, resp.FinishReason.Unified)
}

func TestChatGenerateNoChoices(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"x","model":"m","choices":[]}`)
	}))

	_, err := p.ChatModel("m").Generate(context.Background(), &provider.GenerateRequest{
		Prompt: userPrompt("hi"),
	})

	var invalid *api.InvalidResponseError
	require.ErrorAs(t, err, &invalid)
}

func TestChatGenerateMetadataExtractor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"id": "x", "model": "m",
			"choices": [{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}],
			"request_id": "dash-42"
		}`)
	}))
	t.Cleanup(srv.Close)

	p, err := New(Config{
		BaseURL: srv.URL,
		APIKey:  "k",
		MetadataExtractor: func(raw []byte) map[string]any {
			return map[string]any{"request_id": gjson.GetBytes(raw, "request_id").String()}
		},
	})
	require.NoError(t, err)

	resp, err := p.ChatModel("m").Generate(context.Background(), &provider.GenerateRequest{
		Prompt: userPrompt("hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"request_id": "dash-42"}, resp.ProviderMetadata)
}

func TestChatStream(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readAllBody(r)
		require.NoError(t, err)
		assert.True(t, gjson.GetBytes(body, "stream").Bool())
		assert.True(t, gjson.GetBytes(body, "stream_options.include_usage").Bool())
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"chatcmpl-s\",\"model\":\"qwen-plus\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"Hello\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"chatcmpl-s\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\", World!\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"chatcmpl-s\",\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}],\"usage\":{\"prompt_tokens\":4,\"completion_tokens\":30,\"total_tokens\":34}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))

	ch, err := p.ChatModel("qwen-plus").Stream(context.Background(), &provider.GenerateRequest{
		Prompt: userPrompt("Hello"),
	})
	require.NoError(t, err)

	var events []api.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}

	assert.Equal(t, []api.StreamEventType{
		api.EventStreamStart,
		api.EventResponseMetadata,
		api.EventTextStart,
		api.EventTextDelta,
		api.EventTextDelta,
		api.EventTextEnd,
		api.EventFinish,
	}, eventTypes(events))

	finish := events[len(events)-1]
	assert.Equal(t, api.FinishStop, finish.FinishReason.Unified)
	assert.Equal(t, 34, *finish.Usage.InputTokens.Total+*finish.Usage.OutputTokens.Total)
}

func TestChatStreamHTTPErrorBeforeChannel(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","code":"invalid_api_key"}}`)
	}))

	_, err := p.ChatModel("m").Stream(context.Background(), &provider.GenerateRequest{
		Prompt: userPrompt("hi"),
	})

	var callErr *api.APICallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, http.StatusUnauthorized, callErr.StatusCode)
	assert.Equal(t, "invalid api key", callErr.Message)
}

func TestChatStreamContextCancellation(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"c\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"partial\"}}]}\n\n")
		w.(http.Flusher).Flush()
		// Hold the stream open until the client gives up.
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := p.ChatModel("m").Stream(ctx, &provider.GenerateRequest{Prompt: userPrompt("hi")})
	require.NoError(t, err)

	// Consume until the first delta, then cancel mid-stream.
	for ev := range ch {
		if ev.Type == api.EventTextDelta {
			cancel()
		}
	}
	cancel()
	// Channel closed without a finish event; no hang.
}

func TestChatSimulatedStreaming(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := readAllBody(r)
		require.NoError(t, err)
		assert.False(t, gjson.GetBytes(body, "stream").Bool(), "simulated streaming issues a plain call")

		fmt.Fprint(w, `{
			"id": "chatcmpl-sim", "model": "qwen-plus",
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": "done",
					"tool_calls": [{"id":"call_1","type":"function","function":{"name":"f","arguments":"{}"}}]
				},
				"finish_reason": "tool_calls"
			}]
		}`)
	}))

	model := p.ChatModelWithSettings("qwen-plus", ChatSettings{SimulatedStreaming: true})
	ch, err := model.Stream(context.Background(), &provider.GenerateRequest{Prompt: userPrompt("go")})
	require.NoError(t, err)

	var events []api.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}

	assert.Equal(t, []api.StreamEventType{
		api.EventStreamStart,
		api.EventResponseMetadata,
		api.EventTextStart,
		api.EventTextDelta,
		api.EventTextEnd,
		api.EventToolInputStart,
		api.EventToolInputDelta,
		api.EventToolInputEnd,
		api.EventToolCall,
		api.EventFinish,
	}, eventTypes(events))

	assert.Equal(t, api.FinishToolCalls, events[len(events)-1].FinishReason.Unified)
}
