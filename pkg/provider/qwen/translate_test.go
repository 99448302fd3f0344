package qwen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/provider"
)

func userPrompt(text string) api.Prompt {
	return api.Prompt{{Role: api.RoleUser, Content: []api.ContentPart{api.TextPart{Text: text}}}}
}

func TestPrepareChatRequestSamplingParams(t *testing.T) {
	maxTokens := 256
	temp := 0.7
	topP := 0.9
	seed := 42

	body, warnings, err := prepareChatRequest("qwen-plus", ChatSettings{}, &provider.GenerateRequest{
		Prompt:          userPrompt("hi"),
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
		TopP:            &topP,
		Seed:            &seed,
		StopSequences:   []string{"END"},
	}, false)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "qwen-plus", body.Model)
	assert.Equal(t, &maxTokens, body.MaxTokens)
	assert.Equal(t, &temp, body.Temperature)
	assert.Equal(t, &topP, body.TopP)
	assert.Equal(t, &seed, body.Seed)
	assert.Equal(t, []string{"END"}, body.Stop)
	assert.False(t, body.Stream)
	assert.Nil(t, body.StreamOptions)
}

func TestPrepareChatRequestStreamAsksForUsage(t *testing.T) {
	body, _, err := prepareChatRequest("qwen-plus", ChatSettings{}, &provider.GenerateRequest{
		Prompt: userPrompt("hi"),
	}, true)
	require.NoError(t, err)

	assert.True(t, body.Stream)
	require.NotNil(t, body.StreamOptions)
	assert.True(t, body.StreamOptions.IncludeUsage)
}

func TestPrepareChatRequestTopKWarning(t *testing.T) {
	topK := 40
	_, warnings, err := prepareChatRequest("qwen-plus", ChatSettings{}, &provider.GenerateRequest{
		Prompt: userPrompt("hi"),
		TopK:   &topK,
	}, false)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, api.WarningUnsupportedSetting, warnings[0].Type)
	assert.Equal(t, "topK", warnings[0].Setting)
}

func TestPrepareChatRequestResponseFormat(t *testing.T) {
	schema := json.RawMessage(`{"type":"object"}`)

	t.Run("json without schema", func(t *testing.T) {
		body, warnings, err := prepareChatRequest("m", ChatSettings{}, &provider.GenerateRequest{
			Prompt:         userPrompt("hi"),
			ResponseFormat: &api.ResponseFormat{Type: "json"},
		}, false)
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, map[string]any{"type": "json_object"}, body.ResponseFormat)
	})

	t.Run("schema without structured outputs degrades", func(t *testing.T) {
		body, warnings, err := prepareChatRequest("m", ChatSettings{}, &provider.GenerateRequest{
			Prompt:         userPrompt("hi"),
			ResponseFormat: &api.ResponseFormat{Type: "json", Schema: schema},
		}, false)
		require.NoError(t, err)

		require.Len(t, warnings, 1)
		assert.Equal(t, "responseFormat", warnings[0].Setting)
		assert.Equal(t, map[string]any{"type": "json_object"}, body.ResponseFormat)
	})

	t.Run("schema with structured outputs", func(t *testing.T) {
		body, warnings, err := prepareChatRequest("m", ChatSettings{SupportsStructuredOutputs: true}, &provider.GenerateRequest{
			Prompt: userPrompt("hi"),
			ResponseFormat: &api.ResponseFormat{
				Type:        "json",
				Schema:      schema,
				Name:        "weather",
				Description: "a forecast",
			},
		}, false)
		require.NoError(t, err)
		assert.Empty(t, warnings)

		rf := body.ResponseFormat.(map[string]any)
		assert.Equal(t, "json_schema", rf["type"])
		js := rf["json_schema"].(map[string]any)
		assert.Equal(t, "weather", js["name"])
		assert.Equal(t, "a forecast", js["description"])
	})

	t.Run("schema name defaults", func(t *testing.T) {
		body, _, err := prepareChatRequest("m", ChatSettings{SupportsStructuredOutputs: true}, &provider.GenerateRequest{
			Prompt:         userPrompt("hi"),
			ResponseFormat: &api.ResponseFormat{Type: "json", Schema: schema},
		}, false)
		require.NoError(t, err)

		js := body.ResponseFormat.(map[string]any)["json_schema"].(map[string]any)
		assert.Equal(t, "response", js["name"])
	})

	t.Run("text format is a no-op", func(t *testing.T) {
		body, warnings, err := prepareChatRequest("m", ChatSettings{}, &provider.GenerateRequest{
			Prompt:         userPrompt("hi"),
			ResponseFormat: &api.ResponseFormat{Type: "text"},
		}, false)
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Nil(t, body.ResponseFormat)
	})
}

func TestPrepareTools(t *testing.T) {
	tools := []api.Tool{
		{
			Type:        api.ToolTypeFunction,
			Name:        "get_weather",
			Description: "look up weather",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}}}`),
		},
		{Type: api.ToolTypeProviderDefined, Name: "web_search", ID: "qwen.web_search"},
	}

	wireTools, _, warnings := prepareTools(tools, nil)

	require.Len(t, wireTools, 1, "provider-defined tools are dropped")
	assert.Equal(t, "function", wireTools[0].Type)
	assert.Equal(t, "get_weather", wireTools[0].Function.Name)
	assert.Equal(t, "look up weather", wireTools[0].Function.Description)

	require.Len(t, warnings, 1)
	assert.Equal(t, api.WarningUnsupportedTool, warnings[0].Type)
	assert.Equal(t, "web_search", warnings[0].Tool)
}

func TestPrepareToolChoice(t *testing.T) {
	tests := []struct {
		name   string
		choice *api.ToolChoice
		want   any
	}{
		{name: "nil", choice: nil, want: nil},
		{name: "auto", choice: &api.ToolChoice{Mode: api.ToolChoiceAuto}, want: "auto"},
		{name: "none", choice: &api.ToolChoice{Mode: api.ToolChoiceNone}, want: "none"},
		{name: "required", choice: &api.ToolChoice{Mode: api.ToolChoiceRequired}, want: "required"},
		{
			name:   "specific tool",
			choice: &api.ToolChoice{Mode: api.ToolChoiceTool, ToolName: "get_weather"},
			want: map[string]any{
				"type":     "function",
				"function": map[string]any{"name": "get_weather"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got, _ := prepareTools(nil, tt.choice)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrepareChatRequestInvalidPromptIsFatal(t *testing.T) {
	_, _, err := prepareChatRequest("m", ChatSettings{}, &provider.GenerateRequest{
		Prompt: api.Prompt{{Role: api.RoleUser, Content: []api.ContentPart{
			api.FilePart{MediaType: "audio/mp3", Data: []byte{1}},
		}}},
	}, false)
	require.Error(t, err)
}
