package qwen

import (
	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/provider"
)

// prepareChatRequest builds the chat completions request body from the
// canonical call options. Unsupported features degrade to warnings rather
// than aborting the call; only prompt shape violations are fatal.
func prepareChatRequest(modelID string, settings ChatSettings, req *provider.GenerateRequest, stream bool) (chatCompletionRequest, []api.CallWarning, error) {
	var warnings []api.CallWarning

	messages, err := convertToChatMessages(req.Prompt)
	if err != nil {
		return chatCompletionRequest{}, nil, err
	}

	body := chatCompletionRequest{
		Model:            modelID,
		Messages:         messages,
		MaxTokens:        req.MaxOutputTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Stop:             req.StopSequences,
		Seed:             req.Seed,
		Stream:           stream,
	}

	if stream {
		// Ask the backend to report usage on the final chunk.
		body.StreamOptions = &chatStreamOptions{IncludeUsage: true}
	}

	if req.TopK != nil {
		warnings = append(warnings, api.CallWarning{
			Type:    api.WarningUnsupportedSetting,
			Setting: "topK",
		})
	}

	if rf := req.ResponseFormat; rf != nil && rf.Type == "json" {
		if settings.SupportsStructuredOutputs && rf.Schema != nil {
			name := rf.Name
			if name == "" {
				name = "response"
			}
			body.ResponseFormat = map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"schema":      rf.Schema,
					"name":        name,
					"description": rf.Description,
				},
			}
		} else {
			if rf.Schema != nil {
				warnings = append(warnings, api.CallWarning{
					Type:    api.WarningUnsupportedSetting,
					Setting: "responseFormat",
					Details: "JSON response format schema is only supported with structuredOutputs",
				})
			}
			body.ResponseFormat = map[string]any{"type": "json_object"}
		}
	}

	tools, toolChoice, toolWarnings := prepareTools(req.Tools, req.ToolChoice)
	body.Tools = tools
	body.ToolChoice = toolChoice
	warnings = append(warnings, toolWarnings...)

	return body, warnings, nil
}

// prepareTools translates tool definitions and the tool choice. Tool
// kinds the backend cannot express are dropped with a per-tool warning.
func prepareTools(tools []api.Tool, choice *api.ToolChoice) ([]chatTool, any, []api.CallWarning) {
	var warnings []api.CallWarning
	var wireTools []chatTool

	for _, tool := range tools {
		if tool.Type != api.ToolTypeFunction {
			warnings = append(warnings, api.CallWarning{
				Type: api.WarningUnsupportedTool,
				Tool: tool.Name,
			})
			continue
		}
		wireTools = append(wireTools, chatTool{
			Type: "function",
			Function: chatFunctionDef{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	var toolChoice any
	if choice != nil {
		switch choice.Mode {
		case api.ToolChoiceAuto, api.ToolChoiceNone, api.ToolChoiceRequired:
			toolChoice = string(choice.Mode)
		case api.ToolChoiceTool:
			toolChoice = map[string]any{
				"type":     "function",
				"function": map[string]any{"name": choice.ToolName},
			}
		}
	}

	return wireTools, toolChoice, warnings
}
