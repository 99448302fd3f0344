package qwen

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/provider"
)

// convertToChatMessages flattens a canonical prompt into the backend's
// chat message array, order-preserving. Provider options for this
// provider are merged onto the produced objects; part-level values win
// over turn-level values for the same key.
func convertToChatMessages(prompt api.Prompt) ([]chatMessage, error) {
	messages := make([]chatMessage, 0, len(prompt))

	for _, msg := range prompt {
		msgOpts := msg.ProviderOptions.For(ProviderName)

		switch msg.Role {
		case api.RoleSystem:
			content, err := concatTextParts(msg.Content, "system")
			if err != nil {
				return nil, err
			}
			messages = append(messages, chatMessage{
				Role:    "system",
				Content: content,
				extra:   msgOpts,
			})

		case api.RoleUser:
			converted, err := convertUserMessage(msg, msgOpts)
			if err != nil {
				return nil, err
			}
			messages = append(messages, converted)

		case api.RoleAssistant:
			converted, err := convertAssistantMessage(msg, msgOpts)
			if err != nil {
				return nil, err
			}
			messages = append(messages, converted)

		case api.RoleTool:
			toolMessages, err := convertToolMessage(msg, msgOpts)
			if err != nil {
				return nil, err
			}
			messages = append(messages, toolMessages...)

		default:
			return nil, api.NewInvalidPromptError(fmt.Sprintf("unknown message role %q", msg.Role))
		}
	}

	return messages, nil
}

// convertUserMessage collapses a single plain text part to a string
// content; anything else becomes a typed sub-part array.
func convertUserMessage(msg api.Message, msgOpts map[string]any) (chatMessage, error) {
	if len(msg.Content) == 1 {
		if text, ok := msg.Content[0].(api.TextPart); ok && len(text.ProviderOptions) == 0 {
			return chatMessage{Role: "user", Content: text.Text, extra: msgOpts}, nil
		}
	}

	parts := make([]chatContentPart, 0, len(msg.Content))
	for _, part := range msg.Content {
		partOpts := part.Options().For(ProviderName)

		switch p := part.(type) {
		case api.TextPart:
			parts = append(parts, chatContentPart{Type: "text", Text: p.Text, extra: partOpts})

		case api.FilePart:
			url, err := imageURL(p)
			if err != nil {
				return chatMessage{}, err
			}
			parts = append(parts, chatContentPart{
				Type:     "image_url",
				ImageURL: &chatImageURL{URL: url},
				extra:    partOpts,
			})

		default:
			return chatMessage{}, api.NewUnsupportedFunctionalityError(
				fmt.Sprintf("%s content parts in user messages", part.Kind()), "")
		}
	}

	return chatMessage{Role: "user", Content: parts, extra: msgOpts}, nil
}

// imageURL renders a file part as the backend's image_url value: a remote
// URL when given, otherwise a base64 data URL. Non-image media types are
// rejected.
func imageURL(p api.FilePart) (string, error) {
	if p.MediaType != "" && !strings.HasPrefix(p.MediaType, "image/") {
		return "", api.NewUnsupportedFunctionalityError(
			fmt.Sprintf("file content parts with media type %q", p.MediaType),
			"only image/* file parts are supported")
	}
	if p.URL != "" {
		return p.URL, nil
	}

	mediaType := p.MediaType
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(p.Data), nil
}

// convertAssistantMessage concatenates text parts into a single content
// string and collects tool calls, preserving order within each.
func convertAssistantMessage(msg api.Message, msgOpts map[string]any) (chatMessage, error) {
	var text strings.Builder
	var toolCalls []chatToolCall

	for _, part := range msg.Content {
		switch p := part.(type) {
		case api.TextPart:
			text.WriteString(p.Text)

		case api.ToolCallPart:
			args, err := json.Marshal(p.Input)
			if err != nil {
				return chatMessage{}, fmt.Errorf("qwen: marshal tool call input for %q: %w", p.ToolName, err)
			}
			toolCalls = append(toolCalls, chatToolCall{
				ID:   p.ToolCallID,
				Type: "function",
				Function: chatFunctionCall{
					Name:      p.ToolName,
					Arguments: string(args),
				},
				extra: p.ProviderOptions.For(ProviderName),
			})

		default:
			return chatMessage{}, api.NewUnsupportedFunctionalityError(
				fmt.Sprintf("%s content parts in assistant messages", part.Kind()), "")
		}
	}

	return chatMessage{
		Role:      "assistant",
		Content:   text.String(),
		ToolCalls: toolCalls,
		extra:     msgOpts,
	}, nil
}

// convertToolMessage expands each tool result part into its own message.
// Turn-level and part-level options land on the same object, so they are
// merged explicitly with the part level winning.
func convertToolMessage(msg api.Message, msgOpts map[string]any) ([]chatMessage, error) {
	var messages []chatMessage

	for _, part := range msg.Content {
		result, ok := part.(api.ToolResultPart)
		if !ok {
			return nil, api.NewUnsupportedFunctionalityError(
				fmt.Sprintf("%s content parts in tool messages", part.Kind()), "")
		}

		content, err := toolResultContent(result.Output)
		if err != nil {
			return nil, err
		}

		messages = append(messages, chatMessage{
			Role:       "tool",
			Content:    content,
			ToolCallID: result.ToolCallID,
			extra:      provider.MergeProviderOptions(msgOpts, result.ProviderOptions.For(ProviderName)),
		})
	}

	return messages, nil
}

// toolResultContent serializes a tool result payload: text kinds pass
// through, JSON kinds are serialized.
func toolResultContent(output api.ToolResultOutput) (string, error) {
	switch output.Kind {
	case api.ToolResultText, api.ToolResultErrorText:
		return output.Text, nil
	case api.ToolResultJSON, api.ToolResultErrorJSON:
		data, err := json.Marshal(output.Value)
		if err != nil {
			return "", fmt.Errorf("qwen: marshal tool result: %w", err)
		}
		return string(data), nil
	default:
		return "", api.NewUnsupportedFunctionalityError(
			fmt.Sprintf("tool result output kind %q", output.Kind), "")
	}
}

// concatTextParts joins the text of all parts, rejecting any non-text
// part for the given role.
func concatTextParts(parts []api.ContentPart, role string) (string, error) {
	var b strings.Builder
	for _, part := range parts {
		text, ok := part.(api.TextPart)
		if !ok {
			return "", api.NewUnsupportedFunctionalityError(
				fmt.Sprintf("%s content parts in %s messages", part.Kind(), role), "")
		}
		b.WriteString(text.Text)
	}
	return b.String(), nil
}
