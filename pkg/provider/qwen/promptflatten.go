package qwen

import (
	"fmt"
	"strings"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/provider"
)

// flattenedPrompt is the completion endpoint's linearized conversation:
// a single text blob plus the stop sequence that keeps the model from
// impersonating the next user turn.
type flattenedPrompt struct {
	prompt        string
	stopSequences []string
}

// flattenCompletionPrompt renders a conversation for the single-prompt
// completion endpoint. With InputFormatPrompt and exactly one user text
// part, the text passes through verbatim with no stop sequences. The
// general path renders an optional leading system preamble followed by
// labeled user/assistant turns and a trailing assistant label for
// continuation.
func flattenCompletionPrompt(prompt api.Prompt, format provider.InputFormat, userLabel, assistantLabel string) (flattenedPrompt, error) {
	if userLabel == "" {
		userLabel = "user"
	}
	if assistantLabel == "" {
		assistantLabel = "assistant"
	}

	if format == provider.InputFormatPrompt && len(prompt) == 1 && prompt[0].Role == api.RoleUser && len(prompt[0].Content) == 1 {
		if text, ok := prompt[0].Content[0].(api.TextPart); ok {
			return flattenedPrompt{prompt: text.Text}, nil
		}
	}

	var b strings.Builder
	for i, msg := range prompt {
		switch msg.Role {
		case api.RoleSystem:
			if i != 0 {
				return flattenedPrompt{}, api.NewInvalidPromptError(
					"system messages are only supported at the beginning of the conversation")
			}
			text, err := concatTextParts(msg.Content, "system")
			if err != nil {
				return flattenedPrompt{}, err
			}
			b.WriteString(text)
			b.WriteString("\n\n")

		case api.RoleUser:
			text, err := flattenUserTurn(msg.Content)
			if err != nil {
				return flattenedPrompt{}, err
			}
			fmt.Fprintf(&b, "%s:\n%s\n\n", userLabel, text)

		case api.RoleAssistant:
			text, err := flattenAssistantTurn(msg.Content)
			if err != nil {
				return flattenedPrompt{}, err
			}
			fmt.Fprintf(&b, "%s:\n%s\n\n", assistantLabel, text)

		case api.RoleTool:
			return flattenedPrompt{}, api.NewUnsupportedFunctionalityError(
				"tool messages in completion prompts", "")

		default:
			return flattenedPrompt{}, api.NewInvalidPromptError(fmt.Sprintf("unknown message role %q", msg.Role))
		}
	}

	b.WriteString(assistantLabel + ":\n")

	return flattenedPrompt{
		prompt:        b.String(),
		stopSequences: []string{"\n" + userLabel + ":"},
	}, nil
}

func flattenUserTurn(parts []api.ContentPart) (string, error) {
	var b strings.Builder
	for _, part := range parts {
		switch p := part.(type) {
		case api.TextPart:
			b.WriteString(p.Text)
		case api.FilePart:
			return "", api.NewUnsupportedFunctionalityError(
				"file content parts in completion prompts", "")
		default:
			return "", api.NewUnsupportedFunctionalityError(
				fmt.Sprintf("%s content parts in completion prompts", part.Kind()), "")
		}
	}
	return b.String(), nil
}

func flattenAssistantTurn(parts []api.ContentPart) (string, error) {
	var b strings.Builder
	for _, part := range parts {
		switch p := part.(type) {
		case api.TextPart:
			b.WriteString(p.Text)
		default:
			return "", api.NewUnsupportedFunctionalityError(
				fmt.Sprintf("%s content parts in completion prompts", part.Kind()), "")
		}
	}
	return b.String(), nil
}
