package qwen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/provider"
)

func TestFlattenRawPromptPassesThrough(t *testing.T) {
	flat, err := flattenCompletionPrompt(api.Prompt{
		{Role: api.RoleUser, Content: []api.ContentPart{api.TextPart{Text: "Once upon a time"}}},
	}, provider.InputFormatPrompt, "", "")
	require.NoError(t, err)

	assert.Equal(t, "Once upon a time", flat.prompt)
	assert.Empty(t, flat.stopSequences, "raw prompt input gets no stop sequences")
}

func TestFlattenConversation(t *testing.T) {
	flat, err := flattenCompletionPrompt(api.Prompt{
		{Role: api.RoleSystem, Content: []api.ContentPart{api.TextPart{Text: "Be brief."}}},
		{Role: api.RoleUser, Content: []api.ContentPart{api.TextPart{Text: "Hi"}}},
		{Role: api.RoleAssistant, Content: []api.ContentPart{api.TextPart{Text: "Hello"}}},
		{Role: api.RoleUser, Content: []api.ContentPart{api.TextPart{Text: "How are you?"}}},
	}, provider.InputFormatMessages, "", "")
	require.NoError(t, err)

	want := "Be brief.\n\n" +
		"user:\nHi\n\n" +
		"assistant:\nHello\n\n" +
		"user:\nHow are you?\n\n" +
		"assistant:\n"
	assert.Equal(t, want, flat.prompt)
	assert.Equal(t, []string{"\nuser:"}, flat.stopSequences)
}

func TestFlattenCustomLabels(t *testing.T) {
	flat, err := flattenCompletionPrompt(api.Prompt{
		{Role: api.RoleUser, Content: []api.ContentPart{api.TextPart{Text: "Hi"}}},
	}, provider.InputFormatMessages, "Human", "AI")
	require.NoError(t, err)

	assert.Equal(t, "Human:\nHi\n\nAI:\n", flat.prompt)
	assert.Equal(t, []string{"\nHuman:"}, flat.stopSequences)
}

func TestFlattenLateSystemMessageIsError(t *testing.T) {
	_, err := flattenCompletionPrompt(api.Prompt{
		{Role: api.RoleUser, Content: []api.ContentPart{api.TextPart{Text: "Hi"}}},
		{Role: api.RoleSystem, Content: []api.ContentPart{api.TextPart{Text: "surprise"}}},
	}, provider.InputFormatMessages, "", "")

	var invalid *api.InvalidPromptError
	require.True(t, errors.As(err, &invalid))
}

func TestFlattenRejectsToolMessages(t *testing.T) {
	_, err := flattenCompletionPrompt(api.Prompt{
		{Role: api.RoleTool, Content: []api.ContentPart{
			api.ToolResultPart{ToolCallID: "c1", Output: api.ToolResultOutput{Kind: api.ToolResultText, Text: "ok"}},
		}},
	}, provider.InputFormatMessages, "", "")

	var unsupported *api.UnsupportedFunctionalityError
	require.True(t, errors.As(err, &unsupported))
}

func TestFlattenRejectsFileParts(t *testing.T) {
	_, err := flattenCompletionPrompt(api.Prompt{
		{Role: api.RoleUser, Content: []api.ContentPart{
			api.FilePart{MediaType: "image/png", Data: []byte{1}},
		}},
	}, provider.InputFormatMessages, "", "")

	var unsupported *api.UnsupportedFunctionalityError
	require.True(t, errors.As(err, &unsupported))
}

func TestFlattenPromptFormatMultiTurnStillLabeled(t *testing.T) {
	// InputFormatPrompt only bypasses labeling for the single user text case.
	flat, err := flattenCompletionPrompt(api.Prompt{
		{Role: api.RoleUser, Content: []api.ContentPart{api.TextPart{Text: "a"}}},
		{Role: api.RoleAssistant, Content: []api.ContentPart{api.TextPart{Text: "b"}}},
	}, provider.InputFormatPrompt, "", "")
	require.NoError(t, err)

	assert.Equal(t, "user:\na\n\nassistant:\nb\n\nassistant:\n", flat.prompt)
	assert.Equal(t, []string{"\nuser:"}, flat.stopSequences)
}
