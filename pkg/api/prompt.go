package api

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ProviderOptions carries opaque, provider-specific settings keyed by
// provider name. An adapter consults only the entry matching its own name
// and ignores everything else.
type ProviderOptions map[string]map[string]any

// For returns the options bag for the given provider name, or nil if the
// bag is absent.
func (o ProviderOptions) For(provider string) map[string]any {
	if o == nil {
		return nil
	}
	return o[provider]
}

// PartKind discriminates the content part variants.
type PartKind string

const (
	PartKindText       PartKind = "text"
	PartKindFile       PartKind = "file"
	PartKindReasoning  PartKind = "reasoning"
	PartKindToolCall   PartKind = "tool-call"
	PartKindToolResult PartKind = "tool-result"
)

// ContentPart is one element of a message's ordered content sequence.
// Adapters dispatch on Kind(); an unrecognized kind is a programming error
// and must fail loudly, not fall through.
type ContentPart interface {
	Kind() PartKind

	// Options returns the part-level provider options bag.
	Options() ProviderOptions
}

// TextPart is plain text content.
type TextPart struct {
	Text            string
	ProviderOptions ProviderOptions
}

func (p TextPart) Kind() PartKind           { return PartKindText }
func (p TextPart) Options() ProviderOptions { return p.ProviderOptions }

// FilePart references binary content, either by URL or as raw bytes.
// Only image media types are accepted by the chat adapters.
type FilePart struct {
	// MediaType is the IANA media type (e.g. "image/png").
	MediaType string

	// URL references the file remotely. Takes precedence over Data.
	URL string

	// Data holds the raw file bytes when no URL is given.
	Data []byte

	ProviderOptions ProviderOptions
}

func (p FilePart) Kind() PartKind           { return PartKindFile }
func (p FilePart) Options() ProviderOptions { return p.ProviderOptions }

// ReasoningPart is model-produced reasoning (chain-of-thought) text.
type ReasoningPart struct {
	Text            string
	ProviderOptions ProviderOptions
}

func (p ReasoningPart) Kind() PartKind           { return PartKindReasoning }
func (p ReasoningPart) Options() ProviderOptions { return p.ProviderOptions }

// ToolCallPart is an assistant request to invoke a tool. Input is any
// JSON-serializable value; adapters serialize it to the backend's
// argument-string representation.
type ToolCallPart struct {
	ToolCallID      string
	ToolName        string
	Input           any
	ProviderOptions ProviderOptions
}

func (p ToolCallPart) Kind() PartKind           { return PartKindToolCall }
func (p ToolCallPart) Options() ProviderOptions { return p.ProviderOptions }

// ToolResultKind discriminates how a tool result's payload is encoded.
type ToolResultKind string

const (
	ToolResultText      ToolResultKind = "text"
	ToolResultJSON      ToolResultKind = "json"
	ToolResultErrorText ToolResultKind = "error-text"
	ToolResultErrorJSON ToolResultKind = "error-json"
)

// ToolResultOutput is the payload of a tool invocation result. Text holds
// the value for the text kinds; Value holds it for the JSON kinds.
type ToolResultOutput struct {
	Kind  ToolResultKind
	Text  string
	Value any
}

// ToolResultPart reports the outcome of a prior tool call back to the model.
type ToolResultPart struct {
	ToolCallID      string
	ToolName        string
	Output          ToolResultOutput
	ProviderOptions ProviderOptions
}

func (p ToolResultPart) Kind() PartKind           { return PartKindToolResult }
func (p ToolResultPart) Options() ProviderOptions { return p.ProviderOptions }

// Message is one turn of a conversation. Content is an ordered sequence of
// parts; which part kinds are valid depends on the role. Messages are
// read-only inputs to adapters and are never mutated.
type Message struct {
	Role            Role
	Content         []ContentPart
	ProviderOptions ProviderOptions
}

// Prompt is an ordered conversation.
type Prompt []Message
