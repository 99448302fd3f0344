package api

import "encoding/json"

// ToolType discriminates tool definition variants.
type ToolType string

const (
	// ToolTypeFunction is a caller-defined function tool.
	ToolTypeFunction ToolType = "function"

	// ToolTypeProviderDefined references a tool built into some backend.
	// Backends that have no such concept drop these with a warning.
	ToolTypeProviderDefined ToolType = "provider-defined"
)

// Tool describes a tool the model may call.
type Tool struct {
	Type        ToolType
	Name        string
	Description string

	// Parameters is the JSON schema for the tool's input.
	Parameters json.RawMessage

	// ID identifies a provider-defined tool (e.g. "vendor.web_search").
	ID string
}

// ToolChoiceMode controls whether and which tool the model must call.
type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceRequired ToolChoiceMode = "required"
	ToolChoiceTool     ToolChoiceMode = "tool"
)

// ToolChoice constrains tool selection. ToolName is set only for
// ToolChoiceTool.
type ToolChoice struct {
	Mode     ToolChoiceMode
	ToolName string
}

// ResponseFormat requests a particular output encoding. Type is "text" or
// "json"; Schema, Name and Description apply only to "json".
type ResponseFormat struct {
	Type        string
	Schema      json.RawMessage
	Name        string
	Description string
}
