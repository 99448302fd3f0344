package api

// WarningType classifies a non-fatal call warning.
type WarningType string

const (
	WarningUnsupportedSetting WarningType = "unsupported-setting"
	WarningUnsupportedTool    WarningType = "unsupported-tool"
	WarningOther              WarningType = "other"
)

// CallWarning reports a request feature the adapter could not honor.
// The call still proceeds; warnings are attached to the result (or to the
// stream-start event) for the caller to inspect.
type CallWarning struct {
	Type WarningType

	// Setting names the rejected parameter for unsupported-setting warnings.
	Setting string

	// Tool names the dropped tool for unsupported-tool warnings.
	Tool string

	// Details explains what was dropped or altered.
	Details string

	// Message carries free-form text for WarningOther.
	Message string
}
