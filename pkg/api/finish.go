package api

// FinishReasonKind is the unified termination taxonomy.
type FinishReasonKind string

const (
	FinishStop          FinishReasonKind = "stop"
	FinishLength        FinishReasonKind = "length"
	FinishContentFilter FinishReasonKind = "content-filter"
	FinishToolCalls     FinishReasonKind = "tool-calls"
	FinishError         FinishReasonKind = "error"
	FinishOther         FinishReasonKind = "other"
	FinishUnknown       FinishReasonKind = "unknown"
)

// FinishReason pairs the unified termination code with the untranslated
// backend value. Unified is always populated; Raw is empty when the
// backend never reported a reason.
type FinishReason struct {
	Unified FinishReasonKind
	Raw     string
}
