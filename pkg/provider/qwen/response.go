package qwen

import (
	"time"

	"github.com/modelrelay/qwen-go/pkg/api"
)

// mapFinishReason translates the backend's termination code into the
// unified taxonomy. The mapping is total: unrecognized codes map to
// FinishUnknown with the raw value preserved for diagnostics.
func mapFinishReason(raw string) api.FinishReason {
	switch raw {
	case "stop":
		return api.FinishReason{Unified: api.FinishStop, Raw: raw}
	case "length":
		return api.FinishReason{Unified: api.FinishLength, Raw: raw}
	case "content_filter":
		return api.FinishReason{Unified: api.FinishContentFilter, Raw: raw}
	case "tool_calls", "function_call":
		return api.FinishReason{Unified: api.FinishToolCalls, Raw: raw}
	case "error":
		return api.FinishReason{Unified: api.FinishError, Raw: raw}
	case "":
		return api.FinishReason{Unified: api.FinishUnknown}
	default:
		return api.FinishReason{Unified: api.FinishUnknown, Raw: raw}
	}
}

// normalizeUsage reshapes the backend's flat token counts into the nested
// canonical structure. Counts the backend did not report stay nil. The
// coarse breakdowns (no-cache input, plain-text output) are derived when
// both operands are known.
func normalizeUsage(u *wireUsage) api.Usage {
	if u == nil {
		return api.Usage{}
	}

	usage := api.Usage{
		InputTokens:  api.InputTokenUsage{Total: u.PromptTokens},
		OutputTokens: api.OutputTokenUsage{Total: u.CompletionTokens},
	}

	if d := u.PromptTokensDetails; d != nil && d.CachedTokens != nil {
		usage.InputTokens.CacheRead = d.CachedTokens
		if u.PromptTokens != nil {
			noCache := *u.PromptTokens - *d.CachedTokens
			usage.InputTokens.NoCache = &noCache
		}
	}

	if d := u.CompletionTokensDetails; d != nil && d.ReasoningTokens != nil {
		usage.OutputTokens.Reasoning = d.ReasoningTokens
		if u.CompletionTokens != nil {
			text := *u.CompletionTokens - *d.ReasoningTokens
			usage.OutputTokens.Text = &text
		}
	}

	return usage
}

// extractResponseMetadata pulls response identification fields into the
// canonical envelope. A zero created timestamp stays a zero time.
func extractResponseMetadata(id, model string, created int64) *api.ResponseMetadata {
	meta := &api.ResponseMetadata{ID: id, ModelID: model}
	if created > 0 {
		meta.Timestamp = time.Unix(created, 0).UTC()
	}
	return meta
}
