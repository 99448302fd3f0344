package provider

// MergeProviderOptions combines a turn-level and a part-level provider
// options bag into one map. Keys present at both levels resolve to the
// part-level value: the more specific bag always wins. Either argument
// may be nil. The inputs are not mutated.
func MergeProviderOptions(turnLevel, partLevel map[string]any) map[string]any {
	if len(turnLevel) == 0 && len(partLevel) == 0 {
		return nil
	}
	merged := make(map[string]any, len(turnLevel)+len(partLevel))
	for k, v := range turnLevel {
		merged[k] = v
	}
	for k, v := range partLevel {
		merged[k] = v
	}
	return merged
}
