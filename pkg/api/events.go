package api

// StreamEventType classifies a lifecycle event emitted while transcoding
// a streaming response.
type StreamEventType int

const (
	EventStreamStart      StreamEventType = iota // First event, carries warnings
	EventResponseMetadata                        // Response id/model/timestamp
	EventTextStart                               // Text sub-stream opened
	EventTextDelta                               // Incremental text fragment
	EventTextEnd                                 // Text sub-stream closed
	EventReasoningStart                          // Reasoning sub-stream opened
	EventReasoningDelta                          // Incremental reasoning fragment
	EventReasoningEnd                            // Reasoning sub-stream closed
	EventToolInputStart                          // Tool call sighted, id and name known
	EventToolInputDelta                          // Incremental argument fragment
	EventToolInputEnd                            // Arguments complete
	EventToolCall                                // Terminal event for one tool call
	EventFinish                                  // Stream finished, carries reason and usage
	EventError                                   // Chunk-level or stream-level failure
)

var eventTypeNames = map[StreamEventType]string{
	EventStreamStart:      "stream-start",
	EventResponseMetadata: "response-metadata",
	EventTextStart:        "text-start",
	EventTextDelta:        "text-delta",
	EventTextEnd:          "text-end",
	EventReasoningStart:   "reasoning-start",
	EventReasoningDelta:   "reasoning-delta",
	EventReasoningEnd:     "reasoning-end",
	EventToolInputStart:   "tool-input-start",
	EventToolInputDelta:   "tool-input-delta",
	EventToolInputEnd:     "tool-input-end",
	EventToolCall:         "tool-call",
	EventFinish:           "finish",
	EventError:            "error",
}

// String returns the canonical dash-separated event name.
func (t StreamEventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// StreamEvent is a single ordered lifecycle event. Which fields are
// populated depends on Type.
type StreamEvent struct {
	Type StreamEventType

	// ID identifies the text/reasoning sub-stream or the tool call the
	// event belongs to.
	ID string

	// Delta carries one text, reasoning, or argument fragment, forwarded
	// exactly as received without coalescing.
	Delta string

	// ToolName is set on tool-input-start and tool-call events.
	ToolName string

	// ToolInput is the complete argument JSON, set on tool-call events.
	ToolInput string

	// Warnings accumulated while building the request, set on stream-start.
	Warnings []CallWarning

	// Response identification fields, set on response-metadata.
	Response *ResponseMetadata

	// FinishReason and Usage are set on the finish event.
	FinishReason FinishReason
	Usage        Usage

	// Err is set on error events.
	Err error
}
