package api

import "github.com/google/uuid"

// NewStreamPartID generates a fresh identifier for a text or reasoning
// sub-stream, or for a synthesized tool call id in simulated streaming.
func NewStreamPartID() string {
	return uuid.NewString()
}
