package api

import "time"

// ResponseMetadata is the canonical envelope of backend response
// identification fields. Zero values mean the backend did not report
// the field.
type ResponseMetadata struct {
	ID        string
	ModelID   string
	Timestamp time.Time
}
