package api

import "fmt"

// UnsupportedFunctionalityError reports a request feature the adapter
// cannot express in its backend's wire format. These are caller errors:
// the request is rejected before any network I/O.
type UnsupportedFunctionalityError struct {
	Functionality string
	Message       string
}

func (e *UnsupportedFunctionalityError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unsupported functionality %q: %s", e.Functionality, e.Message)
	}
	return fmt.Sprintf("unsupported functionality %q", e.Functionality)
}

// NewUnsupportedFunctionalityError creates an UnsupportedFunctionalityError.
func NewUnsupportedFunctionalityError(functionality, message string) *UnsupportedFunctionalityError {
	return &UnsupportedFunctionalityError{Functionality: functionality, Message: message}
}

// InvalidPromptError reports a structurally invalid prompt, such as a
// system message appearing after the first position.
type InvalidPromptError struct {
	Message string
}

func (e *InvalidPromptError) Error() string {
	return "invalid prompt: " + e.Message
}

// NewInvalidPromptError creates an InvalidPromptError.
func NewInvalidPromptError(message string) *InvalidPromptError {
	return &InvalidPromptError{Message: message}
}

// InvalidResponseError reports a backend response the adapter cannot
// safely interpret, such as a streamed tool call delta missing its
// identity fields on first sighting.
type InvalidResponseError struct {
	Message string
}

func (e *InvalidResponseError) Error() string {
	return "invalid response: " + e.Message
}

// NewInvalidResponseError creates an InvalidResponseError.
func NewInvalidResponseError(message string) *InvalidResponseError {
	return &InvalidResponseError{Message: message}
}

// TooManyEmbeddingValuesError reports an embedding batch exceeding the
// model's per-call maximum. Raised before any network call.
type TooManyEmbeddingValuesError struct {
	Provider             string
	ModelID              string
	MaxEmbeddingsPerCall int
	Count                int
}

func (e *TooManyEmbeddingValuesError) Error() string {
	return fmt.Sprintf("too many values for a single %s %s embedding call: %d provided, maximum is %d",
		e.Provider, e.ModelID, e.Count, e.MaxEmbeddingsPerCall)
}

// APICallError reports a failed HTTP call: non-2xx status, network
// failure, or an unparseable body. It is the single recovery boundary;
// callers above the adapter decide whether to retry.
type APICallError struct {
	URL          string
	StatusCode   int
	Message      string
	ResponseBody string
}

func (e *APICallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API call to %s failed (HTTP %d): %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API call to %s failed: %s", e.URL, e.Message)
}

// NewAPICallError creates an APICallError.
func NewAPICallError(url string, statusCode int, message, responseBody string) *APICallError {
	return &APICallError{URL: url, StatusCode: statusCode, Message: message, ResponseBody: responseBody}
}
