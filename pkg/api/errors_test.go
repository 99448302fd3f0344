package api

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUnsupportedFunctionalityError(t *testing.T) {
	err := NewUnsupportedFunctionalityError("file content parts", "only images are supported")
	want := `unsupported functionality "file content parts": only images are supported`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	err = NewUnsupportedFunctionalityError("tools", "")
	if err.Error() != `unsupported functionality "tools"` {
		t.Errorf("got %q", err.Error())
	}
}

func TestTooManyEmbeddingValuesError(t *testing.T) {
	err := &TooManyEmbeddingValuesError{
		Provider:             "qwen",
		ModelID:              "text-embedding-v3",
		MaxEmbeddingsPerCall: 2048,
		Count:                3000,
	}

	msg := err.Error()
	for _, want := range []string{"qwen", "text-embedding-v3", "3000", "2048"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestAPICallError(t *testing.T) {
	err := NewAPICallError("https://example.com/chat/completions", 429, "rate limited", `{"error":{}}`)
	want := "API call to https://example.com/chat/completions failed (HTTP 429): rate limited"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	// Network errors carry no status code.
	err = NewAPICallError("https://example.com", 0, "connection refused", "")
	if err.Error() != "API call to https://example.com failed: connection refused" {
		t.Errorf("got %q", err.Error())
	}
}

func TestErrorsAs(t *testing.T) {
	var wrapped error = fmt.Errorf("call failed: %w", NewInvalidResponseError("no choices"))

	var invalidResp *InvalidResponseError
	if !errors.As(wrapped, &invalidResp) {
		t.Fatal("errors.As failed to unwrap InvalidResponseError")
	}
	if invalidResp.Message != "no choices" {
		t.Errorf("got %q", invalidResp.Message)
	}
}
