package qwen

import (
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/modelrelay/qwen-go/pkg/api"
)

// mapHTTPError converts a non-2xx response into an APICallError carrying
// the status code, the parsed backend message, and the original body.
// The backend reports errors either nested under "error" (OpenAI style)
// or as top-level code/message fields (DashScope native style).
func mapHTTPError(url string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	message := extractErrorMessage(body)
	if message == "" {
		message = "unexpected status " + resp.Status
	}

	return api.NewAPICallError(url, resp.StatusCode, message, string(body))
}

// mapNetworkError converts a transport-level failure (connection refused,
// DNS, timeout) into an APICallError without a status code.
func mapNetworkError(url string, err error) error {
	return api.NewAPICallError(url, 0, "connection error: "+err.Error(), "")
}

// extractErrorMessage pulls the human-readable message out of an error
// body, trying the nested shape before the flat one.
func extractErrorMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "message"); msg.Exists() {
		return msg.String()
	}
	return ""
}
