package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/modelrelay/qwen-go/pkg/api"
)

// postJSON marshals payload and POSTs it to url with auth and default
// headers applied. Non-2xx responses are consumed and returned as an
// *api.APICallError. For stream requests the client timeout is not
// applied; the context controls the request lifetime instead.
func (p *Provider) postJSON(ctx context.Context, url string, payload any, extraHeaders map[string]string, stream bool) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("qwen: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("qwen: build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("User-Agent", "qwen-go/"+Version)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	for k, v := range p.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		httpReq.Header.Set(k, v)
	}

	client := p.client
	if stream {
		// A stream can legitimately outlive any fixed timeout.
		client = &http.Client{Transport: p.client.Transport}
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(url, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, mapHTTPError(url, httpResp)
	}

	return httpResp, nil
}

// decodeJSON reads the full response body and unmarshals it into v,
// returning the raw bytes for metadata extraction.
func decodeJSON(url string, resp *http.Response, v any) ([]byte, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, api.NewAPICallError(url, resp.StatusCode, "failed to read response body: "+err.Error(), "")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, api.NewAPICallError(url, resp.StatusCode, "failed to parse response body: "+err.Error(), string(raw))
	}
	return raw, nil
}
