// Package api defines the vendor-neutral request and response types shared
// by all model adapters: prompts built from role-tagged messages with
// multi-part content, call warnings, token usage accounting, finish reasons,
// and the ordered lifecycle events emitted while transcoding a streaming
// response. Adapter packages translate between these types and their
// backend's wire format.
package api
