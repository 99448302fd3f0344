// Package provider defines the capability interfaces implemented by model
// adapters (language models, embedding models, reranking models) together
// with the request and response records those capabilities exchange. The
// interfaces operate purely on the canonical types from pkg/api, keeping
// backend wire formats invisible to callers.
package provider
