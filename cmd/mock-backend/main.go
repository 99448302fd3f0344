// Command mock-backend runs a deterministic DashScope-shaped server for
// adapter testing. It serves the compatible-mode chat, completion and
// embedding endpoints plus both rerank endpoints, returning predictable
// responses based on request content.
//
// Configuration:
//
//	MOCK_PORT - Listen port (default: 9090)
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /compatible-mode/v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("POST /compatible-mode/v1/completions", handleCompletions)
	mux.HandleFunc("POST /compatible-mode/v1/embeddings", handleEmbeddings)
	mux.HandleFunc("POST /compatible-api/v1/reranks", handleFlatRerank)
	mux.HandleFunc("POST /api/v1/services/rerank/text-rerank/text-rerank", handleLegacyRerank)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + port, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock backend starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock backend failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

// --- Chat completions ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []any         `json:"tools,omitempty"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	model := req.Model
	if model == "" {
		model = "qwen-plus"
	}

	if req.Stream {
		streamChat(w, &req, model)
		return
	}

	resp := map[string]any{
		"id":      "chatcmpl-mock",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": 5,
			"total_tokens":      15,
		},
	}

	if len(req.Tools) > 0 {
		resp["choices"] = []any{map[string]any{
			"index": 0,
			"message": map[string]any{
				"role":    "assistant",
				"content": nil,
				"tool_calls": []any{map[string]any{
					"id":   "call_mock_1",
					"type": "function",
					"function": map[string]any{
						"name":      "get_weather",
						"arguments": `{"city":"Hangzhou","unit":"celsius"}`,
					},
				}},
			},
			"finish_reason": "tool_calls",
		}}
	} else {
		text := "Hello, nice day!"
		if strings.Contains(strings.ToLower(lastUserMessage(&req)), "reason") {
			resp["choices"] = []any{map[string]any{
				"index": 0,
				"message": map[string]any{
					"role":              "assistant",
					"content":           text,
					"reasoning_content": "The user wants a reasoned answer.",
				},
				"finish_reason": "stop",
			}}
			writeJSON(w, resp)
			return
		}
		resp["choices"] = []any{map[string]any{
			"index": 0,
			"message": map[string]any{
				"role":    "assistant",
				"content": text,
			},
			"finish_reason": "stop",
		}}
	}

	writeJSON(w, resp)
}

func streamChat(w http.ResponseWriter, req *chatRequest, model string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	tokens := []string{"Hello", ", ", "nice", " ", "day", "!"}
	for i, token := range tokens {
		delta := map[string]any{"content": token}
		if i == 0 {
			delta["role"] = "assistant"
		}
		writeSSE(w, map[string]any{
			"id":      "chatcmpl-mock-stream",
			"object":  "chat.completion.chunk",
			"created": time.Now().Unix(),
			"model":   model,
			"choices": []any{map[string]any{"index": 0, "delta": delta, "finish_reason": nil}},
		})
		flusher.Flush()
	}

	writeSSE(w, map[string]any{
		"id":      "chatcmpl-mock-stream",
		"object":  "chat.completion.chunk",
		"model":   model,
		"choices": []any{map[string]any{"index": 0, "delta": map[string]any{}, "finish_reason": "stop"}},
		"usage": map[string]any{
			"prompt_tokens":     10,
			"completion_tokens": len(tokens),
			"total_tokens":      10 + len(tokens),
		},
	})
	flusher.Flush()

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// --- Completions ---

type completionReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

func handleCompletions(w http.ResponseWriter, r *http.Request) {
	var req completionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	model := req.Model
	if model == "" {
		model = "qwen-turbo"
	}

	if req.Stream {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, token := range []string{" there", " was", " a", " gopher"} {
			writeSSE(w, map[string]any{
				"id":      "cmpl-mock-stream",
				"object":  "text_completion",
				"model":   model,
				"choices": []any{map[string]any{"index": 0, "text": token, "finish_reason": nil}},
			})
			flusher.Flush()
		}
		writeSSE(w, map[string]any{
			"id":      "cmpl-mock-stream",
			"model":   model,
			"choices": []any{map[string]any{"index": 0, "text": "", "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 4, "completion_tokens": 4, "total_tokens": 8},
		})
		flusher.Flush()
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
		return
	}

	writeJSON(w, map[string]any{
		"id":      "cmpl-mock",
		"object":  "text_completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []any{map[string]any{"index": 0, "text": " there was a gopher", "finish_reason": "stop"}},
		"usage":   map[string]any{"prompt_tokens": 4, "completion_tokens": 4, "total_tokens": 8},
	})
}

// --- Embeddings ---

type embeddingReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

func handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embeddingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	data := make([]any, 0, len(req.Input))
	for i, value := range req.Input {
		data = append(data, map[string]any{
			"index":     i,
			"object":    "embedding",
			"embedding": deterministicVector(value),
		})
	}

	writeJSON(w, map[string]any{
		"id":     "emb-mock",
		"object": "list",
		"model":  req.Model,
		"data":   data,
		"usage":  map[string]any{"prompt_tokens": len(req.Input) * 3, "total_tokens": len(req.Input) * 3},
	})
}

// deterministicVector derives a small stable vector from the input text
// so repeated runs compare equal.
func deterministicVector(value string) []float64 {
	h := fnv.New32a()
	h.Write([]byte(value))
	seed := h.Sum32()

	vec := make([]float64, 4)
	for i := range vec {
		seed = seed*1664525 + 1013904223
		vec[i] = float64(seed%1000) / 1000
	}
	return vec
}

// --- Rerank ---

type flatRerankReq struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      *int     `json:"top_n"`
}

func handleFlatRerank(w http.ResponseWriter, r *http.Request) {
	var req flatRerankReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"invalid request","code":"InvalidParameter"}`, http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{
		"id":      "rerank-mock",
		"results": scoreDocuments(req.Query, req.Documents, req.TopN),
		"usage":   map[string]any{"total_tokens": len(req.Documents) * 5},
	})
}

type legacyRerankReq struct {
	Model string `json:"model"`
	Input struct {
		Query     string   `json:"query"`
		Documents []string `json:"documents"`
	} `json:"input"`
	Parameters struct {
		TopN *int `json:"top_n"`
	} `json:"parameters"`
}

func handleLegacyRerank(w http.ResponseWriter, r *http.Request) {
	var req legacyRerankReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"message":"invalid request","code":"InvalidParameter"}`, http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{
		"request_id": "req-mock",
		"output": map[string]any{
			"results": scoreDocuments(req.Input.Query, req.Input.Documents, req.Parameters.TopN),
		},
		"usage": map[string]any{"total_tokens": len(req.Input.Documents) * 5},
	})
}

// scoreDocuments ranks documents by crude term overlap with the query,
// descending, honoring top_n.
func scoreDocuments(query string, documents []string, topN *int) []any {
	terms := strings.Fields(strings.ToLower(query))

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, 0, len(documents))
	for i, doc := range documents {
		lower := strings.ToLower(doc)
		var hits int
		for _, term := range terms {
			if strings.Contains(lower, term) {
				hits++
			}
		}
		score := 0.05
		if len(terms) > 0 {
			score += 0.9 * float64(hits) / float64(len(terms))
		}
		ranked = append(ranked, scored{index: i, score: score})
	}

	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	limit := len(ranked)
	if topN != nil && *topN < limit {
		limit = *topN
	}

	out := make([]any, 0, limit)
	for _, entry := range ranked[:limit] {
		out = append(out, map[string]any{
			"index":           entry.index,
			"relevance_score": entry.score,
		})
	}
	return out
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, v any) {
	data, _ := json.Marshal(v)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func lastUserMessage(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role != "user" {
			continue
		}
		if s, ok := req.Messages[i].Content.(string); ok {
			return s
		}
	}
	return ""
}
