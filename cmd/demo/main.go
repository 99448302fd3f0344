// Command demo exercises every adapter capability against a backend.
// Point it at a running mock-backend for a deterministic run, or at the
// real service with a valid key.
//
// Configuration:
//
//	QWEN_BASE_URL     - Backend base URL (default: the DashScope endpoint)
//	DASHSCOPE_API_KEY - API key ("mock" works against the mock backend)
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/modelrelay/qwen-go/pkg/api"
	"github.com/modelrelay/qwen-go/pkg/provider"
	"github.com/modelrelay/qwen-go/pkg/provider/qwen"
)

func main() {
	cfg := qwen.Config{BaseURL: os.Getenv("QWEN_BASE_URL")}

	p, err := qwen.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()

	fmt.Println("=== qwen-go adapter demo ===")

	if err := runChat(ctx, p); err != nil {
		fmt.Fprintln(os.Stderr, "chat:", err)
		os.Exit(1)
	}
	if err := runStream(ctx, p); err != nil {
		fmt.Fprintln(os.Stderr, "stream:", err)
		os.Exit(1)
	}
	if err := runEmbed(ctx, p); err != nil {
		fmt.Fprintln(os.Stderr, "embed:", err)
		os.Exit(1)
	}
	if err := runRerank(ctx, p); err != nil {
		fmt.Fprintln(os.Stderr, "rerank:", err)
		os.Exit(1)
	}

	fmt.Println("\n=== demo complete ===")
}

func runChat(ctx context.Context, p *qwen.Provider) error {
	fmt.Println("\n[1] Chat completion")

	model := p.ChatModel("qwen-plus")
	resp, err := model.Generate(ctx, &provider.GenerateRequest{
		Prompt: api.Prompt{
			{Role: api.RoleSystem, Content: []api.ContentPart{api.TextPart{Text: "Answer briefly."}}},
			{Role: api.RoleUser, Content: []api.ContentPart{api.TextPart{Text: "What is the capital of France?"}}},
		},
	})
	if err != nil {
		return err
	}

	for _, part := range resp.Content {
		switch v := part.(type) {
		case api.ReasoningPart:
			fmt.Printf("    reasoning: %s\n", v.Text)
		case api.TextPart:
			fmt.Printf("    text:      %s\n", v.Text)
		case api.ToolCallPart:
			fmt.Printf("    tool call: %s(%v)\n", v.ToolName, v.Input)
		}
	}
	fmt.Printf("    finish:    %s\n", resp.FinishReason.Unified)
	if resp.Usage.InputTokens.Total != nil && resp.Usage.OutputTokens.Total != nil {
		fmt.Printf("    tokens:    %d in / %d out\n", *resp.Usage.InputTokens.Total, *resp.Usage.OutputTokens.Total)
	}
	return nil
}

func runStream(ctx context.Context, p *qwen.Provider) error {
	fmt.Println("\n[2] Streaming chat")

	model := p.ChatModel("qwen-plus")
	events, err := model.Stream(ctx, &provider.GenerateRequest{
		Prompt: api.Prompt{
			{Role: api.RoleUser, Content: []api.ContentPart{api.TextPart{Text: "Say hello."}}},
		},
	})
	if err != nil {
		return err
	}

	fmt.Print("    ")
	for ev := range events {
		switch ev.Type {
		case api.EventTextDelta:
			fmt.Print(ev.Delta)
		case api.EventError:
			fmt.Printf("\n    stream error: %v", ev.Err)
		case api.EventFinish:
			fmt.Printf("\n    finish: %s\n", ev.FinishReason.Unified)
		}
	}
	return nil
}

func runEmbed(ctx context.Context, p *qwen.Provider) error {
	fmt.Println("\n[3] Embeddings")

	model := p.EmbeddingModel("text-embedding-v3")
	resp, err := model.Embed(ctx, &provider.EmbedRequest{
		Values: []string{"the quick brown fox", "jumps over the lazy dog"},
	})
	if err != nil {
		return err
	}

	for i, vec := range resp.Embeddings {
		n := len(vec)
		if n > 4 {
			vec = vec[:4]
		}
		fmt.Printf("    [%d] dims=%d head=%v\n", i, n, vec)
	}
	return nil
}

func runRerank(ctx context.Context, p *qwen.Provider) error {
	fmt.Println("\n[4] Reranking")

	model := p.RerankModel("gte-rerank-v2")
	docs := []string{
		"Paris is the capital of France.",
		"The Great Wall is in China.",
		"France borders Spain and Italy.",
	}

	documents := make([]provider.RerankDocument, 0, len(docs))
	for _, d := range docs {
		documents = append(documents, provider.TextDocument(d))
	}

	resp, err := model.Rerank(ctx, &provider.RerankRequest{
		Query:     "capital of France",
		Documents: documents,
	})
	if err != nil {
		return err
	}

	for _, entry := range resp.Ranking {
		fmt.Printf("    %.3f  %s\n", entry.RelevanceScore, docs[entry.Index])
	}
	return nil
}
