package llm

import (
	"context"
	"fmt"
)

type Request struct {
	SystemInstruction string
	Prompt            string
	Temperature       float32
	MaxTokens         int
}

// Provider generates an answer. Failures should be *GenerationError so the
// retry layer can tell transient errors from client errors.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

func BuildPrompt(contextText string, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", contextText, question)
}
