// Package llm manages structured-generation providers (OpenAI, Ollama).
package llm

import (
	"context"
	"encoding/json"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Usage reports the token cost of one generation call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Provider defines the interface every generation backend must implement.
type Provider interface {
	// Name returns the type identifier: "openai" or "ollama".
	Name() string
	// Model returns the model identifier requests are sent to.
	Model() string
	// ContextTokens returns the model's context window size in tokens.
	ContextTokens() int
	// TrimPrompt shrinks text to the given token budget.
	TrimPrompt(text string, budget int) string
	// Generate issues one schema-constrained completion and returns the raw
	// validated JSON object.
	Generate(ctx context.Context, system, user, schemaName string, schema *jsonschema.Definition) (json.RawMessage, Usage, error)
	// HealthCheck runs a quick check that the backend is reachable.
	HealthCheck(ctx context.Context) error
}
