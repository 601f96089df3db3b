package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/yourusername/decisiond/internal/tokenizer"
)

// OllamaProvider implements Provider against a local Ollama server via its
// OpenAI-compatible endpoint.
type OllamaProvider struct {
	client        *openai.Client
	model         string
	contextTokens int
	trimmer       *tokenizer.Trimmer
}

// NewOllamaProvider creates an OllamaProvider. Returns nil if baseURL is
// empty (provider disabled).
func NewOllamaProvider(baseURL, model string, contextTokens int, trimmer *tokenizer.Trimmer) *OllamaProvider {
	if baseURL == "" {
		return nil
	}
	cfg := openai.DefaultConfig("ollama") // Ollama ignores the key but requires one.
	cfg.BaseURL = strings.TrimRight(baseURL, "/") + "/v1"
	return &OllamaProvider{
		client:        openai.NewClientWithConfig(cfg),
		model:         model,
		contextTokens: contextTokens,
		trimmer:       trimmer,
	}
}

func (p *OllamaProvider) Name() string       { return "ollama" }
func (p *OllamaProvider) Model() string      { return p.model }
func (p *OllamaProvider) ContextTokens() int { return p.contextTokens }

// TrimPrompt shrinks text to the given token budget.
func (p *OllamaProvider) TrimPrompt(text string, budget int) string {
	return p.trimmer.Trim(text, budget)
}

// Generate issues one JSON-schema-constrained chat completion.
func (p *OllamaProvider) Generate(ctx context.Context, system, user, schemaName string, schema *jsonschema.Definition) (json.RawMessage, Usage, error) {
	return generate(ctx, p.client, p.model, system, user, schemaName, schema)
}

// HealthCheck verifies the Ollama server is reachable.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("ollama.HealthCheck: %w", err)
	}
	return nil
}
