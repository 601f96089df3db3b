package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/yourusername/decisiond/internal/tokenizer"
)

// OpenAIProvider implements Provider against the OpenAI chat completions API.
type OpenAIProvider struct {
	client        *openai.Client
	model         string
	contextTokens int
	trimmer       *tokenizer.Trimmer
}

// NewOpenAIProvider creates an OpenAIProvider. Returns nil if apiKey is empty
// (provider disabled).
func NewOpenAIProvider(apiKey, model string, contextTokens int, trimmer *tokenizer.Trimmer) *OpenAIProvider {
	if apiKey == "" {
		return nil
	}
	return &OpenAIProvider{
		client:        openai.NewClient(apiKey),
		model:         model,
		contextTokens: contextTokens,
		trimmer:       trimmer,
	}
}

func (p *OpenAIProvider) Name() string       { return "openai" }
func (p *OpenAIProvider) Model() string      { return p.model }
func (p *OpenAIProvider) ContextTokens() int { return p.contextTokens }

// TrimPrompt shrinks text to the given token budget.
func (p *OpenAIProvider) TrimPrompt(text string, budget int) string {
	return p.trimmer.Trim(text, budget)
}

// Generate issues one JSON-schema-constrained chat completion.
func (p *OpenAIProvider) Generate(ctx context.Context, system, user, schemaName string, schema *jsonschema.Definition) (json.RawMessage, Usage, error) {
	return generate(ctx, p.client, p.model, system, user, schemaName, schema)
}

// HealthCheck verifies the API is reachable with the configured key.
func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai.HealthCheck: %w", err)
	}
	return nil
}

// generate is the shared chat-completion call for both providers (Ollama
// speaks the same wire protocol).
func generate(ctx context.Context, client *openai.Client, model, system, user, schemaName string, schema *jsonschema.Definition) (json.RawMessage, Usage, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, Usage{}, fmt.Errorf("llm.generate: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, Usage{}, fmt.Errorf("llm.generate: empty response")
	}

	usage := Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	content := []byte(resp.Choices[0].Message.Content)
	if !json.Valid(content) {
		return nil, usage, fmt.Errorf("llm.generate: model returned invalid JSON")
	}
	return content, usage, nil
}
