package tree

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/yourusername/decisiond/internal/llm"
)

// stubProvider is a deterministic generator: every root call returns exactly
// breadth options and every expansion call exactly breadth children.
type stubProvider struct {
	breadth   int
	childType string
	err       error
	calls     atomic.Int64
}

func (s *stubProvider) Name() string                         { return "stub" }
func (s *stubProvider) Model() string                        { return "stub-model" }
func (s *stubProvider) ContextTokens() int                   { return 8192 }
func (s *stubProvider) TrimPrompt(text string, _ int) string { return text }
func (s *stubProvider) HealthCheck(_ context.Context) error  { return nil }

func (s *stubProvider) Generate(_ context.Context, _, _, schemaName string, _ *jsonschema.Definition) (json.RawMessage, llm.Usage, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, llm.Usage{}, s.err
	}
	usage := llm.Usage{InputTokens: 100, OutputTokens: 50}

	childType := s.childType
	if childType == "" {
		childType = "outcome"
	}
	var items []map[string]any
	for i := 0; i < s.breadth; i++ {
		items = append(items, map[string]any{
			"description": fmt.Sprintf("option %d", i+1),
			"type":        childType,
			"risk":        5,
			"opportunity": 5,
			"probability": 50,
		})
	}

	var payload any
	if schemaName == "decision_root" {
		payload = map[string]any{"description": "root decision", "options": items}
	} else {
		payload = map[string]any{"children": items}
	}
	raw, err := json.Marshal(payload)
	return raw, usage, err
}
