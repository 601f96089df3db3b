package tree

import (
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// rootSchema constrains the initial tree generation call: one decision
// statement plus up to breadth chance options.
func rootSchema(breadth int) *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"description": {
				Type:        jsonschema.String,
				Description: "One-sentence restatement of the decision being made",
			},
			"options": {
				Type:        jsonschema.Array,
				Description: fmt.Sprintf("Up to %d distinct initial options", breadth),
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"description": {Type: jsonschema.String},
						"risk":        {Type: jsonschema.Integer, Description: "1-10"},
						"opportunity": {Type: jsonschema.Integer, Description: "1-10"},
					},
					Required:             []string{"description", "risk", "opportunity"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"description", "options"},
		AdditionalProperties: false,
	}
}

// branchSchema constrains a node expansion call: up to breadth consequence
// nodes, each a follow-up decision or a terminal outcome.
func branchSchema(breadth int) *jsonschema.Definition {
	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"children": {
				Type:        jsonschema.Array,
				Description: fmt.Sprintf("Up to %d plausible consequences", breadth),
				Items: &jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"description": {Type: jsonschema.String},
						"type":        {Type: jsonschema.String, Enum: []string{"decision", "outcome"}},
						"risk":        {Type: jsonschema.Integer, Description: "1-10"},
						"opportunity": {Type: jsonschema.Integer, Description: "1-10"},
						"probability": {
							Type:        jsonschema.Integer,
							Description: "0-100 likelihood, meaningful for outcome nodes only",
						},
					},
					Required:             []string{"description", "type", "risk", "opportunity", "probability"},
					AdditionalProperties: false,
				},
			},
		},
		Required:             []string{"children"},
		AdditionalProperties: false,
	}
}
