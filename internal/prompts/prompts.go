// Package prompts assembles the system and user prompts for tree generation.
package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File names checked in the prompt directory for operator overrides.
const (
	builderSystemFile  = "builder_system.md"
	expanderSystemFile = "expander_system.md"
)

const defaultBuilderSystem = `You are a decision analysis expert. Given a problem
statement, identify the distinct initial options available to the decision maker.
Every option is a chance node: its consequences are uncertain. Rate each option's
risk and opportunity on a 1-10 scale. Respond only with the requested JSON.`

const defaultExpanderSystem = `You are a decision analysis expert. Given a problem
statement and the path of decisions taken so far, identify the plausible
consequences of the current position. Each consequence is either a follow-up
decision or a terminal outcome. Rate risk and opportunity on a 1-10 scale and,
for outcomes only, the probability (0-100) of that outcome occurring. Respond
only with the requested JSON.`

// Library holds the system prompt templates, with on-disk overrides from the
// prompt directory taking precedence over the built-in defaults.
type Library struct {
	builderSystem  string
	expanderSystem string
}

// Load creates a Library, reading override files from dir when present.
func Load(dir string) *Library {
	l := &Library{
		builderSystem:  defaultBuilderSystem,
		expanderSystem: defaultExpanderSystem,
	}
	if s := readFile(dir, builderSystemFile); s != "" {
		l.builderSystem = s
	}
	if s := readFile(dir, expanderSystemFile); s != "" {
		l.expanderSystem = s
	}
	return l
}

// BuilderSystem returns the system prompt for initial tree construction.
func (l *Library) BuilderSystem() string { return l.builderSystem }

// ExpanderSystem returns the system prompt for node expansion.
func (l *Library) ExpanderSystem() string { return l.expanderSystem }

// BuilderUser builds the user prompt for initial tree construction.
func (l *Library) BuilderUser(problem string, breadth int) string {
	return fmt.Sprintf(
		"Problem:\n%s\n\nList up to %d distinct initial options for this decision.",
		problem, breadth)
}

// ExpanderUser builds the user prompt for expanding one node. path is the
// chain of ancestor descriptions from the root to the node being expanded.
func (l *Library) ExpanderUser(problem, path, description string, breadth int) string {
	return fmt.Sprintf(
		"Problem:\n%s\n\nDecision path so far:\n%s\n\nCurrent position: %s\n\n"+
			"List up to %d plausible consequences of this position.",
		problem, path, description, breadth)
}

func readFile(dir, name string) string {
	if dir == "" {
		return ""
	}
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
