package runtime

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/agent"
)

const DefaultSystemPrompt = "You are a helpful AI assistant. Answer the user's questions as accurately as you can."

// SystemPrompt renders the bound prompt, or returns the default one.
func SystemPrompt(p *agent.Prompt, input map[string]any) (string, error) {
	if p == nil {
		return DefaultSystemPrompt, nil
	}
	return Render(p.Template, p.InputVariables, input)
}

// Render substitutes {name} placeholders for every declared variable.
// A declared variable missing from input is a validation error.
func Render(template string, variables []string, input map[string]any) (string, error) {
	var missing []string
	pairs := make([]string, 0, 2*len(variables))
	for _, name := range variables {
		v, ok := input[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		pairs = append(pairs, "{"+name+"}", stringify(v))
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", agent.ErrRegistry.New(agent.ErrInvalidInput).WithDetail("missing", missing)
	}
	return strings.NewReplacer(pairs...).Replace(template), nil
}

// UserInput returns input["input"], JSON-encoded unless it is a string.
func UserInput(input map[string]any) (string, error) {
	v, ok := input["input"]
	if !ok {
		return "", agent.ErrRegistry.New(agent.ErrInvalidInput).WithDetail("missing", []string{"input"})
	}
	return stringify(v), nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
