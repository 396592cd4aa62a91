package runtime

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/ai/llm"
)

type strategy func(ctx context.Context, x *execution) (map[string]string, error)

var strategies = map[agent.Type]strategy{
	agent.TypeReact:          react,
	agent.TypePlanSolve:      planSolve,
	agent.TypeConversational: conversational,
}

// Supported reports whether t names a known strategy.
func Supported(t agent.Type) bool {
	_, ok := strategies[t]
	return ok
}

func react(ctx context.Context, x *execution) (map[string]string, error) {
	history, err := x.history(ctx)
	if err != nil {
		return nil, err
	}
	out, err := x.loop(ctx, x.prompt(history, x.question), true)
	if err != nil {
		return nil, err
	}
	return map[string]string{"output": out}, nil
}

const plannerPrompt = `Let's first understand the problem and devise a plan to solve it.
Output the plan as a numbered list, one step per line, starting with "1.".
Keep the number of steps small. The final step should be "Given the above steps taken, respond to the user's original question".`

var stepLine = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)

// ParsePlan extracts the numbered steps of a plan. Text without numbered
// lines is treated as one step.
func ParsePlan(plan string) []string {
	var steps []string
	for _, line := range strings.Split(plan, "\n") {
		if m := stepLine.FindStringSubmatch(line); m != nil {
			steps = append(steps, strings.TrimSpace(m[1]))
		}
	}
	if len(steps) == 0 && strings.TrimSpace(plan) != "" {
		steps = []string{strings.TrimSpace(plan)}
	}
	return steps
}

func planSolve(ctx context.Context, x *execution) (map[string]string, error) {
	resp, err := x.client.Chat(ctx, []llm.Message{
		llm.NewSystemMessage(plannerPrompt),
		llm.NewUserMessage(x.question),
	})
	if err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}
	steps := ParsePlan(resp.Message.Content)

	var done strings.Builder
	for i, step := range steps {
		user := fmt.Sprintf("Objective: %s\n\nPrevious steps:\n%s\nCurrent step: %s", x.question, done.String(), step)
		out, err := x.loop(ctx, x.prompt(nil, user), false)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		x.steps = append(x.steps, Step{
			Action:      "step",
			ActionInput: step,
			Log:         fmt.Sprintf("Step %d of %d", i+1, len(steps)),
			Observation: out,
		})
		fmt.Fprintf(&done, "%d. %s\nResult: %s\n", i+1, step, out)
	}

	final := fmt.Sprintf("Question: %s\n\nSteps taken:\n%s\nRespond to the question using the results above.", x.question, done.String())
	answer, err := x.generate(ctx, x.prompt(nil, final))
	if err != nil {
		return nil, err
	}
	return map[string]string{"output": answer}, nil
}

func conversational(ctx context.Context, x *execution) (map[string]string, error) {
	history, err := x.history(ctx)
	if err != nil {
		return nil, err
	}

	if x.retriever == nil {
		answer, err := x.generate(ctx, x.prompt(history, x.question))
		if err != nil {
			return nil, err
		}
		return map[string]string{"output": answer}, nil
	}

	retrieved, err := search(ctx, x.retriever, x.question)
	if err != nil {
		return nil, err
	}
	x.steps = append(x.steps, Step{
		Action:      DocumentSearchTool,
		ActionInput: x.question,
		Log:         "Retrieved context for the question",
		Observation: retrieved,
	})

	user := fmt.Sprintf("Use the following pieces of context to answer the question at the end. If you don't know the answer, say so.\n\n%s\n\nQuestion: %s", retrieved, x.question)
	answer, err := x.generate(ctx, x.prompt(history, user))
	if err != nil {
		return nil, err
	}
	return map[string]string{"result": answer}, nil
}
