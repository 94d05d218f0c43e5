// Package planner turns a task description into the ordered agent sequence
// a run executes.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

// ErrEmptyPlan is returned when a planner answers without any agent.
var ErrEmptyPlan = errors.New("planner: empty plan")

// Planner produces an agent sequence for a task.
type Planner interface {
	Plan(ctx context.Context, task string) (agent.Sequence, error)
}

// Func adapts a function to Planner.
type Func func(ctx context.Context, task string) (agent.Sequence, error)

func (f Func) Plan(ctx context.Context, task string) (agent.Sequence, error) { return f(ctx, task) }

// Static always answers with the same sequence.
type Static agent.Sequence

func (s Static) Plan(_ context.Context, _ string) (agent.Sequence, error) {
	return agent.Sequence(s).Clone(), nil
}

// Text adapts a planner that answers in free text, typically a language
// model, by parsing its answer with ParseSequence.
func Text(fn func(ctx context.Context, task string) (string, error)) Planner {
	return Func(func(ctx context.Context, task string) (agent.Sequence, error) {
		answer, err := fn(ctx, task)
		if err != nil {
			return nil, err
		}
		return ParseSequence(answer)
	})
}

// ParseSequence parses a planner answer: a JSON array of agent names, a JSON
// object with an "agents" array, or a comma/arrow separated list. Code
// fences around the answer are ignored.
func ParseSequence(text string) (agent.Sequence, error) {
	text = strings.TrimSpace(stripFence(text))
	if text == "" {
		return nil, ErrEmptyPlan
	}
	var names []string
	switch text[0] {
	case '[':
		if err := json.Unmarshal([]byte(text), &names); err != nil {
			return nil, fmt.Errorf("planner: invalid JSON plan: %w", err)
		}
	case '{':
		var envelope struct {
			Agents []string `json:"agents"`
		}
		if err := json.Unmarshal([]byte(text), &envelope); err != nil {
			return nil, fmt.Errorf("planner: invalid JSON plan: %w", err)
		}
		names = envelope.Agents
	default:
		replacer := strings.NewReplacer("→", ",", "->", ",", "\n", ",", ";", ",")
		for _, item := range strings.Split(replacer.Replace(text), ",") {
			if item = strings.TrimSpace(item); item != "" {
				names = append(names, item)
			}
		}
	}
	if len(names) == 0 {
		return nil, ErrEmptyPlan
	}
	seq, err := agent.ParseSequence(names)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	return seq, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.Index(text, "\n"); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(text), "```")
}
