// Package compiler aggregates the results collected during a run into a
// report: one section per agent, the failed steps and the business
// identifiers that several agents mention.
package compiler

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/internal/clock"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

// Identifier kinds extracted for cross-referencing.
const (
	KindPurchaseOrder = "purchase_order"
	KindInvoice       = "invoice"
	KindEmail         = "email"
	KindAmount        = "amount"
)

// Pattern extracts one identifier kind from free text.
type Pattern struct {
	Kind      string
	Expr      *regexp.Regexp
	Normalize func(match string) string
}

var digits = regexp.MustCompile(`\d+`)

func prefixed(prefix string) func(string) string {
	return func(match string) string {
		return prefix + "-" + digits.FindString(match)
	}
}

// DefaultPatterns recognises PO numbers, invoice numbers, e-mail addresses and
// dollar amounts.
func DefaultPatterns() []*Pattern {
	return []*Pattern{
		{Kind: KindPurchaseOrder, Expr: regexp.MustCompile(`(?i)\bPO[-\s#]?\d{3,}\b`), Normalize: prefixed("PO")},
		{Kind: KindInvoice, Expr: regexp.MustCompile(`(?i)\bINV[-\s#]?\d{3,}\b`), Normalize: prefixed("INV")},
		{Kind: KindEmail, Expr: regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), Normalize: strings.ToLower},
		{Kind: KindAmount, Expr: regexp.MustCompile(`\$\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})?|\$\s?\d+(?:\.\d{2})?`), Normalize: func(m string) string {
			return strings.ReplaceAll(m, " ", "")
		}},
	}
}

// Service compiles reports.
type Service struct {
	patterns []*Pattern
}

// New creates a compiler; without patterns DefaultPatterns are used.
func New(patterns ...*Pattern) *Service {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	return &Service{patterns: patterns}
}

// Compile builds the report for a run.
func (s *Service) Compile(ctx context.Context, task string, collected *workflow.CollectedData, log []*workflow.LogEntry) (*workflow.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compile results: %w", err)
	}
	report := &workflow.Report{
		TaskDescription: task,
		Sections:        []*workflow.Section{},
		CompiledAt:      clock.Now(),
	}

	occurrences := map[agent.ID]int{}
	for _, entry := range log {
		if entry.Failed() {
			copied := *entry
			report.Failures = append(report.Failures, &copied)
			continue
		}
		occurrences[entry.Agent]++
	}

	refs := map[string]*workflow.CrossReference{}
	for _, id := range collected.Keys() {
		env, _ := collected.Get(id)
		report.Sections = append(report.Sections, section(id, env, occurrences[id]))
		var texts []string
		if env != nil {
			texts = flatten(env.Data, append(texts, env.Message))
		}
		for _, text := range texts {
			s.extract(id, text, refs)
		}
	}
	report.CrossReferences = sortedRefs(refs)
	report.Summary = summarize(report)
	return report, nil
}

func section(id agent.ID, env *agent.Envelope, occurrences int) *workflow.Section {
	ret := &workflow.Section{Agent: id, Occurrences: occurrences}
	if env == nil {
		return ret
	}
	ret.Success = env.Success
	ret.Message = env.Message
	for k := range env.Data {
		ret.Fields = append(ret.Fields, k)
	}
	sort.Strings(ret.Fields)
	return ret
}

func (s *Service) extract(id agent.ID, text string, refs map[string]*workflow.CrossReference) {
	for _, p := range s.patterns {
		for _, match := range p.Expr.FindAllString(text, -1) {
			value := match
			if p.Normalize != nil {
				value = p.Normalize(match)
			}
			key := p.Kind + "|" + value
			ref, ok := refs[key]
			if !ok {
				ref = &workflow.CrossReference{Kind: p.Kind, Value: value}
				refs[key] = ref
			}
			if !containsAgent(ref.Agents, id) {
				ref.Agents = append(ref.Agents, id)
			}
		}
	}
}

func containsAgent(ids []agent.ID, id agent.ID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// flatten appends every string and number found in v.
func flatten(v interface{}, acc []string) []string {
	switch actual := v.(type) {
	case string:
		return append(acc, actual)
	case map[string]interface{}:
		keys := make([]string, 0, len(actual))
		for k := range actual {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			acc = flatten(actual[k], acc)
		}
	case []interface{}:
		for _, item := range actual {
			acc = flatten(item, acc)
		}
	case []string:
		acc = append(acc, actual...)
	case []map[string]interface{}:
		for _, item := range actual {
			acc = flatten(item, acc)
		}
	case nil, bool:
	default:
		acc = append(acc, fmt.Sprint(actual))
	}
	return acc
}

func sortedRefs(refs map[string]*workflow.CrossReference) []*workflow.CrossReference {
	ret := make([]*workflow.CrossReference, 0, len(refs))
	for _, ref := range refs {
		ret = append(ret, ref)
	}
	sort.Slice(ret, func(i, j int) bool {
		if len(ret[i].Agents) != len(ret[j].Agents) {
			return len(ret[i].Agents) > len(ret[j].Agents)
		}
		if ret[i].Kind != ret[j].Kind {
			return ret[i].Kind < ret[j].Kind
		}
		return ret[i].Value < ret[j].Value
	})
	return ret
}

func summarize(r *workflow.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", r.TaskDescription)
	if len(r.Sections) == 0 {
		b.WriteString("No agent results were collected.\n")
	}
	for _, s := range r.Sections {
		status := "ok"
		if !s.Success {
			status = "unsuccessful"
		}
		fmt.Fprintf(&b, "- %s [%s]: %s\n", s.Agent, status, describe(s))
	}
	if len(r.Failures) > 0 {
		b.WriteString("Failures:\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "- %s (step %d): %s\n", f.Agent, f.StepIndex+1, f.Error)
		}
	}
	var shared []string
	for _, ref := range r.CrossReferences {
		if len(ref.Agents) < 2 {
			continue
		}
		names := make([]string, len(ref.Agents))
		for i, id := range ref.Agents {
			names[i] = string(id)
		}
		shared = append(shared, fmt.Sprintf("- %s %s: %s", ref.Kind, ref.Value, strings.Join(names, ", ")))
	}
	if len(shared) > 0 {
		b.WriteString("Cross-references:\n")
		b.WriteString(strings.Join(shared, "\n"))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func describe(s *workflow.Section) string {
	if s.Message != "" {
		return s.Message
	}
	if len(s.Fields) == 0 {
		return "no data"
	}
	return strings.Join(s.Fields, ", ")
}
