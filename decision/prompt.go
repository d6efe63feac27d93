//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package decision

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"trpc.group/trpc-go/compound-agent-go/finance"
	"trpc.group/trpc-go/compound-agent-go/memory"
	"trpc.group/trpc-go/compound-agent-go/tool"
)

const systemPromptIntro = "You are a mathematical agent solving compound interest problems. " +
	"You have access to various mathematical tools for calculations and verification."

// systemPromptProtocol is the contract part of the system prompt. The
// instruction blocks repeat the no-duplicate rule on purpose: smaller
// models drift back into re-calling finished functions without it.
const systemPromptProtocol = `You must respond with EXACTLY ONE line in one of these formats (no additional text):
1. For function calls (in JSON format):
   FUNCTION_CALL: {"function": "function_name", "params": ["param1", "param2", ...], "reasoning_type": "arithmetic|reasoning|lookup", "self_check": "What I'm checking"}

2. For final answers:
   FINAL_ANSWER: [number]

IMPORTANT INSTRUCTIONS:
- Break down the problem into logical steps
- Use appropriate tools for each calculation
- Verify your calculations at key points
- When a function returns multiple values, you need to process all of them
- Only give FINAL_ANSWER when you have completed all necessary calculations and verifications
- Do not repeat function calls with the same parameters
- If any verification fails, note it in your response
- For each step, identify the reasoning type (arithmetic, reasoning, or lookup)
- Perform internal self-checks before and after each calculation
- If you encounter uncertainty or errors, use fallback strategies
- IMPORTANT: After each function call, use the result in the next step. Do not call the same function again with the same parameters.

CRITICAL INSTRUCTION:
- You MUST follow a logical sequence of steps to solve the problem
- Each function should be called EXACTLY ONCE with the same parameters
- When you see a list of completed steps, DO NOT call any of those functions again
- Instead, use the results from previous steps to determine what to do next
- If you're unsure what to do next, review the completed steps and determine the next logical step
- NEVER call a function that has already been called with the same parameters
- If you see a function in the completed steps list, DO NOT call it again

REASONING TYPES:
- ARITHMETIC: For numerical calculations (e.g., converting rates, calculating interest)
- REASONING: For logical decisions (e.g., determining which formula to use)
- LOOKUP: For retrieving or verifying information

SELF-CHECK REQUIREMENTS:
- Before each calculation, verify that you have all necessary inputs
- After each calculation, verify that the result is reasonable
- If a result seems incorrect, use a different approach or tool to verify
- Document your self-checks in the "self_check" field of your function calls

ERROR HANDLING:
- If a calculation fails, try an alternative approach
- If a verification fails, note the issue and continue with caution
- If you're unsure about a result, use a different tool to verify
- If all else fails, provide your best estimate with a note about uncertainty

EXAMPLES:
- FUNCTION_CALL: {"function": "calculate_quarterly_rate", "params": ["0.045"], "reasoning_type": "arithmetic", "self_check": "Converting annual rate to quarterly rate"}
- FUNCTION_CALL: {"function": "verify_quarterly_rate", "params": ["0.01125", "0.045"], "reasoning_type": "reasoning", "self_check": "Verifying quarterly rate is less than annual rate"}
- FUNCTION_CALL: {"function": "calculate_compound_interest", "params": ["10000", "0.01125", "20"], "reasoning_type": "arithmetic", "self_check": "Calculating compound interest with given parameters"}
- FINAL_ANSWER: [12458.32]

DO NOT include any explanations or additional text.
Your entire response should be a single line starting with either FUNCTION_CALL: or FINAL_ANSWER:`

// closingInstruction ends every accumulated round after the first.
const closingInstruction = "\nIMPORTANT: Use the results from the previous steps. " +
	"DO NOT call any function that has already been called. What should you do next?"

// SystemPrompt builds the protocol prompt for a decision round: the agent
// persona and any extra context sections first (preferences, recent
// memory, perception), then the numbered tool list and the line protocol
// contract. Empty sections are dropped.
func SystemPrompt(decls []*tool.Declaration, sections ...string) string {
	parts := []string{systemPromptIntro}
	for _, section := range sections {
		if section = strings.TrimRight(section, "\n"); section != "" {
			parts = append(parts, section)
		}
	}
	parts = append(parts, "Available tools:\n"+ToolsDescription(decls))
	parts = append(parts, systemPromptProtocol)
	return strings.Join(parts, "\n\n")
}

// ToolsDescription renders the numbered tool list the model picks from,
// one "N. name(param: type, ...) - description" line per tool.
func ToolsDescription(decls []*tool.Declaration) string {
	if len(decls) == 0 {
		return "No tools available."
	}
	var b strings.Builder
	for i, d := range decls {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s(%s) - %s", i+1, d.Name, paramList(d), d.Description)
	}
	return b.String()
}

// paramList renders a tool's parameters in declaration order. The
// registered spec is authoritative because it carries the positional
// order; schema properties are a map, so foreign tools fall back to a
// sorted rendering to stay deterministic.
func paramList(d *tool.Declaration) string {
	if spec, ok := finance.SpecFor(d.Name); ok {
		parts := make([]string, len(spec.Params))
		for i, p := range spec.Params {
			parts[i] = p.Name + ": " + string(p.Kind)
		}
		return strings.Join(parts, ", ")
	}
	if d.InputSchema == nil || len(d.InputSchema.Properties) == 0 {
		return "no parameters"
	}
	names := make([]string, 0, len(d.InputSchema.Properties))
	for name := range d.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + d.InputSchema.Properties[name].Type
	}
	return strings.Join(parts, ", ")
}

// FormatMemoryContext renders recent memory entries as a prompt section,
// in the order given.
func FormatMemoryContext(entries []memory.Entry) string {
	var b strings.Builder
	b.WriteString("Recent Memory Context:\n")
	if len(entries) == 0 {
		b.WriteString("No recent memory entries.")
		return b.String()
	}
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s - %s", e.Timestamp.Format(time.RFC3339), e.InteractionType, renderJSON(e.Content))
	}
	return b.String()
}

// FunctionResult is one recorded tool outcome, keyed by call signature.
type FunctionResult struct {
	Key   string
	Value string
}

// Transcript accumulates the state of one decision loop: the progress
// notes fed back to the model, the completed call signatures and the
// function results. Each round's user prompt is rebuilt from it, so the
// model always sees the full history of what already ran.
type Transcript struct {
	query     string
	notes     []string
	completed []string
	seen      map[string]bool
	results   []FunctionResult
}

// NewTranscript starts a transcript for one query.
func NewTranscript(query string) *Transcript {
	return &Transcript{query: query, seen: make(map[string]bool)}
}

// Query returns the original query text.
func (t *Transcript) Query() string {
	return t.query
}

// Completed reports whether a call with this signature already ran.
func (t *Transcript) Completed(key string) bool {
	return t.seen[key]
}

// CompletedKeys returns the completed call signatures in call order.
func (t *Transcript) CompletedKeys() []string {
	out := make([]string, len(t.completed))
	copy(out, t.completed)
	return out
}

// Results returns the recorded function results in call order.
func (t *Transcript) Results() []FunctionResult {
	out := make([]FunctionResult, len(t.results))
	copy(out, t.results)
	return out
}

// RecordCall records a successful tool call: the model's self check and
// the outcome join the next round's context, and the signature joins the
// completed set. iteration is 1-based.
func (t *Transcript) RecordCall(iteration int, d *Decision, result string) {
	t.notes = append(t.notes, "Self-check: "+d.Reasoning)
	t.notes = append(t.notes, fmt.Sprintf(
		"In the %d iteration you called %s with %s parameters, and the function returned %s. "+
			"Reasoning type: %s. Now you should use this result in the next step. "+
			"Do not call %s again with the same parameters.",
		iteration, d.ToolName, renderJSON(d.ToolArgs), result, d.NextAction, d.ToolName))
	key := d.Key()
	if !t.seen[key] {
		t.seen[key] = true
		t.completed = append(t.completed, key)
		t.results = append(t.results, FunctionResult{Key: key, Value: result})
	}
}

// RecordDuplicate notes a repeated call so the next round steers the
// model past it.
func (t *Transcript) RecordDuplicate(d *Decision) {
	t.notes = append(t.notes, fmt.Sprintf(
		"Function %s with parameters %v has already been called. Please move to the next step.",
		d.ToolName, d.Params))
}

// UserPrompt renders the accumulated query for the next round. The first
// round is the bare query; later rounds append the progress notes, the
// completed-call list and the collected results.
func (t *Transcript) UserPrompt() string {
	var b strings.Builder
	b.WriteString("Query: ")
	b.WriteString(t.query)
	if len(t.notes) == 0 {
		return b.String()
	}
	b.WriteString("\n\n")
	b.WriteString(strings.Join(t.notes, " "))
	if len(t.completed) > 0 {
		b.WriteString("\n\nCOMPLETED STEPS (DO NOT CALL THESE FUNCTIONS AGAIN):\n")
		for _, key := range t.completed {
			b.WriteString("- " + key + "\n")
		}
	}
	if len(t.results) > 0 {
		b.WriteString("\nFUNCTION RESULTS (USE THESE IN YOUR CALCULATIONS):\n")
		for _, r := range t.results {
			b.WriteString("- " + r.Key + ": " + r.Value + "\n")
		}
	}
	b.WriteString(closingInstruction)
	return b.String()
}

// renderJSON renders a content map compactly for prompt text. Map keys
// marshal sorted, so the rendering is stable.
func renderJSON(m map[string]any) string {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return string(data)
}
