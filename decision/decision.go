//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package decision implements the line protocol between the agent and its
// language model. The model answers every round with exactly one line,
// either a FUNCTION_CALL carrying a JSON payload or a FINAL_ANSWER, and
// this package builds the prompts for those rounds and parses the replies
// into Decision values the agent loop can act on. Anything the model sends
// that cannot be understood becomes an error_handling decision rather than
// an error, so a confused model stops the run instead of crashing it.
package decision

import (
	"fmt"
	"strings"
)

// Terminal actions. A tool call decision carries the model's reasoning
// type (arithmetic, reasoning or lookup) as its action instead.
const (
	// ActionFinalAnswer means the model answered the query.
	ActionFinalAnswer = "final_answer"
	// ActionErrorHandling means the round failed and the run should stop.
	ActionErrorHandling = "error_handling"
	// ActionCalculationComplete means every plan step has run.
	ActionCalculationComplete = "calculation_complete"
	// ActionMaxIterationsReached means the loop hit its iteration cap.
	ActionMaxIterationsReached = "max_iterations_reached"
)

// DefaultMaxIterations caps the free-text decision loop.
const DefaultMaxIterations = 15

// Decision is the parsed outcome of one decision round.
type Decision struct {
	// NextAction labels what the agent should do next: the reasoning type
	// of a chosen tool call, or one of the terminal actions.
	NextAction string `json:"next_action"`

	// ToolName is the tool to invoke. Empty unless a tool call was chosen.
	ToolName string `json:"tool_name,omitempty"`

	// ToolArgs are the named, typed arguments for the tool, mapped from
	// the positional params by the tool's declared parameter order.
	ToolArgs map[string]any `json:"tool_args,omitempty"`

	// Params are the raw positional parameters as the model sent them.
	// They feed the call signature, so they stay in wire form.
	Params []string `json:"params,omitempty"`

	// Reasoning is the model's self check for a tool call, or the failure
	// description for an error_handling decision.
	Reasoning string `json:"reasoning,omitempty"`

	// FinalAnswer carries the answer text of a final_answer decision.
	FinalAnswer string `json:"final_answer,omitempty"`
}

// IsToolCall reports whether the decision names a tool to invoke.
func (d *Decision) IsToolCall() bool {
	return d.ToolName != ""
}

// Terminal reports whether the decision ends the loop.
func (d *Decision) Terminal() bool {
	switch d.NextAction {
	case ActionFinalAnswer, ActionErrorHandling, ActionCalculationComplete, ActionMaxIterationsReached:
		return true
	default:
		return false
	}
}

// Key returns the call signature of a tool call decision.
func (d *Decision) Key() string {
	return ActionKey(d.ToolName, d.Params)
}

// ActionKey builds the signature used to deduplicate repeated calls: the
// tool name joined with its raw positional parameters.
func ActionKey(tool string, params []string) string {
	return tool + "_" + strings.Join(params, ",")
}

// MaxIterations returns the terminal decision for an exhausted loop.
func MaxIterations() *Decision {
	return &Decision{
		NextAction: ActionMaxIterationsReached,
		Reasoning:  "Maximum number of iterations reached. Stopping to prevent infinite loops.",
	}
}

// CalculationComplete returns the terminal decision for a finished plan.
func CalculationComplete() *Decision {
	return &Decision{
		NextAction: ActionCalculationComplete,
		Reasoning:  "All calculation steps have been completed.",
	}
}

func errorHandling(format string, args ...any) *Decision {
	return &Decision{
		NextAction: ActionErrorHandling,
		Reasoning:  fmt.Sprintf(format, args...),
	}
}
