//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"fmt"

	"trpc.group/trpc-go/compound-agent-go/action"
	"trpc.group/trpc-go/compound-agent-go/event"
	"trpc.group/trpc-go/compound-agent-go/model"
	"trpc.group/trpc-go/compound-agent-go/perception"
)

// StepOutcome is the structured payload of a plan step event.
type StepOutcome struct {
	// StepID is the plan step that ran.
	StepID string `json:"step_id"`
	// Tool is the invoked tool.
	Tool string `json:"tool"`
	// Args are the resolved arguments.
	Args map[string]any `json:"args"`
	// Rationale says why the step is part of the plan.
	Rationale string `json:"rationale"`
	// Signature identifies the invocation in the run's history.
	Signature string `json:"signature"`
	// Result is the normalized tool result.
	Result any `json:"result"`
	// Text is the result rendered for display.
	Text string `json:"text"`
	// Index is the 1-based position of the step, Total the plan length.
	Index int `json:"index"`
	Total int `json:"total"`
}

func newPerceptionEvent(inv *Invocation, per *perception.Result) *event.Event {
	content := fmt.Sprintf("Intent: %s (confidence %.1f)", per.Intent, per.Confidence)
	return event.New(inv.InvocationID, inv.AgentName,
		event.WithResponse(contentResponse(model.ObjectTypePerception, content, false)),
		event.WithStructuredOutputPayload(per),
	)
}

func newPlanStepEvent(inv *Invocation, outcome *StepOutcome) *event.Event {
	content := fmt.Sprintf("%s = %s", outcome.Signature, outcome.Text)
	return event.New(inv.InvocationID, inv.AgentName,
		event.WithResponse(contentResponse(model.ObjectTypePlanStep, content, false)),
		event.WithStructuredOutputPayload(outcome),
	)
}

func newToolEvent(inv *Invocation, outcome *action.Outcome, signature string) *event.Event {
	content := fmt.Sprintf("%s = %s", signature, outcome.Text)
	return event.New(inv.InvocationID, inv.AgentName,
		event.WithResponse(contentResponse(model.ObjectTypeToolResponse, content, false)),
		event.WithStructuredOutputPayload(outcome),
	)
}

func newFinalEvent(inv *Invocation, answer string) *event.Event {
	return event.New(inv.InvocationID, inv.AgentName,
		event.WithResponse(contentResponse(model.ObjectTypeChatCompletion, answer, true)),
	)
}

func contentResponse(object, content string, done bool) *model.Response {
	return &model.Response{
		Object: object,
		Done:   done,
		Choices: []model.Choice{
			{Message: model.NewAssistantMessage(content)},
		},
	}
}
