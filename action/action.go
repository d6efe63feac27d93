//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package action executes decided tool calls over an invocation channel
// and normalizes their results. Every execution produces a structured
// Outcome carrying the tool name and arguments, so callers can report
// exactly what was attempted whether the call succeeded or not.
package action

import (
	"context"

	"trpc.group/trpc-go/compound-agent-go/finance"
	"trpc.group/trpc-go/compound-agent-go/log"
	"trpc.group/trpc-go/compound-agent-go/tool"
)

// Outcome is the structured result of one tool invocation.
type Outcome struct {
	// Success reports whether the invocation ran and returned a usable
	// result.
	Success bool `json:"success"`

	// Tool is the name of the invoked tool.
	Tool string `json:"tool"`

	// Args are the arguments the tool was invoked with.
	Args map[string]any `json:"args,omitempty"`

	// Result is the result coerced to the tool's declared kind: float64
	// for numbers, int for integers, bool for the verifier tools. Tools
	// without a registered spec keep their raw result.
	Result any `json:"result,omitempty"`

	// Text is the wire form of the result, as it enters transcripts and
	// memory entries.
	Text string `json:"text,omitempty"`

	// Error describes the failure when Success is false.
	Error string `json:"error,omitempty"`
}

// Executor runs tool calls over an invocation channel.
type Executor struct {
	channel tool.Channel
}

// NewExecutor creates an executor over the given channel.
func NewExecutor(channel tool.Channel) *Executor {
	return &Executor{channel: channel}
}

// Execute invokes one tool and normalizes the result. It never returns an
// error: failures come back as an unsuccessful Outcome so the run stops
// with a report instead of a stack trace.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) *Outcome {
	out := &Outcome{Tool: name, Args: args}

	raw, err := e.channel.Invoke(ctx, name, args)
	if err != nil {
		log.Errorf("action: tool %s failed: %v", name, err)
		out.Error = err.Error()
		return out
	}

	value := raw
	if _, known := finance.SpecFor(name); known {
		value, err = finance.NormalizeResult(name, raw)
		if err != nil {
			log.Errorf("action: tool %s returned an unusable result: %v", name, err)
			out.Error = err.Error()
			return out
		}
	}

	out.Success = true
	out.Result = value
	out.Text = finance.FormatValue(value)
	log.Debugf("action: tool %s returned %s", name, out.Text)
	return out
}
