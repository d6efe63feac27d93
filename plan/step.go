//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package plan

import (
	"sort"
	"strings"

	"trpc.group/trpc-go/compound-agent-go/finance"
)

// Arg is one argument of a step: either a literal value or a reference
// to the result of an earlier step. References are resolved when the
// step is next in line, never earlier.
type Arg struct {
	// Literal is the argument value when FromStep is empty.
	Literal any `json:"literal,omitempty"`
	// FromStep names the step whose recorded result fills this argument.
	FromStep string `json:"from_step,omitempty"`
}

// Literal returns an Arg carrying a fixed value.
func Literal(v any) Arg {
	return Arg{Literal: v}
}

// FromStep returns an Arg that resolves to the result of the named step.
func FromStep(id string) Arg {
	return Arg{FromStep: id}
}

// Step describes one planned tool invocation.
type Step struct {
	// ID is unique within a plan. The fixed plan uses the tool name.
	ID string `json:"id"`
	// Tool is the wire name of the tool to invoke.
	Tool string `json:"tool"`
	// Args maps parameter names to literal values or step references.
	Args map[string]Arg `json:"args"`
	// Rationale says why the step is part of the plan.
	Rationale string `json:"rationale"`
}

// Signature identifies a tool invocation by its tool name and fully
// resolved arguments. Two invocations with the same signature are the
// same work: the engine never executes a signature twice. Arguments must
// already be canonical (see finance.ParseArguments), otherwise numeric
// aliases of the same call would sign differently.
func Signature(toolName string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(toolName)
	sb.WriteByte('(')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(finance.FormatValue(args[k]))
	}
	sb.WriteByte(')')
	return sb.String()
}
