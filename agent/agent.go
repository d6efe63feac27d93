//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package agent runs the perception, decision, action and memory cycle
// around one user query. A compound-interest calculation is answered by
// walking the fixed execution plan; anything else goes through the
// model-driven decision loop. Either way the run is reported as an event
// stream.
package agent

import (
	"context"

	"trpc.group/trpc-go/compound-agent-go/event"
	"trpc.group/trpc-go/compound-agent-go/tool"
)

// Error types carried by error events.
const (
	// ErrorTypeInvalidQuery marks queries rejected by the input gate or the
	// query review.
	ErrorTypeInvalidQuery = "invalid_query_error"
	// ErrorTypePlanExecution marks plan construction or dependency failures.
	ErrorTypePlanExecution = "plan_execution_error"
	// ErrorTypeToolExecution marks failed tool invocations.
	ErrorTypeToolExecution = "tool_execution_error"
	// ErrorTypeDecision marks terminal decision source failures.
	ErrorTypeDecision = "decision_error"
)

// Info contains basic information about an agent.
type Info struct {
	Name        string
	Description string
}

// Agent is the interface the CLI and the debug server drive.
type Agent interface {
	// Run executes the invocation and returns the channel its events are
	// delivered on. The channel closes when the run ends.
	Run(ctx context.Context, invocation *Invocation) (<-chan *event.Event, error)

	// Tools lists the tool declarations available to the agent.
	Tools(ctx context.Context) ([]*tool.Declaration, error)

	// Info returns the basic information about this agent.
	Info() Info
}
