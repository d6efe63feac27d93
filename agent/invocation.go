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
	"github.com/google/uuid"

	"trpc.group/trpc-go/compound-agent-go/model"
)

// Invocation is one query run through the agent.
type Invocation struct {
	// InvocationID identifies the run; events carry it.
	InvocationID string
	// AgentName is the author stamped on emitted events. Filled from the
	// agent when empty.
	AgentName string
	// Message carries the user query.
	Message model.Message
}

// NewInvocation returns an invocation for the given query with a
// generated ID.
func NewInvocation(query string) *Invocation {
	return &Invocation{
		InvocationID: uuid.New().String(),
		Message:      model.NewUserMessage(query),
	}
}
