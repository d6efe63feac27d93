//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package event provides the event stream the agent emits while running:
// model output, plan step progress, tool results and the final answer, in
// the order they happen. The CLI and the debug server both render this
// stream.
package event

import (
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/compound-agent-go/model"
)

// Event is one step of an invocation's output stream.
type Event struct {
	// Response is the base struct for all model response functionality.
	*model.Response

	// InvocationID is the invocation the event belongs to.
	InvocationID string `json:"invocationId"`

	// Author is who produced the event: the user, the agent, or a tool.
	Author string `json:"author"`

	// ID is the unique identifier of the event.
	ID string `json:"id"`

	// Timestamp is when the event was created.
	Timestamp time.Time `json:"timestamp"`

	// StructuredOutput carries a typed, in-memory payload such as a plan
	// step outcome. It is not serialized and is meant for immediate
	// consumer access.
	StructuredOutput any `json:"-"`
}

// Clone creates a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Response = e.Response.Clone()
	return &clone
}

// New creates a new Event with generated ID and timestamp.
func New(invocationID, author string, opts ...Option) *Event {
	e := &Event{
		Response:     &model.Response{},
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		InvocationID: invocationID,
		Author:       author,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewErrorEvent creates a new error Event with the specified error details.
// This provides a clean way to create error events without manual field
// assignment.
func NewErrorEvent(invocationID, author, errorType, errorMessage string) *Event {
	return &Event{
		Response: &model.Response{
			Object: model.ObjectTypeError,
			Done:   true,
			Error: &model.ResponseError{
				Type:    errorType,
				Message: errorMessage,
			},
		},
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		InvocationID: invocationID,
		Author:       author,
	}
}

// NewResponseEvent creates a new Event from a model Response.
func NewResponseEvent(invocationID, author string, response *model.Response) *Event {
	return &Event{
		Response:     response,
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		InvocationID: invocationID,
		Author:       author,
	}
}
