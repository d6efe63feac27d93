//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package schema defines the JSON request and response bodies of the debug
// HTTP server. These types are internal and exist only to facilitate
// request/response marshalling.
package schema

// RunRequest asks the server to run a registered agent on one query.
type RunRequest struct {
	AppName   string `json:"appName"`
	Query     string `json:"query"`
	Streaming bool   `json:"streaming"`
}

// RunError carries a run failure to the client.
type RunError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RunEvent is the flattened wire form of one agent event.
type RunEvent struct {
	ID           string `json:"id"`
	InvocationID string `json:"invocationId"`
	Author       string `json:"author"`
	// Object says what kind of event this is, e.g. "plan.step".
	Object    string    `json:"object,omitempty"`
	Done      bool      `json:"done"`
	Timestamp int64     `json:"timestamp"`
	Content   string    `json:"content,omitempty"`
	Error     *RunError `json:"error,omitempty"`
	// Payload is the event's structured output, when it has one: the
	// perception result, a plan step outcome or a tool outcome.
	Payload any `json:"payload,omitempty"`
}

// Status is a minimal acknowledgement body.
type Status struct {
	Status string `json:"status"`
}
