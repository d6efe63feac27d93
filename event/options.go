//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package event

import (
	"trpc.group/trpc-go/compound-agent-go/model"
)

// Option is a function that can be used to configure the Event.
type Option func(*Event)

// WithResponse sets the response for the event.
func WithResponse(response *model.Response) Option {
	return func(e *Event) {
		e.Response = response
	}
}

// WithObject sets the object for the event.
func WithObject(o string) Option {
	return func(e *Event) {
		e.Object = o
	}
}

// WithStructuredOutputPayload sets a typed structured output payload on the
// event. This data is not serialized and is intended for immediate
// consumption.
func WithStructuredOutputPayload(payload any) Option {
	return func(e *Event) {
		e.StructuredOutput = payload
	}
}
