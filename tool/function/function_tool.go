//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package function wraps plain Go functions as callable tools.
package function

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	ischema "trpc.group/trpc-go/compound-agent-go/internal/schema"
	"trpc.group/trpc-go/compound-agent-go/tool"
)

// Validatable is implemented by argument structs that carry their own
// validation. Call runs it after unmarshaling and before the function.
type Validatable interface {
	Validate() error
}

// FunctionTool implements the CallableTool interface for executing functions with arguments.
// It provides a generic way to wrap any function as a tool that can be called
// with JSON arguments and returns results.
type FunctionTool[I, O any] struct {
	name         string
	description  string
	inputSchema  *tool.Schema
	outputSchema *tool.Schema
	fn           func(I) O
}

// Option is a function that configures a FunctionTool.
type Option func(*functionToolOptions)

// functionToolOptions holds the configuration options for FunctionTool.
type functionToolOptions struct {
	name        string
	description string
}

// WithName sets the name of the function tool.
func WithName(name string) Option {
	return func(opts *functionToolOptions) {
		opts.name = name
	}
}

// WithDescription sets the description of the function tool.
func WithDescription(description string) Option {
	return func(opts *functionToolOptions) {
		opts.description = description
	}
}

// New creates a FunctionTool wrapping fn. The input and output schemas are
// derived from the type parameters.
func New[I, O any](fn func(I) O, opts ...Option) *FunctionTool[I, O] {
	options := &functionToolOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var (
		emptyI I
		emptyO O
	)
	return &FunctionTool[I, O]{
		name:         options.name,
		description:  options.description,
		fn:           fn,
		inputSchema:  ischema.Generate(reflect.TypeOf(emptyI)),
		outputSchema: ischema.Generate(reflect.TypeOf(emptyO)),
	}
}

// Call executes the function tool with the provided JSON arguments.
// It unmarshals the given arguments into the tool's input type, runs the
// input's own validation when present, then calls the underlying function.
func (ft *FunctionTool[I, O]) Call(_ context.Context, jsonArgs []byte) (any, error) {
	var input I
	if err := json.Unmarshal(jsonArgs, &input); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arguments for %s: %w", ft.name, err)
	}
	if v, ok := any(input).(Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", ft.name, err)
		}
	}
	return ft.fn(input), nil
}

// Declaration returns the tool's declaration information.
func (ft *FunctionTool[I, O]) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:         ft.name,
		Description:  ft.description,
		InputSchema:  ft.inputSchema,
		OutputSchema: ft.outputSchema,
	}
}
