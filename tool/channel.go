//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrToolNotFound reports that the channel has no tool with the requested
// name. Check for it with errors.Is.
var ErrToolNotFound = errors.New("tool not found")

// InvocationError wraps a failed tool invocation with the tool name and the
// arguments that triggered it, so callers can surface a structured failure.
type InvocationError struct {
	Tool string
	Args map[string]any
	Err  error
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool %s invocation failed: %v", e.Tool, e.Err)
}

// Unwrap supports errors.Is/errors.As on the wrapped cause.
func (e *InvocationError) Unwrap() error { return e.Err }

// Channel executes named tools with arguments and lists the tools it serves.
// It is the boundary between the agent and wherever the tools actually run,
// in process or behind an MCP server.
type Channel interface {
	// Tools returns the declarations of every tool reachable through the
	// channel, in a stable order.
	Tools(ctx context.Context) ([]*Declaration, error)

	// Invoke executes the named tool with the given arguments and returns
	// its raw result. Failures are reported as *InvocationError.
	Invoke(ctx context.Context, name string, args map[string]any) (any, error)

	// Close releases any resources held by the channel.
	Close() error
}

// LocalChannel serves callable tools in process. It preserves registration
// order for listing.
type LocalChannel struct {
	order []string
	tools map[string]CallableTool
}

// NewLocalChannel creates a channel over the given tools. Later registrations
// win on name conflicts.
func NewLocalChannel(tools ...CallableTool) *LocalChannel {
	c := &LocalChannel{tools: make(map[string]CallableTool, len(tools))}
	for _, t := range tools {
		name := t.Declaration().Name
		if _, exists := c.tools[name]; !exists {
			c.order = append(c.order, name)
		}
		c.tools[name] = t
	}
	return c
}

// Tools implements the Channel interface.
func (c *LocalChannel) Tools(_ context.Context) ([]*Declaration, error) {
	declarations := make([]*Declaration, 0, len(c.order))
	for _, name := range c.order {
		declarations = append(declarations, c.tools[name].Declaration())
	}
	return declarations, nil
}

// Invoke implements the Channel interface.
func (c *LocalChannel) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	t, ok := c.tools[name]
	if !ok {
		return nil, &InvocationError{Tool: name, Args: args, Err: ErrToolNotFound}
	}
	jsonArgs, err := json.Marshal(args)
	if err != nil {
		return nil, &InvocationError{Tool: name, Args: args, Err: fmt.Errorf("failed to marshal arguments: %w", err)}
	}
	result, err := t.Call(ctx, jsonArgs)
	if err != nil {
		return nil, &InvocationError{Tool: name, Args: args, Err: err}
	}
	return result, nil
}

// Close implements the Channel interface.
func (c *LocalChannel) Close() error { return nil }
