//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package mcp provides a tool channel backed by a remote MCP server. The
// channel connects lazily, caches the server's tool declarations and retries
// operations through automatic session reconnection when the transport drops.
package mcp

import (
	"context"
	"sync"

	"trpc.group/trpc-go/compound-agent-go/tool"
)

// Channel is a tool.Channel whose tools live behind an MCP server. It holds a
// single managed session and exposes the server's tools to the agent.
type Channel struct {
	session      *sessionManager
	mu           sync.RWMutex
	declarations []*tool.Declaration
}

var _ tool.Channel = (*Channel)(nil)

// NewChannel creates a channel for the given connection configuration.
// The connection itself is established on first use.
func NewChannel(config ConnectionConfig, opts ...Option) (*Channel, error) {
	if _, err := validateTransport(config.Transport); err != nil {
		return nil, err
	}

	cfg := &channelConfig{connectionConfig: config}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Channel{
		session: newSessionManager(cfg.connectionConfig, cfg.mcpOptions, cfg.reconnectConfig),
	}, nil
}

// ensureConnected establishes the MCP session if it is not already up.
func (c *Channel) ensureConnected(ctx context.Context) error {
	if c.session.isConnected() {
		return nil
	}
	return c.session.connect(ctx)
}

// Tools implements the Channel interface. Declarations are fetched from the
// server once and cached for subsequent calls.
func (c *Channel) Tools(ctx context.Context) ([]*tool.Declaration, error) {
	c.mu.RLock()
	if c.declarations != nil {
		cached := c.declarations
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	mcpTools, err := c.session.listTools(ctx)
	if err != nil {
		return nil, err
	}

	declarations := make([]*tool.Declaration, 0, len(mcpTools))
	for _, mcpTool := range mcpTools {
		declarations = append(declarations, convertTool(mcpTool))
	}

	c.mu.Lock()
	c.declarations = declarations
	c.mu.Unlock()
	return declarations, nil
}

// Invoke implements the Channel interface. The tool result is the text
// content returned by the server; failures are reported as *tool.InvocationError.
func (c *Channel) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, &tool.InvocationError{Tool: name, Args: args, Err: err}
	}

	content, err := c.session.callTool(ctx, name, args)
	if err != nil {
		return nil, &tool.InvocationError{Tool: name, Args: args, Err: err}
	}

	text, err := extractTextContent(content)
	if err != nil {
		return nil, &tool.InvocationError{Tool: name, Args: args, Err: err}
	}
	return text, nil
}

// Close implements the Channel interface.
func (c *Channel) Close() error {
	return c.session.close()
}
