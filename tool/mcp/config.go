//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package mcp

import (
	"fmt"
	"time"

	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

// transport specifies the transport method: "stdio", "sse", "streamable".
type transport string

const (
	// transportStdio is the stdio transport.
	transportStdio transport = "stdio"
	// transportSSE is the Server-Sent Events transport.
	transportSSE transport = "sse"
	// transportStreamable is the streamable HTTP transport.
	transportStreamable transport = "streamable"
)

// defaultClientInfo identifies this client to MCP servers.
var defaultClientInfo = mcp.Implementation{
	Name:    "compound-agent-go",
	Version: "1.0.0",
}

// ConnectionConfig defines the configuration for connecting to an MCP server.
type ConnectionConfig struct {
	// Transport specifies the transport method: "stdio", "sse", "streamable".
	Transport string `json:"transport"`

	// Streamable/SSE configuration.
	ServerURL string            `json:"server_url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`

	// STDIO configuration.
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`

	// Common configuration.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Advanced configuration.
	ClientInfo mcp.Implementation `json:"client_info,omitempty"`
}

// SessionReconnectConfig controls automatic session reconnection after
// connection-level failures.
type SessionReconnectConfig struct {
	// EnableAutoReconnect enables reconnection on session errors.
	EnableAutoReconnect bool
	// MaxReconnectAttempts is the per-operation attempt budget.
	MaxReconnectAttempts int
}

// channelConfig holds internal configuration for Channel.
type channelConfig struct {
	connectionConfig ConnectionConfig
	mcpOptions       []mcp.ClientOption
	reconnectConfig  *SessionReconnectConfig
}

// Option is a function type for configuring the Channel.
type Option func(*channelConfig)

// WithMCPOptions sets additional MCP client options.
// This can be used to pass options to the underlying MCP client.
func WithMCPOptions(options ...mcp.ClientOption) Option {
	return func(c *channelConfig) {
		c.mcpOptions = append(c.mcpOptions, options...)
	}
}

const (
	minSessionReconnectAttempts = 1
	maxSessionReconnectAttempts = 10
)

// clampReconnectAttempts keeps the per-operation reconnect budget in a sane range.
func clampReconnectAttempts(attempts int) int {
	if attempts < minSessionReconnectAttempts {
		return minSessionReconnectAttempts
	}
	if attempts > maxSessionReconnectAttempts {
		return maxSessionReconnectAttempts
	}
	return attempts
}

// WithSessionReconnect enables automatic session reconnection with the given
// number of attempts per operation. Attempts are clamped to [1, 10].
func WithSessionReconnect(maxAttempts int) Option {
	return func(c *channelConfig) {
		c.reconnectConfig = &SessionReconnectConfig{
			EnableAutoReconnect:  true,
			MaxReconnectAttempts: clampReconnectAttempts(maxAttempts),
		}
	}
}

// WithSessionReconnectConfig enables automatic session reconnection with a
// full configuration. Reconnection is always enabled when this option is used
// and the attempt count is clamped to [1, 10].
func WithSessionReconnectConfig(config SessionReconnectConfig) Option {
	return func(c *channelConfig) {
		config.EnableAutoReconnect = true
		config.MaxReconnectAttempts = clampReconnectAttempts(config.MaxReconnectAttempts)
		c.reconnectConfig = &config
	}
}

// validateTransport validates the transport string and returns the internal transport type.
func validateTransport(t string) (transport, error) {
	switch t {
	case "stdio":
		return transportStdio, nil
	case "sse":
		return transportSSE, nil
	case "streamable", "streamable_http":
		return transportStreamable, nil
	default:
		return "", fmt.Errorf("unsupported transport: %s, supported: stdio, sse, streamable", t)
	}
}
