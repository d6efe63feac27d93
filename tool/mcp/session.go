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
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/compound-agent-go/log"
)

// sessionReconnectErrorPatterns defines error patterns that trigger session reconnection.
// Conservative approach: only reconnect for clear connection/session failures.
// Configuration errors (DNS) and potential performance issues (timeout) are excluded.
var sessionReconnectErrorPatterns = []string{
	"session_expired:",       // Explicit session expiration from transport layer
	"transport is closed",    // Transport layer closed
	"client not initialized", // MCP client not initialized
	"not initialized",        // Generic initialization error
	"connection refused",     // Server not reachable (possibly restarting)
	"connection reset",       // Connection reset by peer
	"EOF",                    // End of file (stream closed)
	"broken pipe",            // Broken connection
	"HTTP 404",               // Session not found on server
	"session not found",      // Explicit session not found error
}

// sessionManager manages the MCP client connection and session.
type sessionManager struct {
	config          ConnectionConfig
	mcpOptions      []mcp.ClientOption
	reconnectConfig *SessionReconnectConfig
	client          mcp.Connector
	mu              sync.RWMutex
	connected       bool
	initialized     bool
	reconnectGroup  singleflight.Group // Ensures only one reconnection happens at a time
}

// newSessionManager creates a new MCP session manager.
func newSessionManager(config ConnectionConfig, mcpOptions []mcp.ClientOption, reconnectConfig *SessionReconnectConfig) *sessionManager {
	return &sessionManager{
		config:          config,
		mcpOptions:      mcpOptions,
		reconnectConfig: reconnectConfig,
	}
}

// connect establishes connection to the MCP server.
func (m *sessionManager) connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return nil
	}

	log.Debugf("Connecting to MCP server (transport=%s)", m.config.Transport)

	client, err := m.createClient()
	if err != nil {
		return fmt.Errorf("failed to create MCP client: %w", err)
	}

	m.client = client
	m.connected = true

	// Initialize the session.
	if err := m.initialize(ctx); err != nil {
		m.connected = false
		if closeErr := client.Close(); closeErr != nil {
			log.Errorf("Failed to close client after initialization failure (close_error=%v, error=%v)", closeErr, err)
		}
		return fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	log.Debug("Successfully connected to MCP server")
	return nil
}

// createClient creates the appropriate MCP client based on transport configuration.
func (m *sessionManager) createClient() (mcp.Connector, error) {
	clientInfo := m.config.ClientInfo
	if clientInfo.Name == "" {
		clientInfo = defaultClientInfo
	}

	transportType, err := validateTransport(m.config.Transport)
	if err != nil {
		return nil, err
	}

	switch transportType {
	case transportStdio:
		config := mcp.StdioTransportConfig{
			ServerParams: mcp.StdioServerParameters{
				Command: m.config.Command,
				Args:    m.config.Args,
			},
			Timeout: m.config.Timeout,
		}
		return mcp.NewStdioClient(config, clientInfo)

	case transportSSE:
		return mcp.NewSSEClient(m.config.ServerURL, clientInfo, m.clientOptions()...)

	case transportStreamable:
		return mcp.NewClient(m.config.ServerURL, clientInfo, m.clientOptions()...)

	default:
		return nil, fmt.Errorf("unsupported transport: %s", m.config.Transport)
	}
}

// clientOptions assembles the options for the HTTP based transports.
func (m *sessionManager) clientOptions() []mcp.ClientOption {
	var options []mcp.ClientOption
	if len(m.config.Headers) > 0 {
		headers := http.Header{}
		for k, v := range m.config.Headers {
			headers.Set(k, v)
		}
		options = append(options, mcp.WithHTTPHeaders(headers))
	}
	if len(m.mcpOptions) > 0 {
		options = append(options, m.mcpOptions...)
	}
	return options
}

// createTimeoutContext creates a context with timeout if configured and no existing deadline.
// Returns the context and a cancel function. The caller should defer the cancel function.
func (m *sessionManager) createTimeoutContext(ctx context.Context, operation string) (context.Context, context.CancelFunc) {
	if m.config.Timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			timeoutCtx, cancel := context.WithTimeout(ctx, m.config.Timeout)
			log.Debugf("Applied MCP timeout (timeout=%v, operation=%s)", m.config.Timeout, operation)
			return timeoutCtx, cancel
		}
	}
	return ctx, func() {} // Return no-op cancel function for consistency.
}

// initialize initializes the MCP session.
func (m *sessionManager) initialize(ctx context.Context) error {
	if m.initialized {
		return nil
	}

	log.Debug("Initializing MCP session")

	initCtx, cancel := m.createTimeoutContext(ctx, "initialize")
	defer cancel()
	initReq := &mcp.InitializeRequest{}
	initResp, err := m.client.Initialize(initCtx, initReq)
	if err != nil {
		return fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	log.Debugf("MCP session initialized (server_name=%s, server_version=%s, protocol_version=%s)",
		initResp.ServerInfo.Name, initResp.ServerInfo.Version, initResp.ProtocolVersion)

	m.initialized = true
	return nil
}

// listTools retrieves the list of available tools from the MCP server.
func (m *sessionManager) listTools(ctx context.Context) ([]mcp.Tool, error) {
	var result []mcp.Tool

	operationErr := m.executeWithSessionReconnect(ctx, func() error {
		m.mu.RLock()
		defer m.mu.RUnlock()

		if m.client == nil {
			return fmt.Errorf("transport is closed")
		}

		listCtx, cancel := m.createTimeoutContext(ctx, "listTools")
		defer cancel()
		listReq := &mcp.ListToolsRequest{}
		listResp, listErr := m.client.ListTools(listCtx, listReq)
		if listErr != nil {
			return fmt.Errorf("failed to list tools: %w", listErr)
		}

		log.Debugf("Listed tools from MCP server (count=%d)", len(listResp.Tools))
		result = listResp.Tools
		return nil
	})

	return result, operationErr
}

// callTool executes a tool call on the MCP server.
func (m *sessionManager) callTool(ctx context.Context, name string, arguments map[string]any) ([]mcp.Content, error) {
	var result []mcp.Content

	operationErr := m.executeWithSessionReconnect(ctx, func() error {
		m.mu.RLock()
		defer m.mu.RUnlock()

		if m.client == nil {
			return fmt.Errorf("transport is closed")
		}

		toolCtx, cancel := m.createTimeoutContext(ctx, "callTool")
		defer cancel()
		callReq := &mcp.CallToolRequest{}
		callReq.Params.Name = name
		callReq.Params.Arguments = arguments

		callResp, callErr := m.client.CallTool(toolCtx, callReq)
		if callErr != nil {
			log.Errorf("Tool call failed (name=%s, error=%v)", name, callErr)
			return fmt.Errorf("failed to call tool %s: %w", name, callErr)
		}

		log.Debugf("Tool call completed (name=%s, content_count=%d)", name, len(callResp.Content))
		result = callResp.Content
		return nil
	})

	return result, operationErr
}

// close closes the MCP session and client connection.
func (m *sessionManager) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected || m.client == nil {
		return nil
	}

	log.Debug("Closing MCP session")

	err := m.client.Close()
	m.connected = false
	m.initialized = false
	m.client = nil

	if err != nil {
		return fmt.Errorf("failed to close MCP client: %w", err)
	}
	return nil
}

// isConnected returns whether the session is connected and initialized.
func (m *sessionManager) isConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected && m.initialized
}

// executeWithSessionReconnect executes an operation with automatic session reconnection support.
// Uses per-operation retry strategy: each operation gets independent reconnection attempts.
// If the operation fails with a session-expired error and session reconnection is enabled,
// it will attempt to recreate the session and retry the operation up to maxAttempts times.
func (m *sessionManager) executeWithSessionReconnect(ctx context.Context, operation func() error) error {
	err := operation()
	if err == nil {
		return nil
	}

	if !m.shouldAttemptSessionReconnect(err) {
		return err
	}

	maxAttempts := m.reconnectConfig.MaxReconnectAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("reconnection aborted: %w", ctx.Err())
		}

		log.Debugf("Session error detected, attempting session reconnection (attempt=%d/%d)", attempt, maxAttempts)

		if reconnectErr := m.recreateSession(ctx); reconnectErr != nil {
			log.Errorf("Session reconnection failed (attempt=%d/%d, reconnect_error=%v, original_error=%v)",
				attempt, maxAttempts, reconnectErr, err)

			// If this was the last attempt, return the original error.
			if attempt >= maxAttempts {
				log.Warnf("Max session reconnect attempts reached for this operation, giving up (attempts=%d)", maxAttempts)
				return err
			}
			continue
		}

		// Retry the operation after successful reconnection.
		err = operation()
		if err == nil {
			log.Debugf("Operation succeeded after session reconnection (attempt=%d)", attempt)
			return nil
		}

		// Different error type, don't retry.
		if !m.shouldAttemptSessionReconnect(err) {
			return err
		}
	}

	log.Warnf("All reconnection attempts exhausted for this operation (max_attempts=%d)", maxAttempts)
	return err
}

// shouldAttemptSessionReconnect determines if session reconnection should be attempted
// based on the error type and configuration.
func (m *sessionManager) shouldAttemptSessionReconnect(err error) bool {
	if m.reconnectConfig == nil || !m.reconnectConfig.EnableAutoReconnect {
		return false
	}
	if err == nil {
		return false
	}

	errStr := err.Error()
	for _, pattern := range sessionReconnectErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// recreateSession recreates the MCP session by closing the old connection,
// creating a new client, and re-initializing the session.
// Uses singleflight to ensure only one reconnection happens at a time across all goroutines.
func (m *sessionManager) recreateSession(ctx context.Context) error {
	_, err, _ := m.reconnectGroup.Do("reconnect", func() (interface{}, error) {
		return nil, m.doRecreateSession(ctx)
	})
	return err
}

// doRecreateSession performs the actual session recreation logic.
func (m *sessionManager) doRecreateSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log.Debug("Recreating MCP session")

	if m.client != nil {
		if closeErr := m.client.Close(); closeErr != nil {
			log.Warnf("Failed to close old client during session recreation: %v", closeErr)
		}
		m.client = nil
	}

	// Reset connection state (will be set to true on success).
	m.connected = false
	m.initialized = false

	client, err := m.createClient()
	if err != nil {
		return fmt.Errorf("failed to create new MCP client during session recreation: %w", err)
	}

	m.client = client
	m.connected = true

	if err := m.initialize(ctx); err != nil {
		m.connected = false
		if closeErr := client.Close(); closeErr != nil {
			log.Errorf("Failed to close client after re-initialization failure (close_error=%v, init_error=%v)", closeErr, err)
		}
		m.client = nil
		return fmt.Errorf("failed to re-initialize MCP session: %w", err)
	}

	log.Debug("MCP session recreation completed successfully")
	return nil
}
