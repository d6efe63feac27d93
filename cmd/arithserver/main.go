//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package main serves the seven compound-interest arithmetic tools over
// MCP so the agent can run them out of process. The transport is
// selectable: stdio for child-process use, SSE or streamable HTTP for a
// standalone server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/compound-agent-go/finance"
	"trpc.group/trpc-go/compound-agent-go/tool"
)

var (
	transportFlag = flag.String("transport", "streamable", "Transport to serve on: stdio, sse or streamable")
	addr          = flag.String("addr", ":3000", "Listen address for the sse/streamable transports")
)

const (
	serverName    = "compound-interest-tools"
	serverVersion = "1.0.0"
)

func main() {
	flag.Parse()

	channel := tool.NewLocalChannel(finance.Tools()...)
	defer channel.Close()

	switch *transportFlag {
	case "stdio":
		runStdio(channel)
	case "sse":
		runSSE(channel)
	case "streamable":
		runStreamable(channel)
	default:
		log.Fatalf("Unsupported transport: %s, supported: stdio, sse, streamable", *transportFlag)
	}
}

// runStdio serves the protocol on stdin/stdout. The banner goes through the
// standard logger so it lands on stderr and stays out of the message stream.
func runStdio(channel tool.Channel) {
	server := mcp.NewStdioServer(serverName, serverVersion,
		mcp.WithStdioServerLogger(mcp.GetDefaultLogger()),
	)
	for _, spec := range finance.Specs() {
		server.RegisterTool(declareTool(spec), makeHandler(channel, spec))
	}

	log.Printf("Starting compound-interest MCP server on stdio")
	log.Printf("Available tools: %s", toolNames())

	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runSSE(channel tool.Channel) {
	server := mcp.NewSSEServer(serverName, serverVersion)
	for _, spec := range finance.Specs() {
		server.RegisterTool(declareTool(spec), makeHandler(channel, spec))
	}

	// Handle signals.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		cancel()
	}()

	fmt.Printf("Starting compound-interest MCP server (SSE) on %s\n", *addr)
	fmt.Printf("Available tools: %s\n", toolNames())

	go server.Start(*addr)
	<-ctx.Done()
	server.Shutdown(context.Background())
}

func runStreamable(channel tool.Channel) {
	server := mcp.NewServer(serverName, serverVersion, mcp.WithServerAddress(*addr))
	for _, spec := range finance.Specs() {
		server.RegisterTool(declareTool(spec), makeHandler(channel, spec))
	}

	fmt.Printf("Starting compound-interest MCP server (streamable) on %s\n", *addr)
	fmt.Printf("Available tools: %s\n", toolNames())

	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// declareTool builds the MCP tool declaration from the finance spec.
// Integer parameters are declared as numbers: JSON carries one number
// type, the channel-side parsing re-checks integrality.
func declareTool(spec finance.Spec) *mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, p := range spec.Params {
		opts = append(opts, mcp.WithNumber(p.Name, mcp.Required(), mcp.Description(p.Description)))
	}
	return mcp.NewTool(spec.Name, opts...)
}

// makeHandler adapts one finance tool to an MCP tool handler. Arguments
// are parsed against the spec before the call, so a type mismatch comes
// back as a tool error instead of a silent coercion.
func makeHandler(channel tool.Channel, spec finance.Spec) func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := finance.ParseArguments(spec.Name, req.Params.Arguments)
		if err != nil {
			return mcp.NewErrorResult(err.Error()), nil
		}
		result, err := channel.Invoke(ctx, spec.Name, args)
		if err != nil {
			return mcp.NewErrorResult(err.Error()), nil
		}
		return mcp.NewTextResult(finance.FormatValue(result)), nil
	}
}

func toolNames() string {
	names := make([]string, 0, len(finance.Specs()))
	for _, spec := range finance.Specs() {
		names = append(names, spec.Name)
	}
	return strings.Join(names, ", ")
}
