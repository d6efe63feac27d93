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
	"encoding/json"
	"fmt"
	"strings"

	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/compound-agent-go/tool"
)

// convertTool converts an MCP tool description to a tool declaration.
func convertTool(mcpTool mcp.Tool) *tool.Declaration {
	declaration := &tool.Declaration{
		Name:        mcpTool.Name,
		Description: mcpTool.Description,
	}
	if mcpTool.InputSchema != nil {
		declaration.InputSchema = convertMCPSchemaToSchema(mcpTool.InputSchema)
	}
	return declaration
}

// convertMCPSchemaToSchema converts MCP's JSON schema to our Schema format.
func convertMCPSchemaToSchema(mcpSchema any) *tool.Schema {
	schemaBytes, err := json.Marshal(mcpSchema)
	if err != nil {
		return &tool.Schema{
			Type: "object",
		}
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaBytes, &schemaMap); err != nil {
		return &tool.Schema{
			Type: "object",
		}
	}

	schema := &tool.Schema{}
	if typeVal, ok := schemaMap["type"].(string); ok {
		schema.Type = typeVal
	}
	if descVal, ok := schemaMap["description"].(string); ok {
		schema.Description = descVal
	}
	if propsVal, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = convertProperties(propsVal)
	}
	if reqVal, ok := schemaMap["required"].([]any); ok {
		required := make([]string, len(reqVal))
		for i, req := range reqVal {
			if reqStr, ok := req.(string); ok {
				required[i] = reqStr
			}
		}
		schema.Required = required
	}

	return schema
}

// convertProperties converts property definitions from map[string]interface{} to map[string]*Schema.
func convertProperties(props map[string]any) map[string]*tool.Schema {
	if props == nil {
		return nil
	}

	result := make(map[string]*tool.Schema)
	for name, prop := range props {
		if propMap, ok := prop.(map[string]any); ok {
			propSchema := &tool.Schema{}
			if typeVal, ok := propMap["type"].(string); ok {
				propSchema.Type = typeVal
			}
			if descVal, ok := propMap["description"].(string); ok {
				propSchema.Description = descVal
			}
			result[name] = propSchema
		}
	}
	return result
}

// extractTextContent joins the text parts of a tool result. Results with no
// text content are an error because every arithmetic tool reports its value
// as text.
func extractTextContent(content []mcp.Content) (string, error) {
	var parts []string
	for _, item := range content {
		if textContent, ok := item.(mcp.TextContent); ok {
			parts = append(parts, textContent.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("tool result contains no text content")
	}
	return strings.Join(parts, "\n"), nil
}
