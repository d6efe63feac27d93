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
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/require"
	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"trpc.group/trpc-go/compound-agent-go/tool"
)

func TestConvertMCPSchema_Basic(t *testing.T) {
	mcpSchema := map[string]any{
		"type":        "object",
		"description": "test schema",
		"required":    []any{"a", "b"},
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
			"b": map[string]any{"type": "number", "description": "bbb"},
		},
	}

	s := convertMCPSchemaToSchema(mcpSchema)
	require.Equal(t, "object", s.Type)
	require.Equal(t, "test schema", s.Description)
	require.ElementsMatch(t, []string{"a", "b"}, s.Required)
	require.Equal(t, "string", s.Properties["a"].Type)
	require.Equal(t, "number", s.Properties["b"].Type)
	require.Equal(t, "bbb", s.Properties["b"].Description)
}

func TestConvertProperties_Nil(t *testing.T) {
	require.Nil(t, convertProperties(nil))
}

func TestConvertMCPSchema_InvalidJSON(t *testing.T) {
	// Channel cannot marshal, expect fallback schema.
	schema := convertMCPSchemaToSchema(make(chan int))
	require.Equal(t, &tool.Schema{Type: "object"}, schema)
}

func TestConvertTool(t *testing.T) {
	mcpTool := mcp.Tool{
		Name:        "calculate_quarterly_rate",
		Description: "Convert an annual interest rate to a quarterly rate",
		InputSchema: &openapi3.Schema{
			Type: &openapi3.Types{openapi3.TypeObject},
			Properties: openapi3.Schemas{
				"annual_rate": openapi3.NewSchemaRef("", &openapi3.Schema{
					Type:        &openapi3.Types{openapi3.TypeNumber},
					Description: "Annual interest rate as a decimal",
				}),
			},
			Required: []string{"annual_rate"},
		},
	}

	declaration := convertTool(mcpTool)
	require.Equal(t, "calculate_quarterly_rate", declaration.Name)
	require.Equal(t, "Convert an annual interest rate to a quarterly rate", declaration.Description)
	require.NotNil(t, declaration.InputSchema)
	require.Equal(t, "object", declaration.InputSchema.Type)
	require.Equal(t, "number", declaration.InputSchema.Properties["annual_rate"].Type)
	require.Equal(t, []string{"annual_rate"}, declaration.InputSchema.Required)
}

func TestConvertTool_NoSchema(t *testing.T) {
	declaration := convertTool(mcp.Tool{Name: "ping", Description: "Ping"})
	require.Equal(t, "ping", declaration.Name)
	require.Nil(t, declaration.InputSchema)
}

func TestExtractTextContent(t *testing.T) {
	content := []mcp.Content{
		mcp.NewTextContent("0.01125"),
	}

	text, err := extractTextContent(content)
	require.NoError(t, err)
	require.Equal(t, "0.01125", text)
}

func TestExtractTextContent_MultipleParts(t *testing.T) {
	content := []mcp.Content{
		mcp.NewTextContent("first"),
		mcp.NewTextContent("second"),
	}

	text, err := extractTextContent(content)
	require.NoError(t, err)
	require.Equal(t, "first\nsecond", text)
}

func TestExtractTextContent_Empty(t *testing.T) {
	_, err := extractTextContent(nil)
	require.Error(t, err)

	_, err = extractTextContent([]mcp.Content{})
	require.Error(t, err)
}
