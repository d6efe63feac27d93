//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package function

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scaleArgs struct {
	Value  float64 `json:"value"`
	Factor float64 `json:"factor"`
	Label  string  `json:"label,omitempty"`
}

func (a scaleArgs) Validate() error {
	if a.Factor == 0 {
		return fmt.Errorf("factor must not be zero")
	}
	return nil
}

func TestFunctionToolCall(t *testing.T) {
	ft := New(
		func(a scaleArgs) float64 { return a.Value * a.Factor },
		WithName("scale"),
		WithDescription("Multiply a value by a factor"),
	)

	result, err := ft.Call(context.Background(), []byte(`{"value": 3, "factor": 4}`))
	require.NoError(t, err, "well-formed arguments should succeed")
	assert.Equal(t, 12.0, result)
}

func TestFunctionToolCallMalformedJSON(t *testing.T) {
	ft := New(func(a scaleArgs) float64 { return a.Value }, WithName("scale"))

	_, err := ft.Call(context.Background(), []byte(`{"value": `))
	require.Error(t, err, "truncated JSON should fail")
	assert.Contains(t, err.Error(), "scale", "error should name the tool")
}

func TestFunctionToolCallValidation(t *testing.T) {
	ft := New(func(a scaleArgs) float64 { return a.Value * a.Factor }, WithName("scale"))

	_, err := ft.Call(context.Background(), []byte(`{"value": 3, "factor": 0}`))
	require.Error(t, err, "validation failure should abort the call")
	assert.Contains(t, err.Error(), "factor must not be zero")
}

func TestFunctionToolCallTypeMismatch(t *testing.T) {
	ft := New(func(a scaleArgs) float64 { return a.Value }, WithName("scale"))

	_, err := ft.Call(context.Background(), []byte(`{"value": "lots", "factor": 2}`))
	require.Error(t, err, "string where a number is declared should fail fast")
}

func TestFunctionToolDeclaration(t *testing.T) {
	ft := New(
		func(a scaleArgs) bool { return a.Value > 0 },
		WithName("positive"),
		WithDescription("Check the value is positive"),
	)

	decl := ft.Declaration()
	require.NotNil(t, decl)
	assert.Equal(t, "positive", decl.Name)
	assert.Equal(t, "Check the value is positive", decl.Description)

	require.NotNil(t, decl.InputSchema)
	assert.Equal(t, "object", decl.InputSchema.Type)
	require.Contains(t, decl.InputSchema.Properties, "value")
	assert.Equal(t, "number", decl.InputSchema.Properties["value"].Type)
	assert.ElementsMatch(t, []string{"value", "factor"}, decl.InputSchema.Required,
		"omitempty fields should not be required")

	require.NotNil(t, decl.OutputSchema)
	assert.Equal(t, "boolean", decl.OutputSchema.Type)
}
