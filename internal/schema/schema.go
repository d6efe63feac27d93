//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package schema derives JSON schemas from Go types for tool declarations.
package schema

import (
	"reflect"
	"strings"

	"trpc.group/trpc-go/compound-agent-go/tool"
)

// Generate generates a basic JSON schema from a reflect.Type.
func Generate(t reflect.Type) *tool.Schema {
	if t == nil {
		return &tool.Schema{Type: "object"}
	}

	switch t.Kind() {
	case reflect.Struct:
		s := &tool.Schema{Type: "object", Properties: map[string]*tool.Schema{}}
		required := make([]string, 0)
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name, omitEmpty, skip := parseJSONTag(field)
			if skip {
				continue
			}
			s.Properties[name] = fieldSchema(field.Type)
			if field.Type.Kind() != reflect.Ptr && !omitEmpty {
				required = append(required, name)
			}
		}
		if len(required) > 0 {
			s.Required = required
		}
		return s
	case reflect.Ptr:
		return Generate(t.Elem())
	default:
		return fieldSchema(t)
	}
}

// fieldSchema generates the schema for a single field type.
func fieldSchema(t reflect.Type) *tool.Schema {
	switch t.Kind() {
	case reflect.String:
		return &tool.Schema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &tool.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &tool.Schema{Type: "number"}
	case reflect.Bool:
		return &tool.Schema{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &tool.Schema{Type: "array", Items: fieldSchema(t.Elem())}
	case reflect.Map:
		return &tool.Schema{Type: "object", AdditionalProperties: fieldSchema(t.Elem())}
	case reflect.Ptr:
		return fieldSchema(t.Elem())
	case reflect.Struct:
		return Generate(t)
	default:
		return &tool.Schema{Type: "string"}
	}
}

// parseJSONTag resolves the effective property name for a struct field.
func parseJSONTag(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = field.Name
	if tag == "" {
		return name, false, false
	}
	if idx := strings.Index(tag, ","); idx != -1 {
		if tag[:idx] != "" {
			name = tag[:idx]
		}
		omitEmpty = strings.Contains(tag[idx:], "omitempty")
		return name, omitEmpty, false
	}
	return tag, false, false
}
