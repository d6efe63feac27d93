//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package decision

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"trpc.group/trpc-go/compound-agent-go/finance"
)

// Line prefixes of the decision protocol.
const (
	prefixFunctionCall = "FUNCTION_CALL:"
	prefixFinalAnswer  = "FINAL_ANSWER:"
)

// Defaults substituted when the model omits the optional payload fields.
const (
	defaultReasoningType = "unknown"
	defaultSelfCheck     = "No self-check specified"
)

// functionCall is the JSON payload of a FUNCTION_CALL line.
type functionCall struct {
	Function      string   `json:"function"`
	Params        []string `json:"params"`
	ReasoningType string   `json:"reasoning_type"`
	SelfCheck     string   `json:"self_check"`
}

// Loose extraction patterns for payloads that are almost JSON. Models
// occasionally emit trailing commas or bare numbers in the params array;
// both break strict decoding but still carry a usable call.
var (
	functionRe = regexp.MustCompile(`"function"\s*:\s*"([^"]+)"`)
	paramsRe   = regexp.MustCompile(`"params"\s*:\s*\[(.*?)\]`)
)

// ParseResponse extracts the decision line from a model response and
// parses it. It never fails: a reply without a usable line becomes an
// error_handling decision so the caller's loop stops gracefully instead
// of crashing on a confused model.
func ParseResponse(text string) *Decision {
	line := decisionLine(text)
	switch {
	case strings.HasPrefix(line, prefixFunctionCall):
		payload := strings.TrimSpace(strings.TrimPrefix(line, prefixFunctionCall))
		return parseFunctionCall(payload)
	case strings.HasPrefix(line, prefixFinalAnswer):
		answer := strings.TrimSpace(strings.TrimPrefix(line, prefixFinalAnswer))
		return &Decision{NextAction: ActionFinalAnswer, FinalAnswer: answer}
	default:
		return errorHandling("Error parsing LLM response: No FUNCTION_CALL found in response")
	}
}

// decisionLine finds the line carrying the decision. The protocol demands
// a single line, but models wrap it in prose often enough that scanning
// is worth it.
func decisionLine(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefixFunctionCall) || strings.HasPrefix(line, prefixFinalAnswer) {
			return line
		}
	}
	return trimmed
}

func parseFunctionCall(payload string) *Decision {
	call, err := decodeFunctionCall(payload)
	if err != nil {
		return errorHandling("Error parsing LLM response: %v", err)
	}
	args, err := finance.ParsePositional(call.Function, call.Params)
	if err != nil {
		return errorHandling("Error parsing LLM response: %v", err)
	}
	return &Decision{
		NextAction: call.ReasoningType,
		ToolName:   call.Function,
		ToolArgs:   args,
		Params:     call.Params,
		Reasoning:  call.SelfCheck,
	}
}

// decodeFunctionCall tries strict JSON first, then the loose regex form,
// then the legacy pipe-separated form.
func decodeFunctionCall(payload string) (*functionCall, error) {
	var call functionCall
	if err := json.Unmarshal([]byte(payload), &call); err == nil {
		if call.Function == "" {
			return nil, errors.New("function call names no function")
		}
		applyDefaults(&call)
		return &call, nil
	}
	if call, ok := decodeLooseJSON(payload); ok {
		return call, nil
	}
	if call, ok := decodePipeForm(payload); ok {
		return call, nil
	}
	return nil, fmt.Errorf("could not parse function call: %s", payload)
}

func decodeLooseJSON(payload string) (*functionCall, bool) {
	m := functionRe.FindStringSubmatch(payload)
	if m == nil {
		return nil, false
	}
	call := &functionCall{Function: m[1]}
	if pm := paramsRe.FindStringSubmatch(payload); pm != nil {
		call.Params = splitParams(pm[1])
	}
	applyDefaults(call)
	return call, true
}

func decodePipeForm(payload string) (*functionCall, bool) {
	if !strings.Contains(payload, "|") {
		return nil, false
	}
	parts := strings.Split(payload, "|")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return nil, false
	}
	call := &functionCall{Function: name}
	for _, part := range parts[1:] {
		if part = strings.TrimSpace(part); part != "" {
			call.Params = append(call.Params, part)
		}
	}
	applyDefaults(call)
	return call, true
}

func splitParams(raw string) []string {
	var params []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `"'`)
		if part != "" {
			params = append(params, part)
		}
	}
	return params
}

func applyDefaults(call *functionCall) {
	if call.ReasoningType == "" {
		call.ReasoningType = defaultReasoningType
	}
	if call.SelfCheck == "" {
		call.SelfCheck = defaultSelfCheck
	}
}
