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
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trpc.group/trpc-go/compound-agent-go/log"
	"trpc.group/trpc-go/compound-agent-go/model"
)

// DefaultTimeout bounds one decision source call.
const DefaultTimeout = 10 * time.Second

type options struct {
	timeout time.Duration
}

// Option configures a Source.
type Option func(*options)

// WithTimeout bounds each model call. Non-positive values keep the
// default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Source asks the language model for the next decision. It is the only
// suspending collaborator of the agent loop, so every call is bounded by
// a timeout and every failure mode folds into a decision the loop can
// act on.
type Source struct {
	model   model.Model
	timeout time.Duration
}

// NewSource wraps a model as a decision source.
func NewSource(m model.Model, opts ...Option) *Source {
	o := &options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(o)
	}
	return &Source{model: m, timeout: o.timeout}
}

// Decide sends one round to the model and parses the reply. The returned
// decision is never nil: timeouts, transport failures and malformed
// replies all come back as error_handling decisions.
func (s *Source) Decide(ctx context.Context, systemPrompt, userPrompt string) *Decision {
	text, err := s.generate(ctx,
		model.NewSystemMessage(systemPrompt),
		model.NewUserMessage(userPrompt))
	if err != nil {
		log.Warnf("decision: model call failed: %v", err)
		return errorHandling("Error in decision making: %v", err)
	}
	return ParseResponse(text)
}

// generate runs one bounded model call and collects the final text.
func (s *Source) generate(ctx context.Context, messages ...model.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := &model.Request{Messages: messages}
	ch, err := s.model.GenerateContent(ctx, req)
	if err != nil {
		return "", err
	}

	var text string
	for rsp := range ch {
		if rsp.Error != nil {
			return "", fmt.Errorf("%s: %s", rsp.Error.Type, rsp.Error.Message)
		}
		if rsp.IsPartial || len(rsp.Choices) == 0 {
			continue
		}
		text = rsp.Choices[0].Message.Content
	}
	if text == "" {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", errors.New("empty response from model")
	}
	return text, nil
}

// Review line prefixes.
const (
	prefixValid    = "VALID:"
	prefixModified = "MODIFIED:"
	prefixInvalid  = "INVALID:"
)

const reviewPromptFormat = `You are a prompt verification agent. Your task is to verify if the following query is appropriate for mathematical calculations, particularly compound interest problems.

Query: %s

Analyze the query and respond with EXACTLY ONE line in one of these formats:
1. If the query is valid and ready for mathematical processing:
   VALID: [original query]

2. If the query needs modification:
   MODIFIED: [modified query]

3. If the query is invalid or cannot be processed:
   INVALID: [explanation]

Consider these aspects:
- Does the query contain necessary numerical values?
- Is the mathematical operation clear?
- Are units and time periods specified?
- Is the query related to financial calculations?
- Are there any ambiguous terms that need clarification?

DO NOT include any explanations or additional text.
Your entire response should be a single line starting with either VALID:, MODIFIED:, or INVALID:`

// Review is the outcome of the query review phase.
type Review struct {
	// OK reports whether the query can be processed.
	OK bool
	// Query is the text to process: the original for a VALID verdict, the
	// rewritten text for a MODIFIED one.
	Query string
	// Modified reports whether the reviewer rewrote the query.
	Modified bool
	// Reason explains a rejection.
	Reason string
}

// ReviewQuery asks the model whether a query is fit for processing and
// parses the VALID / MODIFIED / INVALID verdict. Reviewer failures
// reject the query rather than letting an unchecked one through.
func (s *Source) ReviewQuery(ctx context.Context, query string) Review {
	prompt := fmt.Sprintf(reviewPromptFormat, query)

	text, err := s.generate(ctx, model.NewUserMessage(prompt))
	if err != nil {
		log.Warnf("decision: query review failed: %v", err)
		return Review{Reason: fmt.Sprintf("Query verification failed: %v", err)}
	}

	line := reviewLine(text)
	switch {
	case strings.HasPrefix(line, prefixValid):
		return Review{OK: true, Query: query}
	case strings.HasPrefix(line, prefixModified):
		modified := strings.TrimSpace(strings.TrimPrefix(line, prefixModified))
		return Review{OK: true, Query: modified, Modified: true}
	case strings.HasPrefix(line, prefixInvalid):
		reason := strings.TrimSpace(strings.TrimPrefix(line, prefixInvalid))
		return Review{Reason: reason}
	default:
		return Review{Reason: "Query verification failed"}
	}
}

func reviewLine(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefixValid) ||
			strings.HasPrefix(line, prefixModified) ||
			strings.HasPrefix(line, prefixInvalid) {
			return line
		}
	}
	return trimmed
}
