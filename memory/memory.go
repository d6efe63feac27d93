//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package memory provides the agent's interaction memory: a bounded,
// importance-ranked log of what happened across runs, persisted per
// application and user.
package memory

import (
	"context"
	"errors"
	"time"
)

// Interaction types recorded by the agent loop.
const (
	// InteractionUserQuery records an accepted user query together with its
	// perception output.
	InteractionUserQuery = "user_query"
	// InteractionToolCall records one executed tool call and its result.
	InteractionToolCall = "tool_call"
	// InteractionFinalAnswer records the final answer of a run.
	InteractionFinalAnswer = "final_answer"
	// InteractionError records a failed run.
	InteractionError = "error"
)

// Importance bounds for memory entries.
const (
	MinImportance     = 1
	MaxImportance     = 10
	DefaultImportance = 5
)

// DefaultImportanceFor returns the default importance for an interaction
// type. Final answers outrank errors, which outrank queries; individual
// tool calls are the first entries to be evicted.
func DefaultImportanceFor(interactionType string) int {
	switch interactionType {
	case InteractionFinalAnswer:
		return 8
	case InteractionError:
		return 7
	case InteractionUserQuery:
		return 6
	case InteractionToolCall:
		return 4
	default:
		return DefaultImportance
	}
}

// ClampImportance clips an importance value into [MinImportance, MaxImportance].
func ClampImportance(importance int) int {
	if importance < MinImportance {
		return MinImportance
	}
	if importance > MaxImportance {
		return MaxImportance
	}
	return importance
}

var (
	// ErrAppNameRequired is the error for app name required.
	ErrAppNameRequired = errors.New("appName is required")
	// ErrUserIDRequired is the error for user id required.
	ErrUserIDRequired = errors.New("userID is required")
)

// UserKey identifies one user's memory within an application.
type UserKey struct {
	AppName string // AppName is the name of the application.
	UserID  string // UserID is the unique identifier of the user.
}

// CheckUserKey checks if a user key is valid.
func (u UserKey) CheckUserKey() error {
	if u.AppName == "" {
		return ErrAppNameRequired
	}
	if u.UserID == "" {
		return ErrUserIDRequired
	}
	return nil
}

// Entry is one remembered interaction.
type Entry struct {
	// Timestamp is when the interaction happened.
	Timestamp time.Time `json:"timestamp"`
	// InteractionType is one of the Interaction* constants.
	InteractionType string `json:"interaction_type"`
	// Content carries the structured payload of the interaction.
	Content map[string]any `json:"content"`
	// Importance ranks the entry for retention, 1 (lowest) to 10 (highest).
	Importance int `json:"importance"`
}

// Service defines the interface for memory service operations.
type Service interface {
	// AddEntry appends an entry to a user's memory, trimming the log to the
	// retention bound. A zero timestamp is filled with the current time and
	// a zero importance with the default for the interaction type.
	AddEntry(ctx context.Context, userKey UserKey, entry Entry) error

	// ReadEntries reads a user's entries, newest first. A non-positive
	// limit returns all entries.
	ReadEntries(ctx context.Context, userKey UserKey, limit int) ([]Entry, error)

	// ClearEntries removes all entries for a user.
	ClearEntries(ctx context.Context, userKey UserKey) error
}
