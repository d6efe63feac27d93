//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package plan

// ExecutionRecord is one completed tool invocation.
type ExecutionRecord struct {
	// StepID is the plan step the invocation belonged to, empty for
	// free-form model calls.
	StepID string `json:"step_id,omitempty"`
	// Tool is the wire name of the invoked tool.
	Tool string `json:"tool"`
	// Args are the fully resolved, canonical arguments.
	Args map[string]any `json:"args"`
	// Result is the normalized tool result.
	Result any `json:"result"`
	// Signature identifies the invocation, see Signature.
	Signature string `json:"signature"`
}

// History is the dedup ledger of an invocation: every tool call that has
// run, in order, indexed by signature. Plan execution and free-form model
// calls share one history, so a model asking for work the plan already
// did gets the recorded result back instead of a second execution.
//
// A History belongs to a single invocation and is not safe for concurrent
// use.
type History struct {
	records []ExecutionRecord
	bySig   map[string]int
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{bySig: make(map[string]int)}
}

// Seen reports whether the signature has already been recorded.
func (h *History) Seen(sig string) bool {
	_, ok := h.bySig[sig]
	return ok
}

// Result returns the recorded result for the signature.
func (h *History) Result(sig string) (any, bool) {
	i, ok := h.bySig[sig]
	if !ok {
		return nil, false
	}
	return h.records[i].Result, true
}

// Record appends the record unless its signature is already present.
// Recording the same invocation twice is a no-op, the first result wins.
func (h *History) Record(rec ExecutionRecord) {
	if _, ok := h.bySig[rec.Signature]; ok {
		return
	}
	h.bySig[rec.Signature] = len(h.records)
	h.records = append(h.records, rec)
}

// Records returns a copy of all records in execution order.
func (h *History) Records() []ExecutionRecord {
	out := make([]ExecutionRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Len returns the number of recorded invocations.
func (h *History) Len() int {
	return len(h.records)
}
