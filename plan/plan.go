//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package plan implements the agent's execution engine: an ordered list
// of tool invocation steps walked by a forward-only cursor, with results
// wired from earlier steps into later ones and a signature-keyed history
// that guarantees no invocation ever runs twice.
package plan

import (
	"errors"
	"fmt"

	"trpc.group/trpc-go/compound-agent-go/finance"
)

// Engine errors.
var (
	// ErrPlanComplete is returned by NextStep once every step has run or
	// been skipped.
	ErrPlanComplete = errors.New("plan: complete")
	// ErrUnresolvedDependency is returned when a step references a result
	// that has not been recorded. The plan cannot make progress past it.
	ErrUnresolvedDependency = errors.New("plan: unresolved dependency")
	// ErrMissingEntity is returned by Build when a required entity is
	// absent or unusable.
	ErrMissingEntity = errors.New("plan: missing entity")
	// ErrStaleStep is returned when a result is recorded for a step the
	// cursor has moved past.
	ErrStaleStep = errors.New("plan: stale step")
)

// ResolvedStep is a step whose arguments have been fully resolved and
// canonicalized, ready to execute.
type ResolvedStep struct {
	// Step is the underlying plan step.
	Step *Step
	// Args are the resolved, canonical arguments.
	Args map[string]any
	// Signature identifies this invocation in the history.
	Signature string
	// Index is the step's position in the plan, starting at 0.
	Index int
}

// State walks one plan. The cursor only moves forward: a recorded step
// is never revisited, and a step whose signature is already in the
// history is skipped with the recorded result standing in for its own.
//
// A State belongs to a single invocation and is not safe for concurrent
// use.
type State struct {
	steps   []*Step
	cursor  int
	history *History
	results map[string]any
}

// NewState returns a State over the given steps. The history may be
// shared with other execution paths of the same invocation; nil means a
// fresh one.
func NewState(steps []*Step, history *History) *State {
	if history == nil {
		history = NewHistory()
	}
	return &State{
		steps:   steps,
		history: history,
		results: make(map[string]any),
	}
}

// NextStep returns the next step that actually needs to run. Steps whose
// signatures are already in the history are skipped, adopting the
// recorded result so later steps can still resolve against them. Returns
// ErrPlanComplete when nothing is left and ErrUnresolvedDependency when
// the next step references a result that was never recorded.
func (s *State) NextStep() (*ResolvedStep, error) {
	for s.cursor < len(s.steps) {
		step := s.steps[s.cursor]
		args, err := s.resolve(step)
		if err != nil {
			return nil, err
		}
		canonical, err := finance.ParseArguments(step.Tool, args)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.ID, err)
		}
		sig := Signature(step.Tool, canonical)
		if s.history.Seen(sig) {
			if res, ok := s.history.Result(sig); ok {
				s.results[step.ID] = res
			}
			s.cursor++
			continue
		}
		return &ResolvedStep{Step: step, Args: canonical, Signature: sig, Index: s.cursor}, nil
	}
	return nil, ErrPlanComplete
}

// RecordResult stores the result of the step NextStep handed out and
// advances the cursor. Recording the same step again after the cursor
// moved on is a no-op; recording any other stale step is an error.
func (s *State) RecordResult(step *ResolvedStep, result any) error {
	if step.Index != s.cursor {
		if s.history.Seen(step.Signature) {
			return nil
		}
		return fmt.Errorf("%w: %s at index %d, cursor at %d", ErrStaleStep, step.Step.ID, step.Index, s.cursor)
	}
	s.results[step.Step.ID] = result
	s.history.Record(ExecutionRecord{
		StepID:    step.Step.ID,
		Tool:      step.Step.Tool,
		Args:      step.Args,
		Result:    result,
		Signature: step.Signature,
	})
	s.cursor++
	return nil
}

// Result returns the recorded result of the named step.
func (s *State) Result(stepID string) (any, bool) {
	v, ok := s.results[stepID]
	return v, ok
}

// History returns the history the state records into.
func (s *State) History() *History {
	return s.history
}

// Len returns the number of steps in the plan.
func (s *State) Len() int {
	return len(s.steps)
}

// Completed returns how many steps the cursor has passed.
func (s *State) Completed() int {
	return s.cursor
}

// Steps returns a copy of the plan's steps.
func (s *State) Steps() []*Step {
	out := make([]*Step, len(s.steps))
	copy(out, s.steps)
	return out
}

func (s *State) resolve(step *Step) (map[string]any, error) {
	args := make(map[string]any, len(step.Args))
	for name, a := range step.Args {
		if a.FromStep == "" {
			args[name] = a.Literal
			continue
		}
		v, ok := s.results[a.FromStep]
		if !ok {
			return nil, fmt.Errorf("%w: step %s needs the result of %s for %q",
				ErrUnresolvedDependency, step.ID, a.FromStep, name)
		}
		args[name] = v
	}
	return args, nil
}
