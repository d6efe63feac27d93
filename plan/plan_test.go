//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/compound-agent-go/finance"
	"trpc.group/trpc-go/compound-agent-go/perception"
)

// execute runs the resolved step against the arithmetic directly, the
// way the action layer would through a tool channel.
func execute(t *testing.T, rs *ResolvedStep) any {
	t.Helper()
	args := rs.Args
	switch rs.Step.Tool {
	case finance.ToolQuarterlyRate:
		return finance.QuarterlyRate(args["annual_rate"].(float64))
	case finance.ToolVerifyQuarterlyRate:
		return finance.VerifyQuarterlyRate(args["quarterly_rate"].(float64), args["annual_rate"].(float64))
	case finance.ToolCompoundingPeriods:
		return finance.CompoundingPeriods(args["years"].(int))
	case finance.ToolVerifyCompoundingPeriods:
		return finance.VerifyCompoundingPeriods(args["periods"].(int), args["years"].(int))
	case finance.ToolCompoundInterest:
		return finance.CompoundInterest(args["principal"].(float64), args["rate"].(float64), args["periods"].(int))
	case finance.ToolVerifyCalculation:
		return finance.VerifyCalculation(args["final_amount"].(float64), args["principal"].(float64))
	case finance.ToolBonus:
		return finance.Bonus(args["principal"].(float64), args["bonus_rate"].(float64))
	}
	t.Fatalf("unexpected tool %s", rs.Step.Tool)
	return nil
}

func referenceEntities() perception.Entities {
	return perception.Entities{
		Principal:  10000,
		AnnualRate: 0.045,
		Years:      5,
		BonusRate:  0.005,
		HasBonus:   true,
	}
}

func TestWalkReferencePlan(t *testing.T) {
	steps, err := Build(referenceEntities())
	require.NoError(t, err, "reference entities should build")
	require.Len(t, steps, 7, "bonus entities should add the bonus step")

	st := NewState(steps, nil)
	for {
		rs, err := st.NextStep()
		if errors.Is(err, ErrPlanComplete) {
			break
		}
		require.NoError(t, err, "walk should not stall")
		require.NoError(t, st.RecordResult(rs, execute(t, rs)), "recording should succeed")
	}

	assert.Equal(t, 7, st.Completed(), "every step should have run")
	assert.Equal(t, 7, st.History().Len(), "every step should be in the history")

	rate, ok := st.Result(finance.ToolQuarterlyRate)
	require.True(t, ok)
	assert.InDelta(t, 0.01125, rate.(float64), 1e-12, "quarterly rate")

	periods, ok := st.Result(finance.ToolCompoundingPeriods)
	require.True(t, ok)
	assert.Equal(t, 20, periods.(int), "compounding periods")

	final, ok := st.Result(finance.ToolCompoundInterest)
	require.True(t, ok)
	assert.InDelta(t, 12507.51, final.(float64), 0.01, "final amount")

	bonus, ok := st.Result(finance.ToolBonus)
	require.True(t, ok)
	assert.InDelta(t, 50.0, bonus.(float64), 1e-9, "bonus amount")

	for _, verifier := range []string{
		finance.ToolVerifyQuarterlyRate,
		finance.ToolVerifyCompoundingPeriods,
		finance.ToolVerifyCalculation,
	} {
		v, ok := st.Result(verifier)
		require.True(t, ok, "%s should have a result", verifier)
		assert.Equal(t, true, v, "%s should pass", verifier)
	}
}

func TestResubmittedPlanRunsNothing(t *testing.T) {
	steps, err := Build(referenceEntities())
	require.NoError(t, err)

	history := NewHistory()
	first := NewState(steps, history)
	for {
		rs, err := first.NextStep()
		if errors.Is(err, ErrPlanComplete) {
			break
		}
		require.NoError(t, err)
		require.NoError(t, first.RecordResult(rs, execute(t, rs)))
	}
	ran := history.Len()

	// The same plan against the same history finds every signature done.
	second := NewState(steps, history)
	_, err = second.NextStep()
	assert.ErrorIs(t, err, ErrPlanComplete, "nothing should be left to run")
	assert.Equal(t, ran, history.Len(), "no new invocations should be recorded")

	final, ok := second.Result(finance.ToolCompoundInterest)
	require.True(t, ok, "skipped steps should adopt recorded results")
	assert.InDelta(t, 12507.51, final.(float64), 0.01)
}

func TestSkipSeededStep(t *testing.T) {
	history := NewHistory()
	args, err := finance.ParseArguments(finance.ToolQuarterlyRate, map[string]any{"annual_rate": 0.045})
	require.NoError(t, err)
	history.Record(ExecutionRecord{
		Tool:      finance.ToolQuarterlyRate,
		Args:      args,
		Result:    0.01125,
		Signature: Signature(finance.ToolQuarterlyRate, args),
	})

	steps, err := Build(referenceEntities())
	require.NoError(t, err)
	st := NewState(steps, history)

	rs, err := st.NextStep()
	require.NoError(t, err)
	assert.Equal(t, finance.ToolVerifyQuarterlyRate, rs.Step.Tool, "seeded first step should be skipped")
	assert.Equal(t, 0.01125, rs.Args["quarterly_rate"], "skipped step's recorded result should resolve")
}

func TestRecordResultIdempotent(t *testing.T) {
	steps, err := Build(referenceEntities())
	require.NoError(t, err)
	st := NewState(steps, nil)

	rs, err := st.NextStep()
	require.NoError(t, err)
	require.NoError(t, st.RecordResult(rs, 0.01125), "first record should succeed")
	assert.NoError(t, st.RecordResult(rs, 0.01125), "re-recording the same step should be a no-op")
	assert.Equal(t, 1, st.History().Len(), "the duplicate should not be recorded twice")
}

func TestRecordResultStale(t *testing.T) {
	steps, err := Build(referenceEntities())
	require.NoError(t, err)
	st := NewState(steps, nil)

	rs, err := st.NextStep()
	require.NoError(t, err)
	stale := &ResolvedStep{Step: rs.Step, Args: rs.Args, Signature: "never_recorded()", Index: 3}
	assert.ErrorIs(t, st.RecordResult(stale, 1.0), ErrStaleStep, "unrecorded stale step should error")
}

func TestUnresolvedDependencyIsFatal(t *testing.T) {
	steps := []*Step{
		{
			ID:   "orphan",
			Tool: finance.ToolVerifyQuarterlyRate,
			Args: map[string]Arg{
				"quarterly_rate": FromStep("never_planned"),
				"annual_rate":    Literal(0.045),
			},
			Rationale: "references a step that does not exist",
		},
	}
	st := NewState(steps, nil)
	_, err := st.NextStep()
	assert.ErrorIs(t, err, ErrUnresolvedDependency, "dangling reference should surface")
}

func TestSignatureCanonical(t *testing.T) {
	a, err := finance.ParseArguments(finance.ToolCompoundInterest, map[string]any{
		"principal": 10000, "rate": 0.01125, "periods": 20,
	})
	require.NoError(t, err)
	b, err := finance.ParseArguments(finance.ToolCompoundInterest, map[string]any{
		"periods": "20", "principal": 10000.0, "rate": "0.01125",
	})
	require.NoError(t, err)

	assert.Equal(t, Signature(finance.ToolCompoundInterest, a), Signature(finance.ToolCompoundInterest, b),
		"numeric aliases of the same call should sign identically")
	assert.Equal(t, "calculate_compound_interest(periods=20,principal=10000,rate=0.01125)",
		Signature(finance.ToolCompoundInterest, a), "signature layout should be stable")
}

func TestHistoryFirstResultWins(t *testing.T) {
	h := NewHistory()
	h.Record(ExecutionRecord{Tool: "t", Signature: "t(x=1)", Result: 1})
	h.Record(ExecutionRecord{Tool: "t", Signature: "t(x=1)", Result: 2})

	require.Equal(t, 1, h.Len(), "duplicate signatures should not append")
	v, ok := h.Result("t(x=1)")
	require.True(t, ok)
	assert.Equal(t, 1, v, "the first recorded result should stand")
	assert.True(t, h.Seen("t(x=1)"))
	assert.False(t, h.Seen("t(x=2)"))
}
