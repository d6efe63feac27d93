//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package finance

import (
	"trpc.group/trpc-go/compound-agent-go/tool"
	"trpc.group/trpc-go/compound-agent-go/tool/function"
)

// Tools returns the seven compound-interest tools as callable tools, in
// the same order as Specs. The declarations carry schemas generated from
// the argument structs, so the wire parameter names match the specs.
func Tools() []tool.CallableTool {
	return []tool.CallableTool{
		function.New(
			func(a QuarterlyRateArgs) float64 { return QuarterlyRate(a.AnnualRate) },
			function.WithName(ToolQuarterlyRate),
			function.WithDescription(describe(ToolQuarterlyRate)),
		),
		function.New(
			func(a CompoundingPeriodsArgs) int { return CompoundingPeriods(a.Years) },
			function.WithName(ToolCompoundingPeriods),
			function.WithDescription(describe(ToolCompoundingPeriods)),
		),
		function.New(
			func(a CompoundInterestArgs) float64 { return CompoundInterest(a.Principal, a.Rate, a.Periods) },
			function.WithName(ToolCompoundInterest),
			function.WithDescription(describe(ToolCompoundInterest)),
		),
		function.New(
			func(a BonusArgs) float64 { return Bonus(a.Principal, a.BonusRate) },
			function.WithName(ToolBonus),
			function.WithDescription(describe(ToolBonus)),
		),
		function.New(
			func(a VerifyCalculationArgs) bool { return VerifyCalculation(a.FinalAmount, a.Principal) },
			function.WithName(ToolVerifyCalculation),
			function.WithDescription(describe(ToolVerifyCalculation)),
		),
		function.New(
			func(a VerifyQuarterlyRateArgs) bool { return VerifyQuarterlyRate(a.QuarterlyRate, a.AnnualRate) },
			function.WithName(ToolVerifyQuarterlyRate),
			function.WithDescription(describe(ToolVerifyQuarterlyRate)),
		),
		function.New(
			func(a VerifyCompoundingPeriodsArgs) bool { return VerifyCompoundingPeriods(a.Periods, a.Years) },
			function.WithName(ToolVerifyCompoundingPeriods),
			function.WithDescription(describe(ToolVerifyCompoundingPeriods)),
		),
	}
}

func describe(name string) string {
	s, _ := SpecFor(name)
	return s.Description
}
