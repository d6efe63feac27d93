//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package finance implements the compound-interest arithmetic the agent's
// tools expose, together with the declarative specs used to parse, verify
// and normalize tool arguments and results.
//
// The calculators assume quarterly compounding: the annual rate is split
// into four quarterly rates and each year contributes four compounding
// periods. The verifiers are deliberately cheap sanity predicates rather
// than exact recomputations; the agent runs one after each calculation
// step.
package finance

import "math"

// Tool names as they appear in plans, model function calls and the MCP
// arithmetic server. They are shared wire identifiers, not Go symbols:
// renaming one breaks recorded plans and session transcripts.
const (
	ToolQuarterlyRate            = "calculate_quarterly_rate"
	ToolCompoundingPeriods       = "calculate_compounding_periods"
	ToolCompoundInterest         = "calculate_compound_interest"
	ToolBonus                    = "calculate_bonus"
	ToolVerifyCalculation        = "verify_calculation"
	ToolVerifyQuarterlyRate      = "verify_quarterly_rate"
	ToolVerifyCompoundingPeriods = "verify_compounding_periods"
)

// QuarterlyRate converts an annual interest rate to the rate applied each
// quarter.
func QuarterlyRate(annualRate float64) float64 {
	return annualRate / 4
}

// CompoundingPeriods returns the number of quarterly compounding periods
// over the given number of years.
func CompoundingPeriods(years int) int {
	return years * 4
}

// CompoundInterest computes the final amount A = P(1+r)^n for principal P,
// per-period rate r and period count n.
func CompoundInterest(principal, rate float64, periods int) float64 {
	return principal * math.Pow(1+rate, float64(periods))
}

// Bonus computes a flat bonus amount on the principal.
func Bonus(principal, bonusRate float64) float64 {
	return principal * bonusRate
}

// VerifyCalculation reports whether compounding grew the investment at all.
// It is a sanity check, not a recomputation: a positive rate must leave the
// final amount above the principal.
func VerifyCalculation(finalAmount, principal float64) bool {
	return finalAmount > principal
}

// VerifyQuarterlyRate reports whether the quarterly rate is a proper
// fraction of the annual rate.
func VerifyQuarterlyRate(quarterlyRate, annualRate float64) bool {
	return quarterlyRate < annualRate
}

// VerifyCompoundingPeriods reports whether the period count matches
// quarterly compounding over the given years.
func VerifyCompoundingPeriods(periods, years int) bool {
	return periods == years*4
}
