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
	"fmt"

	"trpc.group/trpc-go/compound-agent-go/finance"
	"trpc.group/trpc-go/compound-agent-go/perception"
)

// Build constructs the fixed compound-interest plan from extracted
// entities: quarterly rate, periods and the final amount, each followed
// by its verification, plus a trailing bonus step when a bonus rate is
// present. Build is a pure function of the entities; the same entities
// always produce the same plan.
func Build(e perception.Entities) ([]*Step, error) {
	if e.Principal <= 0 {
		return nil, fmt.Errorf("%w: principal", ErrMissingEntity)
	}
	if e.AnnualRate < 0 {
		return nil, fmt.Errorf("%w: annual rate", ErrMissingEntity)
	}
	if e.Years <= 0 {
		return nil, fmt.Errorf("%w: years", ErrMissingEntity)
	}
	if e.HasBonus && e.BonusRate < 0 {
		return nil, fmt.Errorf("%w: bonus rate", ErrMissingEntity)
	}

	steps := []*Step{
		{
			ID:   finance.ToolQuarterlyRate,
			Tool: finance.ToolQuarterlyRate,
			Args: map[string]Arg{
				"annual_rate": Literal(e.AnnualRate),
			},
			Rationale: "Starting the compound interest calculation by determining the quarterly rate.",
		},
		{
			ID:   finance.ToolVerifyQuarterlyRate,
			Tool: finance.ToolVerifyQuarterlyRate,
			Args: map[string]Arg{
				"quarterly_rate": FromStep(finance.ToolQuarterlyRate),
				"annual_rate":    Literal(e.AnnualRate),
			},
			Rationale: "Verifying the quarterly rate calculation.",
		},
		{
			ID:   finance.ToolCompoundingPeriods,
			Tool: finance.ToolCompoundingPeriods,
			Args: map[string]Arg{
				"years": Literal(e.Years),
			},
			Rationale: "Calculating the number of compounding periods.",
		},
		{
			ID:   finance.ToolVerifyCompoundingPeriods,
			Tool: finance.ToolVerifyCompoundingPeriods,
			Args: map[string]Arg{
				"periods": FromStep(finance.ToolCompoundingPeriods),
				"years":   Literal(e.Years),
			},
			Rationale: "Verifying the compounding periods calculation.",
		},
		{
			ID:   finance.ToolCompoundInterest,
			Tool: finance.ToolCompoundInterest,
			Args: map[string]Arg{
				"principal": Literal(e.Principal),
				"rate":      FromStep(finance.ToolQuarterlyRate),
				"periods":   FromStep(finance.ToolCompoundingPeriods),
			},
			Rationale: "Calculating the compound interest with the verified quarterly rate and periods.",
		},
		{
			ID:   finance.ToolVerifyCalculation,
			Tool: finance.ToolVerifyCalculation,
			Args: map[string]Arg{
				"final_amount": FromStep(finance.ToolCompoundInterest),
				"principal":    Literal(e.Principal),
			},
			Rationale: "Verifying the compound interest calculation.",
		},
	}

	if e.HasBonus {
		steps = append(steps, &Step{
			ID:   finance.ToolBonus,
			Tool: finance.ToolBonus,
			Args: map[string]Arg{
				"principal":  Literal(e.Principal),
				"bonus_rate": Literal(e.BonusRate),
			},
			Rationale: "Calculating the bonus amount on the principal.",
		})
	}

	return steps, nil
}
