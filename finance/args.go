//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package finance

import "fmt"

// Argument structs for each tool. The json tags are the wire parameter
// names used in plans, model function calls and the MCP server; each
// struct validates its own values so every entry point (local channel,
// MCP server, plan builder) rejects bad arguments the same way.

// QuarterlyRateArgs are the arguments for calculate_quarterly_rate.
type QuarterlyRateArgs struct {
	AnnualRate float64 `json:"annual_rate"`
}

// Validate checks the arguments are usable.
func (a QuarterlyRateArgs) Validate() error {
	if a.AnnualRate < 0 {
		return fmt.Errorf("annual_rate must not be negative, got %v", a.AnnualRate)
	}
	return nil
}

// CompoundingPeriodsArgs are the arguments for calculate_compounding_periods.
type CompoundingPeriodsArgs struct {
	Years int `json:"years"`
}

// Validate checks the arguments are usable.
func (a CompoundingPeriodsArgs) Validate() error {
	if a.Years <= 0 {
		return fmt.Errorf("years must be positive, got %v", a.Years)
	}
	return nil
}

// CompoundInterestArgs are the arguments for calculate_compound_interest.
type CompoundInterestArgs struct {
	Principal float64 `json:"principal"`
	Rate      float64 `json:"rate"`
	Periods   int     `json:"periods"`
}

// Validate checks the arguments are usable.
func (a CompoundInterestArgs) Validate() error {
	if a.Principal <= 0 {
		return fmt.Errorf("principal must be positive, got %v", a.Principal)
	}
	if a.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %v", a.Rate)
	}
	if a.Periods <= 0 {
		return fmt.Errorf("periods must be positive, got %v", a.Periods)
	}
	return nil
}

// BonusArgs are the arguments for calculate_bonus.
type BonusArgs struct {
	Principal float64 `json:"principal"`
	BonusRate float64 `json:"bonus_rate"`
}

// Validate checks the arguments are usable.
func (a BonusArgs) Validate() error {
	if a.Principal <= 0 {
		return fmt.Errorf("principal must be positive, got %v", a.Principal)
	}
	if a.BonusRate < 0 {
		return fmt.Errorf("bonus_rate must not be negative, got %v", a.BonusRate)
	}
	return nil
}

// VerifyCalculationArgs are the arguments for verify_calculation.
type VerifyCalculationArgs struct {
	FinalAmount float64 `json:"final_amount"`
	Principal   float64 `json:"principal"`
}

// Validate checks the arguments are usable.
func (a VerifyCalculationArgs) Validate() error {
	if a.Principal <= 0 {
		return fmt.Errorf("principal must be positive, got %v", a.Principal)
	}
	return nil
}

// VerifyQuarterlyRateArgs are the arguments for verify_quarterly_rate.
type VerifyQuarterlyRateArgs struct {
	QuarterlyRate float64 `json:"quarterly_rate"`
	AnnualRate    float64 `json:"annual_rate"`
}

// Validate checks the arguments are usable.
func (a VerifyQuarterlyRateArgs) Validate() error {
	if a.AnnualRate < 0 {
		return fmt.Errorf("annual_rate must not be negative, got %v", a.AnnualRate)
	}
	return nil
}

// VerifyCompoundingPeriodsArgs are the arguments for verify_compounding_periods.
type VerifyCompoundingPeriodsArgs struct {
	Periods int `json:"periods"`
	Years   int `json:"years"`
}

// Validate checks the arguments are usable.
func (a VerifyCompoundingPeriodsArgs) Validate() error {
	if a.Years <= 0 {
		return fmt.Errorf("years must be positive, got %v", a.Years)
	}
	return nil
}
