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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuarterlyRate(t *testing.T) {
	assert.InDelta(t, 0.01125, QuarterlyRate(0.045), 1e-12, "4.5%% annual should quarter to 1.125%%")
	assert.Equal(t, 0.0, QuarterlyRate(0), "zero annual rate should stay zero")
}

func TestCompoundingPeriods(t *testing.T) {
	assert.Equal(t, 20, CompoundingPeriods(5), "5 years should give 20 quarterly periods")
	assert.Equal(t, 4, CompoundingPeriods(1), "1 year should give 4 quarterly periods")
}

func TestCompoundInterest(t *testing.T) {
	// Reference scenario: $10000 at 4.5% annual, quarterly compounding, 5 years.
	got := CompoundInterest(10000, QuarterlyRate(0.045), CompoundingPeriods(5))
	assert.InDelta(t, 12507.51, got, 0.01, "reference scenario final amount")

	// Zero rate leaves the principal untouched regardless of periods.
	assert.InDelta(t, 10000, CompoundInterest(10000, 0, 20), 1e-9, "zero rate should not grow")
}

func TestBonus(t *testing.T) {
	assert.InDelta(t, 50.0, Bonus(10000, 0.005), 1e-9, "0.5%% bonus on $10000")
	assert.Equal(t, 0.0, Bonus(10000, 0), "zero bonus rate should pay nothing")
}

func TestVerifiers(t *testing.T) {
	assert.True(t, VerifyCalculation(12507.51, 10000), "grown amount should verify")
	assert.False(t, VerifyCalculation(10000, 10000), "unchanged amount should not verify")
	assert.False(t, VerifyCalculation(9000, 10000), "shrunk amount should not verify")

	assert.True(t, VerifyQuarterlyRate(0.01125, 0.045), "proper quarterly rate should verify")
	assert.False(t, VerifyQuarterlyRate(0.045, 0.045), "equal rates should not verify")
	assert.False(t, VerifyQuarterlyRate(0.05, 0.045), "inflated rate should not verify")

	assert.True(t, VerifyCompoundingPeriods(20, 5), "20 periods over 5 years should verify")
	assert.False(t, VerifyCompoundingPeriods(21, 5), "off-by-one periods should not verify")
}

func TestArgsValidate(t *testing.T) {
	tests := []struct {
		name    string
		args    interface{ Validate() error }
		wantErr bool
	}{
		{"valid quarterly rate", QuarterlyRateArgs{AnnualRate: 0.045}, false},
		{"negative annual rate", QuarterlyRateArgs{AnnualRate: -0.01}, true},
		{"valid periods", CompoundingPeriodsArgs{Years: 5}, false},
		{"zero years", CompoundingPeriodsArgs{Years: 0}, true},
		{"valid compound interest", CompoundInterestArgs{Principal: 10000, Rate: 0.01125, Periods: 20}, false},
		{"zero principal", CompoundInterestArgs{Principal: 0, Rate: 0.01125, Periods: 20}, true},
		{"negative rate", CompoundInterestArgs{Principal: 10000, Rate: -0.1, Periods: 20}, true},
		{"zero periods", CompoundInterestArgs{Principal: 10000, Rate: 0.01125, Periods: 0}, true},
		{"valid bonus", BonusArgs{Principal: 10000, BonusRate: 0.005}, false},
		{"negative bonus rate", BonusArgs{Principal: 10000, BonusRate: -0.005}, true},
		{"valid verify calculation", VerifyCalculationArgs{FinalAmount: 12507.51, Principal: 10000}, false},
		{"verify calculation without principal", VerifyCalculationArgs{FinalAmount: 12507.51}, true},
		{"valid verify quarterly rate", VerifyQuarterlyRateArgs{QuarterlyRate: 0.01125, AnnualRate: 0.045}, false},
		{"valid verify periods", VerifyCompoundingPeriodsArgs{Periods: 20, Years: 5}, false},
		{"verify periods without years", VerifyCompoundingPeriodsArgs{Periods: 20}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.args.Validate()
			if tt.wantErr {
				assert.Error(t, err, "expected validation to fail")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestToolsMatchSpecs(t *testing.T) {
	tools := Tools()
	specs := Specs()
	require.Len(t, tools, len(specs), "every spec should have a callable tool")

	for i, tl := range tools {
		decl := tl.Declaration()
		require.NotNil(t, decl, "tool %d should declare itself", i)
		assert.Equal(t, specs[i].Name, decl.Name, "tool order should match spec order")
		assert.Equal(t, specs[i].Description, decl.Description, "description should come from the spec")
		require.NotNil(t, decl.InputSchema, "%s should have an input schema", decl.Name)
		for _, p := range specs[i].Params {
			prop, ok := decl.InputSchema.Properties[p.Name]
			require.True(t, ok, "%s schema should declare %q", decl.Name, p.Name)
			assert.Equal(t, string(p.Kind), prop.Type, "%s.%s schema type", decl.Name, p.Name)
		}
	}
}

func TestToolCallEndToEnd(t *testing.T) {
	ctx := context.Background()
	tools := Tools()

	rate, err := tools[0].Call(ctx, []byte(`{"annual_rate":0.045}`))
	require.NoError(t, err, "quarterly rate call failed")
	assert.InDelta(t, 0.01125, rate.(float64), 1e-12, "quarterly rate result")

	periods, err := tools[1].Call(ctx, []byte(`{"years":5}`))
	require.NoError(t, err, "compounding periods call failed")
	assert.Equal(t, 20, periods.(int), "compounding periods result")

	final, err := tools[2].Call(ctx, []byte(`{"principal":10000,"rate":0.01125,"periods":20}`))
	require.NoError(t, err, "compound interest call failed")
	assert.InDelta(t, 12507.51, final.(float64), 0.01, "compound interest result")

	verified, err := tools[4].Call(ctx, []byte(`{"final_amount":12507.51,"principal":10000}`))
	require.NoError(t, err, "verify calculation call failed")
	assert.Equal(t, true, verified, "verification result")

	_, err = tools[2].Call(ctx, []byte(`{"principal":-1,"rate":0.01125,"periods":20}`))
	assert.Error(t, err, "invalid principal should be rejected before calculation")
}
