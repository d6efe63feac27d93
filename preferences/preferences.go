//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package preferences stores how the user wants the agent to behave: the
// agent profile (name, personality, response style, memory retention) and
// the investment survey answers rendered into the decision prompt.
package preferences

import (
	"errors"
	"fmt"
	"strings"
)

// Memory retention bounds, matching what the profile setup accepts.
const (
	MinMemoryRetention     = 1
	MaxMemoryRetention     = 100
	DefaultMemoryRetention = 50
)

// ErrInvalidRetention reports a memory retention outside [1, 100].
var ErrInvalidRetention = errors.New("memory retention must be between 1 and 100")

// Investment holds the answers of the investment preference survey.
type Investment struct {
	InvestmentDuration      string `json:"investment_duration"`
	RiskLevel               string `json:"risk_level"`
	CompoundingFrequency    string `json:"compounding_frequency"`
	AdditionalContributions string `json:"additional_contributions"`
	InterestRatePreference  string `json:"interest_rate_preference"`
	WithdrawalStrategy      string `json:"withdrawal_strategy"`
	OutputPreference        string `json:"output_preference"`
}

// Preferences is the persisted preference record for one user.
type Preferences struct {
	AgentName       string      `json:"agent_name"`
	Personality     string      `json:"personality"`
	ResponseStyle   string      `json:"response_style"`
	MemoryRetention int         `json:"memory_retention"`
	Investment      *Investment `json:"investment,omitempty"`
}

// Validate checks the record before it is persisted.
func (p Preferences) Validate() error {
	if p.MemoryRetention < MinMemoryRetention || p.MemoryRetention > MaxMemoryRetention {
		return fmt.Errorf("%w: got %d", ErrInvalidRetention, p.MemoryRetention)
	}
	return nil
}

// FormatForPrompt renders the preferences into the text block the decision
// prompt carries. Only the investment answers are rendered.
func (p Preferences) FormatForPrompt() string {
	if p.Investment == nil {
		return "No user preferences available."
	}

	var b strings.Builder
	b.WriteString("User Preferences:\n")
	b.WriteString("- Investment Duration: " + p.Investment.InvestmentDuration + "\n")
	b.WriteString("- Risk Level: " + p.Investment.RiskLevel + "\n")
	b.WriteString("- Compounding Frequency: " + p.Investment.CompoundingFrequency + "\n")
	b.WriteString("- Additional Contributions: " + p.Investment.AdditionalContributions + "\n")
	b.WriteString("- Interest Rate Preference: " + p.Investment.InterestRatePreference + "\n")
	b.WriteString("- Withdrawal Strategy: " + p.Investment.WithdrawalStrategy + "\n")
	b.WriteString("- Output Preference: " + p.Investment.OutputPreference + "\n")
	return b.String()
}
