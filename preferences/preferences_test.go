//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

package preferences

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvestment() Investment {
	return Investment{
		InvestmentDuration:      "More than 5 years",
		RiskLevel:               "Low risk (stable returns)",
		CompoundingFrequency:    "Quarterly",
		AdditionalContributions: "One-time investment",
		InterestRatePreference:  "Fixed rate",
		WithdrawalStrategy:      "No withdrawals",
		OutputPreference:        "Final amount only",
	}
}

func TestPreferences_Validate(t *testing.T) {
	valid := Preferences{AgentName: "Echo", MemoryRetention: 50}
	assert.NoError(t, valid.Validate())

	tooLow := Preferences{MemoryRetention: 0}
	assert.ErrorIs(t, tooLow.Validate(), ErrInvalidRetention)

	tooHigh := Preferences{MemoryRetention: 101}
	assert.ErrorIs(t, tooHigh.Validate(), ErrInvalidRetention)
}

func TestPreferences_FormatForPrompt(t *testing.T) {
	empty := Preferences{AgentName: "Echo", MemoryRetention: 10}
	assert.Equal(t, "No user preferences available.", empty.FormatForPrompt(),
		"Without survey answers there is nothing to render")

	investment := sampleInvestment()
	prefs := Preferences{AgentName: "Echo", MemoryRetention: 10, Investment: &investment}
	want := "User Preferences:\n" +
		"- Investment Duration: More than 5 years\n" +
		"- Risk Level: Low risk (stable returns)\n" +
		"- Compounding Frequency: Quarterly\n" +
		"- Additional Contributions: One-time investment\n" +
		"- Interest Rate Preference: Fixed rate\n" +
		"- Withdrawal Strategy: No withdrawals\n" +
		"- Output Preference: Final amount only\n"
	assert.Equal(t, want, prefs.FormatForPrompt())
}

func TestManager_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_preferences.json")

	manager, err := NewManager(WithPath(path))
	require.NoError(t, err)
	assert.False(t, manager.HasPreferences(), "Fresh manager should have nothing saved")

	investment := sampleInvestment()
	prefs := Preferences{
		AgentName:       "Echo",
		Personality:     "friendly",
		ResponseStyle:   "casual",
		MemoryRetention: 25,
		Investment:      &investment,
	}
	require.NoError(t, manager.Save(prefs))
	assert.True(t, manager.HasPreferences())

	// A second manager over the same file sees the saved record.
	reloaded, err := NewManager(WithPath(path))
	require.NoError(t, err)
	got, ok := reloaded.Preferences()
	require.True(t, ok, "Saved record should be loaded")
	assert.Equal(t, "Echo", got.AgentName)
	assert.Equal(t, 25, got.MemoryRetention)
	require.NotNil(t, got.Investment)
	assert.Equal(t, "Quarterly", got.Investment.CompoundingFrequency)
}

func TestManager_SaveValidates(t *testing.T) {
	manager, err := NewManager(WithPath(filepath.Join(t.TempDir(), "prefs.json")))
	require.NoError(t, err)

	err = manager.Save(Preferences{AgentName: "Echo", MemoryRetention: 0})
	assert.ErrorIs(t, err, ErrInvalidRetention)
	assert.False(t, manager.HasPreferences(), "Invalid record should not be kept")
}

func TestManager_SetInvestment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	manager, err := NewManager(WithPath(path))
	require.NoError(t, err)

	// Without a profile the retention defaults so the record stays valid.
	require.NoError(t, manager.SetInvestment(sampleInvestment()))
	got, ok := manager.Preferences()
	require.True(t, ok)
	assert.Equal(t, DefaultMemoryRetention, got.MemoryRetention)
	require.NotNil(t, got.Investment)

	// With a profile the survey answers merge into it.
	require.NoError(t, manager.Save(Preferences{
		AgentName:       "Echo",
		MemoryRetention: 30,
	}))
	require.NoError(t, manager.SetInvestment(sampleInvestment()))
	got, _ = manager.Preferences()
	assert.Equal(t, "Echo", got.AgentName)
	assert.Equal(t, 30, got.MemoryRetention)
	require.NotNil(t, got.Investment)
	assert.Equal(t, "Fixed rate", got.Investment.InterestRatePreference)
}

func TestManager_FormatForPrompt(t *testing.T) {
	manager, err := NewManager(WithPath(filepath.Join(t.TempDir(), "prefs.json")))
	require.NoError(t, err)
	assert.Equal(t, "No user preferences available.", manager.FormatForPrompt())

	require.NoError(t, manager.SetInvestment(sampleInvestment()))
	assert.Contains(t, manager.FormatForPrompt(), "- Risk Level: Low risk (stable returns)")
}
