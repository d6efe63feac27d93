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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInputClosed reports that the interactive input ended before the
// questions were answered.
var ErrInputClosed = errors.New("input closed before the survey finished")

// SurveyOption is one selectable answer of a survey question.
type SurveyOption struct {
	// Key is the letter the user types.
	Key string
	// Label is the text printed next to the key.
	Label string
	// Value is the preference value stored for this answer.
	Value string
}

// SurveyQuestion is one multiple-choice question of the investment survey.
type SurveyQuestion struct {
	// Title is the short heading, e.g. "Risk Level:".
	Title string
	// Prompt is the full question text.
	Prompt string
	// Options are the selectable answers in display order.
	Options []SurveyOption

	assign func(*Investment, string)
}

// Answer applies the option with the given key to the investment record.
// It returns false when the key matches no option.
func (q SurveyQuestion) Answer(investment *Investment, key string) bool {
	for _, option := range q.Options {
		if option.Key == strings.ToLower(key) {
			q.assign(investment, option.Value)
			return true
		}
	}
	return false
}

// SurveyQuestions returns the seven investment survey questions in order.
func SurveyQuestions() []SurveyQuestion {
	return []SurveyQuestion{
		{
			Title:  "Investment Duration:",
			Prompt: "How long are you planning to keep your money invested?",
			Options: []SurveyOption{
				{Key: "a", Label: "Less than 1 year", Value: "Less than 1 year"},
				{Key: "b", Label: "1–3 years", Value: "1–3 years"},
				{Key: "c", Label: "3–5 years", Value: "3–5 years"},
				{Key: "d", Label: "More than 5 years", Value: "More than 5 years"},
			},
			assign: func(inv *Investment, v string) { inv.InvestmentDuration = v },
		},
		{
			Title:  "Risk Level:",
			Prompt: "What's your risk tolerance for this investment?",
			Options: []SurveyOption{
				{Key: "a", Label: "Low risk (I prefer stable returns)", Value: "Low risk (stable returns)"},
				{Key: "b", Label: "Medium risk (I'm open to some fluctuations)", Value: "Medium risk (some fluctuations)"},
				{Key: "c", Label: "High risk (I'm okay with volatility for higher returns)", Value: "High risk (volatility for higher returns)"},
			},
			assign: func(inv *Investment, v string) { inv.RiskLevel = v },
		},
		{
			Title:  "Compounding Frequency:",
			Prompt: "How frequently would you like the interest to compound?",
			Options: []SurveyOption{
				{Key: "a", Label: "Annually", Value: "Annually"},
				{Key: "b", Label: "Quarterly", Value: "Quarterly"},
				{Key: "c", Label: "Monthly", Value: "Monthly"},
				{Key: "d", Label: "Daily", Value: "Daily"},
			},
			assign: func(inv *Investment, v string) { inv.CompoundingFrequency = v },
		},
		{
			Title:  "Additional Contributions:",
			Prompt: "Will you be making additional contributions to the investment over time?",
			Options: []SurveyOption{
				{Key: "a", Label: "Yes, I plan to contribute regularly", Value: "Regular contributions"},
				{Key: "b", Label: "Yes, but only occasionally", Value: "Occasional contributions"},
				{Key: "c", Label: "No, it's a one-time investment", Value: "One-time investment"},
			},
			assign: func(inv *Investment, v string) { inv.AdditionalContributions = v },
		},
		{
			Title:  "Interest Rate Preference:",
			Prompt: "Would you prefer a fixed interest rate, or are you open to a fluctuating rate over time?",
			Options: []SurveyOption{
				{Key: "a", Label: "Fixed rate", Value: "Fixed rate"},
				{Key: "b", Label: "Fluctuating rate", Value: "Fluctuating rate"},
				{Key: "c", Label: "I'm not sure yet", Value: "Undecided"},
			},
			assign: func(inv *Investment, v string) { inv.InterestRatePreference = v },
		},
		{
			Title:  "Withdrawal Strategy:",
			Prompt: "Do you plan to withdraw any of the investment during the investment period?",
			Options: []SurveyOption{
				{Key: "a", Label: "Yes, periodically (e.g., annually, quarterly)", Value: "Periodic withdrawals"},
				{Key: "b", Label: "No, I plan to leave the investment intact", Value: "No withdrawals"},
				{Key: "c", Label: "I'm not sure", Value: "Undecided"},
			},
			assign: func(inv *Investment, v string) { inv.WithdrawalStrategy = v },
		},
		{
			Title:  "Output Preference:",
			Prompt: "How would you like to see the results?",
			Options: []SurveyOption{
				{Key: "a", Label: "A detailed breakdown of each compounding period", Value: "Detailed breakdown"},
				{Key: "b", Label: "A final amount at the end of the investment period", Value: "Final amount only"},
				{Key: "c", Label: "A graph/chart showing growth over time", Value: "Growth chart"},
			},
			assign: func(inv *Investment, v string) { inv.OutputPreference = v },
		},
	}
}

// RunSurvey asks the seven investment questions over the given
// reader/writer and returns the collected answers. Invalid choices are
// re-asked.
func RunSurvey(r io.Reader, w io.Writer) (*Investment, error) {
	scanner := bufio.NewScanner(r)
	investment := &Investment{}

	fmt.Fprintln(w, "\n=== Investment Preference Collection ===")
	fmt.Fprintln(w, "Please answer the following questions to personalize your investment calculations.")
	fmt.Fprintln(w)

	for i, question := range SurveyQuestions() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, question.Title)
		fmt.Fprintln(w, question.Prompt)
		for _, option := range question.Options {
			fmt.Fprintf(w, "   %s) %s\n", option.Key, option.Label)
		}

		lastKey := question.Options[len(question.Options)-1].Key
		for {
			fmt.Fprintf(w, "Your choice (a-%s): ", lastKey)
			if !scanner.Scan() {
				return nil, ErrInputClosed
			}
			choice := strings.TrimSpace(scanner.Text())
			if question.Answer(investment, choice) {
				break
			}
			fmt.Fprintf(w, "Invalid choice. Please select %s.\n", choiceList(question.Options))
		}
	}

	fmt.Fprintln(w, "\n=== Preferences Saved Successfully ===")
	return investment, nil
}

// choiceList renders option keys as "a, b, or c".
func choiceList(options []SurveyOption) string {
	keys := make([]string, len(options))
	for i, option := range options {
		keys[i] = option.Key
	}
	if len(keys) == 1 {
		return keys[0]
	}
	return strings.Join(keys[:len(keys)-1], ", ") + ", or " + keys[len(keys)-1]
}

// RunProfileSetup asks for the agent profile (name, personality, response
// style, memory retention) and returns a record without survey answers.
func RunProfileSetup(r io.Reader, w io.Writer) (*Preferences, error) {
	scanner := bufio.NewScanner(r)

	readLine := func(prompt string) (string, error) {
		fmt.Fprint(w, prompt)
		if !scanner.Scan() {
			return "", ErrInputClosed
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	agentName, err := readLine("What would you like to name your agent? ")
	if err != nil {
		return nil, err
	}
	personality, err := readLine("What personality should the agent have? (e.g., friendly, professional, creative) ")
	if err != nil {
		return nil, err
	}
	responseStyle, err := readLine("What response style do you prefer? (e.g., formal, casual, technical) ")
	if err != nil {
		return nil, err
	}

	var retention int
	for {
		answer, err := readLine("How many previous interactions should the agent remember? (1-100) ")
		if err != nil {
			return nil, err
		}
		retention, err = strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintln(w, "Please enter a valid number.")
			continue
		}
		if retention >= MinMemoryRetention && retention <= MaxMemoryRetention {
			break
		}
		fmt.Fprintln(w, "Please enter a number between 1 and 100.")
	}

	return &Preferences{
		AgentName:       agentName,
		Personality:     personality,
		ResponseStyle:   responseStyle,
		MemoryRetention: retention,
	}, nil
}
