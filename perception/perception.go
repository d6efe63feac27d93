//
// Tencent is pleased to support the open source community by making compound-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// compound-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package perception turns raw user text into a structured view the agent
// can plan from: an intent, the numeric entities a compound-interest
// calculation needs, and a confidence. Extraction is deterministic regex
// work, so the same query always perceives the same way.
package perception

import (
	"regexp"
	"strconv"
	"strings"
)

// Intent classifies what the user is asking for.
type Intent string

// Recognized intents.
const (
	// IntentCalculation is a compound-interest calculation request; the
	// agent answers it with a fixed execution plan.
	IntentCalculation Intent = "calculate_compound_interest"
	// IntentGeneral is anything else; the agent hands it to the model loop.
	IntentGeneral Intent = "general_query"
)

// Defaults substituted for entities the query does not spell out.
const (
	DefaultPrincipal  = 10000.0
	DefaultAnnualRate = 0.045
	DefaultYears      = 5
	DefaultBonusRate  = 0.005
)

// Entities are the numeric values extracted from a calculation query.
// Absent values are filled with the documented defaults; BonusRate is
// meaningful only when HasBonus is set.
type Entities struct {
	Principal  float64 `json:"principal"`
	AnnualRate float64 `json:"annual_rate"`
	Years      int     `json:"years"`
	BonusRate  float64 `json:"bonus_rate,omitempty"`
	HasBonus   bool    `json:"has_bonus,omitempty"`
}

// Result is the structured perception of one query.
type Result struct {
	// Input is the original query text.
	Input string `json:"input"`
	// Intent classifies the query.
	Intent Intent `json:"intent"`
	// Entities holds the extracted values; zero for general queries.
	Entities Entities `json:"entities"`
	// Confidence is 1.0 for recognized calculations and lower otherwise.
	Confidence float64 `json:"confidence"`
}

// Extractor produces a perception result for a gated query.
type Extractor interface {
	Perceive(query string) (*Result, error)
}

// Extraction patterns. The principal is the first dollar amount in the
// text and may carry thousands separators; bare numbers are left alone
// so a year count is never mistaken for money. Rates are percentages,
// the bonus rate only counts when introduced by the word "bonus".
var (
	principalRe = regexp.MustCompile(`\$(\d+(?:,\d{3})*(?:\.\d{2})?)`)
	rateRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
	yearsRe     = regexp.MustCompile(`(\d+)\s*years?`)
	bonusRe     = regexp.MustCompile(`bonus\s*of\s*(\d+(?:\.\d+)?)%`)
)

// RegexExtractor is the default Extractor. It recognizes a query as a
// calculation when it mentions compound interest, either as the literal
// term or as interest together with compounding ("interest rate of
// 4.5%, compounded quarterly"), and reads the entities with the
// patterns above.
type RegexExtractor struct{}

// NewRegexExtractor returns a new RegexExtractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Perceive gates the query and extracts intent and entities. Gate
// failures are returned as errors; the caller decides how to present
// them.
func (e *RegexExtractor) Perceive(query string) (*Result, error) {
	if err := Gate(query); err != nil {
		return nil, err
	}

	lowered := strings.ToLower(query)
	if !mentionsCompoundInterest(lowered) {
		return &Result{
			Input:      query,
			Intent:     IntentGeneral,
			Confidence: 0.5,
		}, nil
	}

	entities := Entities{
		Principal:  DefaultPrincipal,
		AnnualRate: DefaultAnnualRate,
		Years:      DefaultYears,
	}
	if m := principalRe.FindStringSubmatch(query); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			entities.Principal = v
		}
	}
	if m := rateRe.FindStringSubmatch(query); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			entities.AnnualRate = v / 100
		}
	}
	if m := yearsRe.FindStringSubmatch(query); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			entities.Years = v
		}
	}
	if strings.Contains(lowered, "bonus") {
		entities.HasBonus = true
		entities.BonusRate = DefaultBonusRate
		if m := bonusRe.FindStringSubmatch(lowered); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				entities.BonusRate = v / 100
			}
		}
	}

	return &Result{
		Input:      query,
		Intent:     IntentCalculation,
		Entities:   entities,
		Confidence: 1.0,
	}, nil
}

func mentionsCompoundInterest(lowered string) bool {
	if strings.Contains(lowered, "compound interest") {
		return true
	}
	return strings.Contains(lowered, "interest") && strings.Contains(lowered, "compound")
}
