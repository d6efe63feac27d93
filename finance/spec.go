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
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrUnknownTool is returned when a tool name has no registered spec.
var ErrUnknownTool = errors.New("finance: unknown tool")

// ValueKind is the wire type of a tool parameter or result.
type ValueKind string

// Value kinds. Parameters are numbers or integers; results add booleans
// for the verifier tools.
const (
	KindNumber  ValueKind = "number"
	KindInteger ValueKind = "integer"
	KindBoolean ValueKind = "boolean"
)

// Param describes one named tool parameter.
type Param struct {
	Name        string
	Kind        ValueKind
	Description string
}

// Spec describes one tool: its wire name, the ordered parameter list and
// the result kind. The parameter order is load-bearing: model function
// calls pass arguments positionally and are mapped onto names in this
// order.
type Spec struct {
	Name        string
	Description string
	Params      []Param
	Result      ValueKind
}

var specs = []Spec{
	{
		Name:        ToolQuarterlyRate,
		Description: "Calculate the quarterly interest rate from the annual rate",
		Params: []Param{
			{Name: "annual_rate", Kind: KindNumber, Description: "Annual interest rate as a decimal"},
		},
		Result: KindNumber,
	},
	{
		Name:        ToolCompoundingPeriods,
		Description: "Calculate the number of compounding periods for quarterly compounding",
		Params: []Param{
			{Name: "years", Kind: KindInteger, Description: "Investment duration in years"},
		},
		Result: KindInteger,
	},
	{
		Name:        ToolCompoundInterest,
		Description: "Calculate compound interest using the formula A = P(1 + r)^n",
		Params: []Param{
			{Name: "principal", Kind: KindNumber, Description: "Initial investment amount"},
			{Name: "rate", Kind: KindNumber, Description: "Interest rate per compounding period as a decimal"},
			{Name: "periods", Kind: KindInteger, Description: "Number of compounding periods"},
		},
		Result: KindNumber,
	},
	{
		Name:        ToolBonus,
		Description: "Calculate the bonus amount on the principal",
		Params: []Param{
			{Name: "principal", Kind: KindNumber, Description: "Amount the bonus applies to"},
			{Name: "bonus_rate", Kind: KindNumber, Description: "Bonus rate as a decimal"},
		},
		Result: KindNumber,
	},
	{
		Name:        ToolVerifyCalculation,
		Description: "Verify that the final amount is greater than the principal",
		Params: []Param{
			{Name: "final_amount", Kind: KindNumber, Description: "Computed final amount"},
			{Name: "principal", Kind: KindNumber, Description: "Initial investment amount"},
		},
		Result: KindBoolean,
	},
	{
		Name:        ToolVerifyQuarterlyRate,
		Description: "Verify that the quarterly rate is less than the annual rate",
		Params: []Param{
			{Name: "quarterly_rate", Kind: KindNumber, Description: "Computed quarterly rate"},
			{Name: "annual_rate", Kind: KindNumber, Description: "Annual interest rate as a decimal"},
		},
		Result: KindBoolean,
	},
	{
		Name:        ToolVerifyCompoundingPeriods,
		Description: "Verify that the number of compounding periods is correct",
		Params: []Param{
			{Name: "periods", Kind: KindInteger, Description: "Computed number of periods"},
			{Name: "years", Kind: KindInteger, Description: "Investment duration in years"},
		},
		Result: KindBoolean,
	},
}

var specIndex = buildSpecIndex()

func buildSpecIndex() map[string]*Spec {
	idx := make(map[string]*Spec, len(specs))
	for i := range specs {
		idx[specs[i].Name] = &specs[i]
	}
	return idx
}

// Specs returns the specs of all tools in presentation order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// SpecFor returns the spec registered for the tool name.
func SpecFor(name string) (Spec, bool) {
	s, ok := specIndex[name]
	if !ok {
		return Spec{}, false
	}
	return *s, true
}

// ParseArguments checks a named argument map against the tool's spec and
// returns a copy with every value coerced to its declared kind (float64
// for numbers, int for integers). Missing, surplus and uncoercible
// arguments all fail: callers rely on the result being canonical, the
// plan engine in particular derives step signatures from it.
func ParseArguments(name string, args map[string]any) (map[string]any, error) {
	spec, ok := specIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	out := make(map[string]any, len(spec.Params))
	for _, p := range spec.Params {
		raw, ok := args[p.Name]
		if !ok {
			return nil, fmt.Errorf("%s: missing argument %q", name, p.Name)
		}
		v, err := coerce(p.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %q: %w", name, p.Name, err)
		}
		out[p.Name] = v
	}
	if len(args) > len(spec.Params) {
		for k := range args {
			if _, ok := out[k]; !ok {
				return nil, fmt.Errorf("%s: unexpected argument %q", name, k)
			}
		}
	}
	return out, nil
}

// ParsePositional maps the positional string parameters of a model
// function call onto the tool's named arguments, coercing each one to
// its declared kind.
func ParsePositional(name string, params []string) (map[string]any, error) {
	spec, ok := specIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if len(params) != len(spec.Params) {
		return nil, fmt.Errorf("%s: expected %d parameters, got %d", name, len(spec.Params), len(params))
	}
	out := make(map[string]any, len(spec.Params))
	for i, p := range spec.Params {
		v, err := coerce(p.Kind, params[i])
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %q: %w", name, p.Name, err)
		}
		out[p.Name] = v
	}
	return out, nil
}

// NormalizeResult coerces a raw tool result to the tool's declared result
// kind. Results arriving over MCP come back as text content, so string
// forms of numbers and booleans are accepted.
func NormalizeResult(name string, raw any) (any, error) {
	spec, ok := specIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	v, err := coerce(spec.Result, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: result: %w", name, err)
	}
	return v, nil
}

// FormatValue renders a tool value the way it appears on the wire: plain
// decimal notation for numbers, true/false for booleans.
func FormatValue(v any) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerce(kind ValueKind, raw any) (any, error) {
	switch kind {
	case KindNumber:
		return coerceNumber(raw)
	case KindInteger:
		return coerceInteger(raw)
	case KindBoolean:
		return coerceBoolean(raw)
	default:
		return nil, fmt.Errorf("unsupported value kind %q", kind)
	}
}

func coerceNumber(raw any) (float64, error) {
	switch t := raw.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q as a number", t)
		}
		return v, nil
	default:
		return 0, fmt.Errorf("cannot use %T as a number", raw)
	}
}

func coerceInteger(raw any) (int, error) {
	switch t := raw.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if math.Trunc(t) != t {
			return 0, fmt.Errorf("cannot use %v as an integer", t)
		}
		return int(t), nil
	case json.Number:
		if v, err := t.Int64(); err == nil {
			return int(v), nil
		}
		f, err := t.Float64()
		if err != nil || math.Trunc(f) != f {
			return 0, fmt.Errorf("cannot parse %q as an integer", t.String())
		}
		return int(f), nil
	case string:
		if v, err := strconv.Atoi(t); err == nil {
			return v, nil
		}
		// Models occasionally emit integers with a decimal point.
		f, err := strconv.ParseFloat(t, 64)
		if err != nil || math.Trunc(f) != f {
			return 0, fmt.Errorf("cannot parse %q as an integer", t)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("cannot use %T as an integer", raw)
	}
}

func coerceBoolean(raw any) (bool, error) {
	switch t := raw.(type) {
	case bool:
		return t, nil
	case string:
		v, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("cannot parse %q as a boolean", t)
		}
		return v, nil
	default:
		return false, fmt.Errorf("cannot use %T as a boolean", raw)
	}
}
