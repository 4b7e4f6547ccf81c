// Package normalize canonicalizes the raw values found in priced tender
// cells and the names used to key contractors and sections.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind discriminates the canonical forms of a priced cell.
type CellKind string

const (
	KindAmount CellKind = "amount"
	KindLabel  CellKind = "label"
	KindEmpty  CellKind = "empty"
)

// CellValue is the canonical form of a priced cell: exactly one of a
// numeric amount (2dp), a verbatim text label, or empty.
type CellValue struct {
	Kind   CellKind `json:"kind"`
	Amount float64  `json:"amount,omitempty"`
	Label  string   `json:"label,omitempty"`
}

// Empty is the canonical blank cell.
var Empty = CellValue{Kind: KindEmpty}

// Amount builds an amount cell, rounded to 2dp.
func Amount(v float64) CellValue {
	return CellValue{Kind: KindAmount, Amount: Round2(v)}
}

// Label builds a label cell carrying s verbatim.
func Label(s string) CellValue {
	return CellValue{Kind: KindLabel, Label: s}
}

// currencyStripper removes dollar signs and thousands-separator commas.
var currencyStripper = strings.NewReplacer("$", "", ",", "")

// Cell maps a raw extracted cell value onto its canonical form. Rules
// apply in order:
//  1. A finite number becomes an amount, rounded to 2dp.
//  2. nil and blank strings become empty.
//  3. Currency decoration ($, thousands commas, surrounding whitespace
//     including NBSP) is stripped.
//  4. A "(...)" accounting wrapper negates the inner value.
//  5. Text that now parses as a finite decimal becomes an amount.
//  6. Anything else is kept verbatim as a label, never coerced to zero.
//
// Cell is idempotent: feeding a CellValue back in returns it unchanged.
func Cell(raw any) CellValue {
	switch v := raw.(type) {
	case nil:
		return Empty
	case CellValue:
		return v
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return fromFloat(float64(v))
	case int32:
		return fromFloat(float64(v))
	case int64:
		return fromFloat(float64(v))
	case string:
		return fromString(v)
	default:
		return fromString(fmt.Sprintf("%v", v))
	}
}

// Apply classifies a raw cell into the amount/amountLabel pair stored on
// response items and exceptions. At most one of the two is set.
func Apply(raw any) (amount *float64, label string) {
	switch cv := Cell(raw); cv.Kind {
	case KindAmount:
		v := cv.Amount
		return &v, ""
	case KindLabel:
		return nil, cv.Label
	default:
		return nil, ""
	}
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func fromFloat(v float64) CellValue {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		// Not finite; the printed form goes through text handling.
		return fromString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return CellValue{Kind: KindAmount, Amount: Round2(v)}
}

func fromString(raw string) CellValue {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Empty
	}

	cleaned := strings.TrimSpace(currencyStripper.Replace(trimmed))

	// Accounting negative: (7758.23) reads as -7758.23.
	negated := false
	if len(cleaned) > 2 && strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
		negated = true
	}

	if f, err := strconv.ParseFloat(cleaned, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		if negated {
			f = -f
		}
		return CellValue{Kind: KindAmount, Amount: Round2(f)}
	}

	// Not a number: the original trimmed text survives verbatim.
	return CellValue{Kind: KindLabel, Label: trimmed}
}
