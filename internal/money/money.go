// Package money holds the decimal helpers shared by every price
// computation. All monetary arithmetic in the cart and catalog goes
// through shopspring decimals; binary floats never enter the pricing
// pipeline.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits carried by currency
// amounts.
const Precision = 2

// Round rounds an amount to currency precision using half-up rounding.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}

// RoundTo rounds an amount to the given number of fractional digits
// using half-up rounding.
func RoundTo(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// Parse converts an exact numeric string into a decimal amount.
func Parse(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Decimal{}, fmt.Errorf("parse amount: empty value")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", value, err)
	}
	return d, nil
}

// MustParse is Parse for trusted literals, typically defaults and tests.
func MustParse(value string) decimal.Decimal {
	d, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Sum adds the given amounts without rounding.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
