// Package money converts decimal amounts to the integer minor units used by
// the payment processor.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitsPerMajor is 100 for every currency the marketplace settles in.
const MinorUnitsPerMajor = 100

var hundred = decimal.NewFromInt(MinorUnitsPerMajor)

// ToMinor rounds to the nearest minor unit (half away from zero).
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinor is the inverse of ToMinor for amounts reported by the processor.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// Round2 rounds to two decimal places for presentation and persistence.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// LineTotal multiplies a unit price by quantity.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// ValidatePrice rejects negative prices.
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("price must be >= 0, got %s", price.String())
	}
	return nil
}
