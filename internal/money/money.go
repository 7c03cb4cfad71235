// Package money converts storefront prices (major currency units) into the
// integer minor units the payment gateway expects.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ToMinor rounds price*100 half away from zero, so 219.905 becomes 21991.
// The float is read through its shortest decimal representation, which keeps
// values like 219.905 from being truncated by binary rounding.
func ToMinor(price float64) int64 {
	return Minor(decimal.NewFromFloat(price))
}

// Minor converts an already-decimal major amount.
func Minor(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// LineTotal is unitPrice*quantity in major units.
func LineTotal(unitPrice float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
}

// FromMinor turns minor units back into a major amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
