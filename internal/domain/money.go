package domain

import "github.com/shopspring/decimal"

// DefaultCurrencyPrecision is the number of minor-unit digits used when nothing else is configured
const DefaultCurrencyPrecision int32 = 2

// MaxAmountScale is the largest number of decimal places a stored price or total keeps.
// It matches the scale of the money columns in every SQL schema.
const MaxAmountScale int32 = 8

// LineTotal multiplies a unit price by a quantity without rounding
func LineTotal(price decimal.Decimal, quantity int32) decimal.Decimal {
	return price.Mul(decimal.NewFromInt32(quantity))
}

// RoundAmount rounds half away from zero to the given number of decimal places
func RoundAmount(amount decimal.Decimal, places int32) decimal.Decimal {
	return amount.Round(places)
}

// FormatAmount renders an amount with exactly places digits after the point
func FormatAmount(amount decimal.Decimal, places int32) string {
	return amount.StringFixed(places)
}

// FitsScale reports whether amount has no more than places significant decimal places
func FitsScale(amount decimal.Decimal, places int32) bool {
	return amount.Equal(amount.Truncate(places))
}

// ParseAmount parses a decimal string, rejecting negative values
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}
