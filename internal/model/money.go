package model

import "github.com/shopspring/decimal"

// MinorUnitExponent is the number of decimal places in the platform currency.
const MinorUnitExponent = 2

// FormatMinor renders an amount of minor units as a decimal string, e.g. 200 -> "2.00".
func FormatMinor(amount int64) string {
	return decimal.New(amount, -MinorUnitExponent).StringFixed(MinorUnitExponent)
}
