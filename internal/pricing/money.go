package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxMargin caps every margin percentage before it reaches a price formula.
const MaxMargin = 95.0

// Round2 rounds a currency value to cents. Non-finite values collapse to 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ParseAmount parses user-typed numeric input. Anything that is not a number
// yields 0 so a half-typed value never becomes an error.
func ParseAmount(raw string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// FormatMoney renders an amount as "$12.50".
func FormatMoney(v float64) string {
	return "$" + decimal.NewFromFloat(Round2(v)).StringFixed(2)
}

// ClampPercent limits a margin percentage to [0, MaxMargin].
func ClampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > MaxMargin {
		return MaxMargin
	}
	return v
}

func nonNeg(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// PriceFromMargin returns the selling price that yields margin percent over cost.
func PriceFromMargin(cost, margin float64) float64 {
	if cost <= 0 {
		return 0
	}
	return Round2(cost / (1 - ClampPercent(margin)/100))
}

// MarginFromPrice is the inverse of PriceFromMargin, clamped to [0, MaxMargin].
func MarginFromPrice(cost, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return Round2(ClampPercent((price - cost) / price * 100))
}
