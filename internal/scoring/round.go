package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-signal/backend/internal/indicator"
)

// roundTick rounds a price to the integer currency unit (half away from zero)
func roundTick(v float64) float64 {
	return roundPlaces(v, 0)
}

func round2(v float64) float64 {
	return roundPlaces(v, 2)
}

// roundPlaces rounds in decimal space so 2.675 → 2.68 (float math gives 2.67)
func roundPlaces(v float64, places int32) float64 {
	if !indicator.Valid(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
