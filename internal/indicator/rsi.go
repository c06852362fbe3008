package indicator

import "math"

// RSIWilder returns Wilder-smoothed RSI.
//
// Average gain/loss are seeded with the simple mean of the first period deltas and
// smoothed from index period+1 onward. A zero average loss saturates RSI at 100.
// When both averages are zero (no price movement) the value is NaN.
func RSIWilder(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta >= 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	p := float64(period)
	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		avgGain = (avgGain*(p-1) + math.Max(delta, 0)) / p
		avgLoss = (avgLoss*(p-1) + math.Max(-delta, 0)) / p

		switch {
		case !Valid(avgGain) || !Valid(avgLoss):
			// NaN/Inf in input poisons the averages; leave undefined
		case avgLoss == 0 && avgGain == 0:
			// flat: undefined
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}
