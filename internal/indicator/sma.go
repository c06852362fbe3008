package indicator

// SMA returns the simple moving average of the trailing period values.
// Indices before period-1 are NaN; period <= 0 or period > len gives all NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || period > len(values) {
		return out
	}

	// 윈도우마다 다시 합산 (누적 오차 없음)
	for i := period - 1; i < len(values); i++ {
		var sum float64
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(period)
	}
	return out
}
