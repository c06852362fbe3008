package indicator

// ROC returns the percentage rate of change against values[i-period].
// Undefined when i < period or the base is zero; period <= 0 or period >= len gives all NaN.
func ROC(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || period >= len(values) {
		return out
	}

	for i := period; i < len(values); i++ {
		previous := values[i-period]
		if previous == 0 {
			continue
		}
		out[i] = (values[i] - previous) / previous * 100
	}
	return out
}
