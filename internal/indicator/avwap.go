package indicator

// AVWAP returns the volume-weighted average price accumulated from anchor onward.
// Entries before the anchor, or while cumulative volume is still zero, are NaN.
// An out-of-range anchor or mismatched lengths give all NaN.
func AVWAP(prices []float64, volumes []int64, anchor int) []float64 {
	out := nanSeries(len(prices))
	if len(prices) != len(volumes) || anchor < 0 || anchor >= len(prices) {
		return out
	}

	var cumPV, cumV float64
	for i := anchor; i < len(prices); i++ {
		v := float64(volumes[i])
		if v < 0 {
			v = 0
		}
		cumPV += prices[i] * v
		cumV += v
		if cumV > 0 {
			out[i] = cumPV / cumV
		}
	}
	return out
}

// MultiAVWAP computes AVWAP once per anchor index
func MultiAVWAP(prices []float64, volumes []int64, anchors []int) [][]float64 {
	out := make([][]float64, len(anchors))
	for i, anchor := range anchors {
		out[i] = AVWAP(prices, volumes, anchor)
	}
	return out
}

// Anchors places anchor indices at the given fractions of a series length,
// each max(0, floor(n*p)-1).
func Anchors(n int, fractions ...float64) []int {
	out := make([]int, len(fractions))
	for i, p := range fractions {
		idx := int(float64(n)*p) - 1
		if idx < 0 {
			idx = 0
		}
		out[i] = idx
	}
	return out
}
