package indicator

import "math"

// RollingZScores computes, for each index, the z-score of values[i] against
// the rolling mean and sample standard deviation of the window of `window`
// values ending at i. Entries without a full window (or with a NaN inside
// the window) are NaN. A zero standard deviation is replaced with Epsilon.
func RollingZScores(values []float64, window int) []float64 {
	n := len(values)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if window < 2 || n < window {
		return out
	}

	for i := window - 1; i < n; i++ {
		var sum float64
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(window)
		var ss float64
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(window-1))
		if sd == 0 {
			sd = Epsilon
		}
		out[i] = (values[i] - mean) / sd
	}
	return out
}

// PctChange returns the bar-over-bar percent return series. The first entry
// is NaN since there is no prior value.
func PctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i == 0 || values[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i]/values[i-1] - 1
	}
	return out
}
