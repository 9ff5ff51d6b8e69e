package indicator

import "math"

// Epsilon neutralizes division by zero in degenerate market states
// (flat untraded bars, zero variance windows).
const Epsilon = 1e-12

// RSI computes the Wilder-smoothed relative strength index over the close
// series. The smoothing is the exponential recursion avg = a*x + (1-a)*avg
// with a = 1/period, seeded at the first price change. The first `period`
// entries are NaN: there is not enough history for a meaningful value.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || n < 2 {
		return out
	}

	alpha := 1.0 / float64(period)
	var avgUp, avgDown float64
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		up, down := 0.0, 0.0
		if change > 0 {
			up = change
		} else {
			down = -change
		}
		if i == 1 {
			avgUp, avgDown = up, down
		} else {
			avgUp = alpha*up + (1-alpha)*avgUp
			avgDown = alpha*down + (1-alpha)*avgDown
		}
		if i >= period {
			rs := avgUp / (avgDown + Epsilon)
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}
