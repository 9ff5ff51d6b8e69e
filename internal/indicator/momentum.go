package indicator

import "math"

// MomentumPop flags bars where the z-score of the bar-over-bar return,
// against a rolling window of `lookback` returns, exceeds zThreshold.
// Bars without enough history are never flagged.
func MomentumPop(closes []float64, lookback int, zThreshold float64) []bool {
	out := make([]bool, len(closes))
	z := RollingZScores(PctChange(closes), lookback)
	for i, v := range z {
		if !math.IsNaN(v) && v > zThreshold {
			out[i] = true
		}
	}
	return out
}
