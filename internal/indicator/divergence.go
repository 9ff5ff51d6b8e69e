package indicator

import (
	"math"

	"quickcap/internal/model"
)

// Divergences scans pivot highs/lows and flags RSI divergences against price.
//
// A bar is a pivot high when its high exceeds the highs `swing` bars before
// and after it (symmetric for pivot lows); the first and last `swing` bars
// can never qualify. Walking consecutive pivot-high pairs, a bearish
// divergence is a higher price high with a lower RSI high; consecutive
// pivot-low pairs with a lower price low and a higher RSI low flag a bullish
// divergence. Returns the flagged bar indices as membership sets.
func Divergences(bars []model.Bar, rsi []float64, swing int) (bulls, bears map[int]bool) {
	bulls = make(map[int]bool)
	bears = make(map[int]bool)
	n := len(bars)
	if swing <= 0 || n != len(rsi) || n < 2*swing+1 {
		return bulls, bears
	}

	var pivotHighs, pivotLows []int
	for i := swing; i < n-swing; i++ {
		if bars[i].High > bars[i-swing].High && bars[i].High > bars[i+swing].High {
			pivotHighs = append(pivotHighs, i)
		}
		if bars[i].Low < bars[i-swing].Low && bars[i].Low < bars[i+swing].Low {
			pivotLows = append(pivotLows, i)
		}
	}

	for k := 1; k < len(pivotHighs); k++ {
		a, b := pivotHighs[k-1], pivotHighs[k]
		if math.IsNaN(rsi[a]) || math.IsNaN(rsi[b]) {
			continue
		}
		if bars[b].High > bars[a].High && rsi[b] < rsi[a] {
			bears[b] = true
		}
	}
	for k := 1; k < len(pivotLows); k++ {
		a, b := pivotLows[k-1], pivotLows[k]
		if math.IsNaN(rsi[a]) || math.IsNaN(rsi[b]) {
			continue
		}
		if bars[b].Low < bars[a].Low && rsi[b] > rsi[a] {
			bulls[b] = true
		}
	}
	return bulls, bears
}
